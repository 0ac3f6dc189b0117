package db

import (
	"context"
	"errors"
	"strings"

	"github.com/Satish-Das/food-donate-application/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// OpenMongo connects to MongoDB and returns the configured database.
// Callers close the connection through db.Client().Disconnect.
func OpenMongo(ctx context.Context, cfg config.Config) (*mongo.Database, error) {
	if strings.TrimSpace(cfg.Database.MongoURI) == "" {
		return nil, errors.New("mongo uri is required")
	}
	if strings.TrimSpace(cfg.Database.MongoDatabase) == "" {
		return nil, errors.New("mongo database is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.Database.MongoURI).
		SetMaxPoolSize(defaultMaxOpenConns).
		SetMaxConnIdleTime(defaultConnMaxIdle)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client.Database(cfg.Database.MongoDatabase), nil
}

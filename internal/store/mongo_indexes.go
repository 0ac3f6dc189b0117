package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LegacyDonationEmailIndex is the unique donor email index older
// deployments created on the donations collection.
const LegacyDonationEmailIndex = "email_1"

const (
	codeNamespaceNotFound = 26
	codeIndexNotFound     = 27
)

// EnsureIndexes creates the indexes the repositories rely on. It is safe to
// run repeatedly.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	accountIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	indexes := map[string][]mongo.IndexModel{
		UsersCollection:  accountIndexes,
		AdminsCollection: accountIndexes,
		DonationsCollection: {
			{Keys: bson.D{{Key: "uniqueId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

// DropLegacyDonationEmailIndex removes the unique donor email index. A
// missing index or collection counts as success.
func DropLegacyDonationEmailIndex(ctx context.Context, db *mongo.Database) (bool, error) {
	_, err := db.Collection(DonationsCollection).Indexes().DropOne(ctx, LegacyDonationEmailIndex)
	if err == nil {
		return true, nil
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == codeIndexNotFound || cmdErr.Code == codeNamespaceNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("drop index %s: %w", LegacyDonationEmailIndex, err)
}

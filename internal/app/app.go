package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Satish-Das/food-donate-application/config"
	"github.com/Satish-Das/food-donate-application/internal/cache"
	"github.com/Satish-Das/food-donate-application/internal/db"
	"github.com/Satish-Das/food-donate-application/internal/mq"
	"github.com/Satish-Das/food-donate-application/internal/services"
	"github.com/Satish-Das/food-donate-application/internal/storage"
	"github.com/Satish-Das/food-donate-application/internal/store"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repositories groups the persistence layer for one database driver.
type Repositories struct {
	Donations services.DonationRepository
	Users     services.UserRepository
	Admins    services.AdminRepository
}

// App owns every backend connection and the services built on them.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Repos     Repositories
	Mongo     *mongo.Database
	Postgres  *sql.DB
	Redis     *redis.Client
	Bus       *mq.MQ
	Objects   *storage.Storage
	Linkage   *services.UserLinkage
	Donations *services.DonationService
	Users     *services.UserService
	Admins    *services.AdminService
	Exports   *services.ExportService

	closers []func() error
}

// New opens the configured database plus the optional cache, event bus
// and object storage, then builds the services. Close releases everything
// New opened, also when New fails halfway.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	if err := a.openDatabase(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	redisClient, err := cache.Open(ctx, cfg.Redis)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if redisClient != nil {
		a.Redis = redisClient
		a.closers = append(a.closers, redisClient.Close)
	}

	bus, err := mq.Open(ctx, cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if bus != nil {
		a.Bus = bus
		a.closers = append(a.closers, bus.Close)
	}

	objects, err := storage.Open(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Objects = objects

	a.buildServices()
	logger.Info("application initialized",
		"db_driver", cfg.Database.Driver,
		"redis", a.Redis != nil,
		"mq_backend", cfg.MQ.Backend,
		"storage_backend", cfg.Storage.Backend,
	)
	return a, nil
}

func (a *App) openDatabase(ctx context.Context) error {
	switch a.Config.Database.Driver {
	case config.DriverMongo:
		database, err := db.OpenMongo(ctx, a.Config)
		if err != nil {
			return err
		}
		a.Mongo = database
		a.closers = append(a.closers, func() error {
			return database.Client().Disconnect(context.Background())
		})
		a.Repos = Repositories{
			Donations: store.NewMongoDonationRepository(database),
			Users:     store.NewMongoUserRepository(database),
			Admins:    store.NewMongoAdminRepository(database),
		}
	case config.DriverPostgres:
		conn, err := db.Open(ctx, a.Config)
		if err != nil {
			return err
		}
		a.Postgres = conn
		a.closers = append(a.closers, conn.Close)
		a.Repos = Repositories{
			Donations: store.NewDonationRepository(conn),
			Users:     store.NewUserRepository(conn),
			Admins:    store.NewAdminRepository(conn),
		}
	default:
		return fmt.Errorf("unknown database driver %q", a.Config.Database.Driver)
	}
	return nil
}

func (a *App) buildServices() {
	a.Linkage = services.NewUserLinkage(a.Repos.Users, a.Repos.Donations, a.Logger)

	opts := []services.DonationOption{services.WithEmailMatching(a.Config.MatchDonationsByEmail)}
	if a.Bus != nil {
		opts = append(opts, services.WithEventPublisher(a.Bus))
	}
	if a.Redis != nil {
		opts = append(opts, services.WithStatisticsCache(cache.NewStatsCache(a.Redis, a.Config.Redis.StatsTTL)))
	}
	a.Donations = services.NewDonationService(a.Repos.Donations, a.Linkage, a.Logger, opts...)
	a.Users = services.NewUserService(a.Repos.Users)
	a.Admins = services.NewAdminService(a.Repos.Admins, a.Repos.Users, a.Repos.Donations, a.Config.MatchDonationsByEmail)

	var objects services.ObjectStore
	if a.Objects != nil {
		objects = a.Objects
	}
	a.Exports = services.NewExportService(a.Repos.Donations, objects)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

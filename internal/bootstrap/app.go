// Package bootstrap builds the application graph from Config: storage
// backends, services, controllers, the HTTP kernel and background tasks.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/bazaar/app/controllers"
	"github.com/shashiranjanraj/bazaar/app/pending"
	"github.com/shashiranjanraj/bazaar/app/repositories"
	"github.com/shashiranjanraj/bazaar/app/routes"
	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/internal/kernel"
	"github.com/shashiranjanraj/bazaar/pkg/cache"
	"github.com/shashiranjanraj/bazaar/pkg/crypt"
	appctx "github.com/shashiranjanraj/bazaar/pkg/ctx"
	"github.com/shashiranjanraj/bazaar/pkg/database"
	"github.com/shashiranjanraj/bazaar/pkg/event"
	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/mail"
	"github.com/shashiranjanraj/bazaar/pkg/middleware"
	"github.com/shashiranjanraj/bazaar/pkg/router"
	"github.com/shashiranjanraj/bazaar/pkg/schedule"
	"github.com/shashiranjanraj/bazaar/pkg/storage"
)

// App is the wired application.
type App struct {
	Config *config.Config

	Repos        repositories.Set
	Pending      pending.Store
	Registration *services.RegistrationService
	Auth         *services.AuthService
	Catalog      *services.CatalogService
	Cart         *services.CartService
	Accounts     *services.AccountService

	Events      *event.Bus
	Limiter     *middleware.Limiter
	Scheduler   *schedule.Scheduler
	Kernel      *kernel.HTTPKernel
	Controllers routes.Controllers

	mongo   *mongo.Client
	closers []func() error
}

// New connects every configured backend and wires the HTTP kernel. On
// error, anything already opened is closed again.
func New(ctx context.Context, cfg *config.Config) (app *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err := a.setupLogger(ctx); err != nil {
		return nil, err
	}

	if a.Repos, err = a.openRepositories(ctx); err != nil {
		return nil, err
	}
	if a.Pending, err = a.openPendingStore(ctx); err != nil {
		return nil, err
	}

	host, err := storage.NewImageHost(ctx, storage.Config{
		Driver: cfg.ImageDriver,
		Cloudinary: storage.CloudinaryOptions{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
		},
		S3: storage.S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Key:      cfg.S3Key,
			Secret:   cfg.S3Secret,
			Endpoint: cfg.S3Endpoint,
			URL:      cfg.S3URL,
		},
		LocalRoot: cfg.StorageLocalRoot,
		LocalURL:  cfg.StorageURL,
	})
	if err != nil {
		return nil, err
	}

	a.Events = a.newEventBus()

	a.Registration = services.NewRegistrationService(a.Repos.Users, a.Pending, newMailer(cfg), a.Events, services.RegistrationOptions{
		TTL:        cfg.OTPTTL(),
		CodeLength: cfg.OTPLength,
	})
	a.Auth = services.NewAuthService(a.Repos.Users)
	a.Catalog = services.NewCatalogService(a.Repos.Products, host, a.Events)
	a.Cart = services.NewCartService(a.Repos.Carts, a.Repos.Products, a.Events)
	a.Accounts = services.NewAccountService(a.Repos.Users, a.Repos.Products, host, a.Events)

	a.Controllers = routes.Controllers{
		Auth:         controllers.NewAuthController(a.Auth),
		Registration: controllers.NewRegistrationController(a.Registration),
		Products:     controllers.NewProductController(a.Catalog),
		Cart:         controllers.NewCartController(a.Cart),
		Users:        controllers.NewUserController(a.Accounts),
	}

	if cfg.OTPRateLimit > 0 {
		a.Limiter = middleware.NewLimiter(cfg.OTPRateLimit, time.Minute)
		if err := a.Limiter.TrustProxies(cfg.TrustedProxies); err != nil {
			return nil, err
		}
	}

	a.Scheduler = schedule.New()
	a.Scheduler.Every("otp.sweep", cfg.OTPSweepInterval, func(ctx context.Context) {
		if _, err := a.Registration.SweepExpired(ctx); err != nil {
			logger.Error("otp sweep failed", "error", err)
		}
	})

	kopts := kernel.Options{
		CORSOrigins: cfg.CORSAllowedOrigins,
		Routes:      a.RegisterRoutes,
	}
	if cfg.ImageDriver == "local" {
		kopts.UploadsDir = cfg.StorageLocalRoot
		kopts.UploadsURL = cfg.StorageURL
	}
	a.Kernel = kernel.NewHTTPKernel(kopts)

	return a, nil
}

// RegisterRoutes mounts the API on r.
func (a *App) RegisterRoutes(r *router.Router) {
	opts := routes.Options{
		Wrapper: appctx.NewWrapper(appctx.Options{
			MaxBodyBytes:   a.Config.MaxBodyBytes,
			MaxUploadBytes: a.Config.MaxUploadBytes,
		}),
	}
	if a.Limiter != nil {
		opts.OTPLimit = a.Limiter.Middleware
	}
	routes.RegisterAPI(r, a.Controllers, opts)
}

// StartBackground runs the scheduler and the limiter janitor until ctx is
// done.
func (a *App) StartBackground(ctx context.Context) {
	a.Scheduler.Start(ctx)
	if a.Limiter != nil {
		go a.Limiter.Janitor(ctx)
	}
}

// Close releases every backend in reverse order of opening.
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

func (a *App) onClose(fn func() error) { a.closers = append(a.closers, fn) }

func (a *App) setupLogger(ctx context.Context) error {
	cfg := a.Config
	if cfg.LogMongoCollection == "" {
		logger.Setup(cfg.AppEnv)
		return nil
	}

	client, err := a.mongoClient(ctx)
	if err != nil {
		return err
	}
	level := slog.LevelDebug
	if cfg.IsProduction() {
		level = slog.LevelInfo
	}
	sink := logger.NewMongoHandler(ctx, client.Database(cfg.MongoDatabase).Collection(cfg.LogMongoCollection), level)
	a.onClose(func() error { sink.Close(); return nil })
	logger.Setup(cfg.AppEnv, sink)
	return nil
}

// mongoClient connects once and shares the client between the log sink
// and the repositories.
func (a *App) mongoClient(ctx context.Context) (*mongo.Client, error) {
	if a.mongo != nil {
		return a.mongo, nil
	}
	client, err := database.ConnectMongo(ctx, a.Config.MongoURI)
	if err != nil {
		return nil, err
	}
	a.mongo = client
	a.onClose(func() error { return client.Disconnect(context.Background()) })
	return client, nil
}

func (a *App) openRepositories(ctx context.Context) (repositories.Set, error) {
	cfg := a.Config
	switch cfg.DBDriver {
	case "memory":
		logger.Warn("using in-memory repositories, data is lost on exit")
		return repositories.NewMemory(), nil

	case "mongo":
		client, err := a.mongoClient(ctx)
		if err != nil {
			return repositories.Set{}, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := repositories.EnsureMongoIndexes(ctx, db); err != nil {
			return repositories.Set{}, err
		}
		logger.Info("mongo connected", "database", cfg.MongoDatabase)
		return repositories.NewMongo(db), nil

	default:
		db, err := database.OpenSQL(ctx, cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			return repositories.Set{}, err
		}
		a.onClose(func() error { return database.CloseSQL(db) })
		if err := repositories.AutoMigrate(ctx, db); err != nil {
			return repositories.Set{}, err
		}
		logger.Info("sql database connected", "driver", cfg.DBDriver)
		return repositories.NewGorm(db), nil
	}
}

func (a *App) openPendingStore(ctx context.Context) (pending.Store, error) {
	cfg := a.Config
	if cfg.PendingStore != "redis" {
		return pending.NewMemory(), nil
	}

	box, err := crypt.New(cfg.AppKey)
	if err != nil {
		return nil, err
	}
	rdb, err := cache.Connect(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	a.onClose(rdb.Close)
	logger.Info("redis connected", "addr", cfg.RedisAddr)
	return pending.NewRedis(cache.New(rdb, "bazaar:"), box), nil
}

func (a *App) newEventBus() *event.Bus {
	bus := event.NewBus()
	brokers := nonEmpty(a.Config.KafkaBrokers)
	if len(brokers) == 0 {
		return bus
	}
	sink := event.NewKafkaSink(brokers, a.Config.KafkaTopic)
	bus.Sink(sink.Handle)
	a.onClose(sink.Close)
	logger.Info("kafka event sink enabled", "topic", a.Config.KafkaTopic)
	return bus
}

func newMailer(cfg *config.Config) mail.Mailer {
	if strings.ToLower(cfg.MailDriver) == "log" {
		return mail.LogMailer{}
	}
	return mail.NewSMTPMailer(mail.SMTP{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
	})
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Migrate opens the configured database and applies schema and indexes.
func Migrate(ctx context.Context, cfg *config.Config) error {
	a := &App{Config: cfg}
	defer a.Close()
	_, err := a.openRepositories(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

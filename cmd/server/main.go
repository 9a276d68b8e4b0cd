package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/localnerve/bigstone-community/internal/catalog"
	"github.com/localnerve/bigstone-community/internal/config"
	"github.com/localnerve/bigstone-community/internal/database"
	"github.com/localnerve/bigstone-community/internal/handlers"
	"github.com/localnerve/bigstone-community/internal/logging"
	"github.com/localnerve/bigstone-community/internal/metrics"
	"github.com/localnerve/bigstone-community/internal/scheduler"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/localnerve/bigstone-community/docs/api" // Swagger docs
)

// @title Bigstone Community API
// @version 1.0.0
// @description Port library, standards voting and project collaboration for redstone builders
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/bigstone-community
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name bigstone_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("Server failed", zap.Error(err))
	}
	zlog.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, zlog *zap.Logger) error {
	db, err := database.Connect(cfg, zlog)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	deps := handlers.Deps{
		Config:  cfg,
		DB:      db,
		Catalog: cat,
		Store:   store,
		Log:     zlog,
	}

	switch cfg.AuthMode {
	case config.AuthModeAuthorizer:
		// The client is initialized on the first authenticated request
		deps.Authz = services.NewAuthorizer(db, zlog, cfg.AuthzURL, cfg.AuthzClientID, cfg.AuthzRedirect)
		zlog.Info("Using Authorizer identities", zap.String("url", cfg.AuthzURL))
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close() //nolint:errcheck

		deps.Sessions, err = session.NewStore(rdb, "bigstone", cfg.SessionTTL)
		if err != nil {
			return err
		}
		if err := deps.Sessions.Ping(ctx); err != nil {
			zlog.Warn("Session store is not reachable yet", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
	}

	app := newApp(cfg, deps)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zlog.Info("Starting server", zap.String("port", cfg.Port))
		return app.Listen(":" + cfg.Port)
	})

	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("Gracefully shutting down...")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if cfg.ResolveInterval > 0 {
		resolver := scheduler.NewResolver(db, cfg.ResolveInterval, zlog)
		g.Go(func() error {
			return resolver.Run(gctx)
		})
	}

	if deps.Sessions != nil {
		g.Go(func() error {
			err := deps.Sessions.Watch(gctx, func(ev session.Event) {
				metrics.SessionEvents.WithLabelValues(string(ev.Type)).Inc()
				zlog.Info("Session event",
					zap.String("type", string(ev.Type)),
					zap.String("user", ev.Username))
			}, func(err error) {
				zlog.Warn("Session event dropped", zap.Error(err))
			})
			// a stopped watcher does not stop the server
			if err != nil {
				zlog.Warn("Session event watcher stopped", zap.Error(err))
			}
			return nil
		})
	}

	return g.Wait()
}

func newApp(cfg *config.Config, deps handlers.Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    16 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("bigstone")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Locally stored schematics
	if cfg.StorageBackend == config.StorageLocal && strings.HasPrefix(cfg.StorageBaseURL, "/") {
		app.Static(cfg.StorageBaseURL, cfg.StorageDir)
	}

	if cfg.AuthRateLimit > 0 {
		app.Use("/api/auth", limiter.New(limiter.Config{
			Max:        cfg.AuthRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return fiber.ErrTooManyRequests
			},
		}))
	}

	handlers.Register(app, deps)
	return app
}

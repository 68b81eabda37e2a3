package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/b2b-marketplace/offer-service/internal/config"
	"github.com/b2b-marketplace/offer-service/internal/handlers"
	"github.com/b2b-marketplace/offer-service/internal/logging"
	"github.com/b2b-marketplace/offer-service/internal/notifier"
	"github.com/b2b-marketplace/offer-service/internal/overlay"
	"github.com/b2b-marketplace/offer-service/internal/repository"
	"github.com/b2b-marketplace/offer-service/internal/service"
	"github.com/b2b-marketplace/offer-service/shared-domain/messaging"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	if err := run(cfg, log); err != nil {
		log.Error("offer service stopped", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

// run wires the service and blocks until the server stops. Every resource it
// opens is closed before it returns.
func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("offer service starting", zap.String("role", string(cfg.ViewerRole)), zap.Bool("env_file", cfg.EnvFileLoaded))
	if cfg.ViewerPrincipalID == uuid.Nil {
		return errors.New("VIEWER_PRINCIPAL_ID is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	db, err := initDatabase(ctx, cfg.Database, log)
	if err != nil {
		return errors.Wrap(err, "database connection")
	}
	defer db.Close()

	// RabbitMQ connection
	rabbitClient := messaging.NewRabbitMQClient(messaging.NewRabbitMQConfig(), log)
	if err := rabbitClient.Connect(); err != nil {
		return errors.Wrap(err, "rabbitmq connection")
	}
	defer rabbitClient.Close()

	publisher := messaging.NewPublisher(rabbitClient, log)
	consumer := messaging.NewConsumer(rabbitClient, cfg.OfferEventsQueue, "offer-service", log)

	sinks := notifier.Multi{
		notifier.NewLogNotifier(log),
		notifier.NewEventNotifier(publisher, "offer-service", log),
	}
	if cfg.Telegram.Enabled() {
		telegram, err := notifier.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			log.Warn("telegram notifications disabled", zap.Error(err))
		} else {
			sinks = append(sinks, telegram)
		}
	}

	// Dependencies injection
	bus := overlay.NewBus()
	store := repository.NewOfferStore(db, cfg.Database.Driver, repository.WithPurchaseWindow(cfg.PurchaseWindow))
	offerService := service.NewOfferService(
		service.Viewer{PrincipalID: cfg.ViewerPrincipalID, Role: cfg.ViewerRole},
		store, store, sinks, bus,
		service.Options{
			PurchaseWindow:      cfg.PurchaseWindow,
			CleanupNoticeWindow: cfg.CleanupNoticeWindow,
			Logger:              log,
		},
	)
	defer offerService.Close()

	if err := offerService.Load(ctx); err != nil {
		return errors.Wrap(err, "initial offer load")
	}

	offerHandler := handlers.NewOfferHandler(offerService, bus, log)

	// Fiber app setup
	app := setupFiberApp(log)
	handlers.RegisterRoutes(app.Group("/api/v1"), offerHandler)

	// Route not found
	app.Use("*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Route not found",
		})
	})

	// RabbitMQ event consumption start
	if err := offerHandler.StartConsuming(consumer); err != nil {
		log.Error("rabbitmq consumption error", zap.Error(err))
	}

	// Graceful shutdown setup
	go func() {
		<-ctx.Done()
		log.Info("offer service closing")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown error", zap.Error(err))
		}
	}()

	log.Info("offer service listening", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		return errors.Wrap(err, "server start")
	}
	return nil
}

func initDatabase(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*sql.DB, error) {
	dsn := cfg.Path
	if cfg.Driver == repository.DriverPostgres {
		dsn = repository.PostgresDSN(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	}

	db, err := repository.Open(ctx, cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("database connection established", zap.String("driver", cfg.Driver))
	return db, nil
}

func setupFiberApp(log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Offer Service v1.0",
		ErrorHandler: errorHandler(log),
	})

	// Middlewares
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} - ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
	}))

	return app
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		}

		log.Error("request error", zap.Int("status", code), zap.String("path", c.Path()), zap.Error(err))

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}

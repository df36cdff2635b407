package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lendr/internal/app/commands"
	availabilityapp "lendr/internal/app/handlers/availability"
	bookingapp "lendr/internal/app/handlers/booking"
	listingsapp "lendr/internal/app/handlers/listings"
	meapp "lendr/internal/app/handlers/me"
	"lendr/internal/app/middleware"
	"lendr/internal/app/outbox"
	"lendr/internal/app/queries"
	"lendr/internal/app/uow"
	kafkabroker "lendr/internal/infra/broker/kafka"
	"lendr/internal/infra/config"
	mongostore "lendr/internal/infra/db/mongo"
	ginserver "lendr/internal/infra/http/gin"
	"lendr/internal/infra/obs"
	"lendr/internal/infra/storage/memory"
	redisstore "lendr/internal/infra/storage/redis"
	"lendr/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, cleanup, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	ready    func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var uowFactory uow.Factory
	readyChecks := []func() error{}

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, cleanup, err
		}
		uowFactory = mongostore.NewFactory(client.DB)
		readyChecks = append(readyChecks, func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		})
		logger.Info("mongo storage attached", "db", cfg.MongoDB)
	default:
		uowFactory = memory.NewFactory()
		logger.Info("in-memory storage attached")
	}

	outboxStore := memory.NewOutbox()
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafkabroker.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, cleanup, err
		}
		cleanups = append(cleanups, func() { _ = producer.Close() })
		outboxStore.Publisher = func(ctx context.Context, record outbox.EventRecord) error {
			return producer.PublishRecord(ctx, cfg.KafkaTopicPrefix, record)
		}
		logger.Info("kafka producer attached", "brokers", cfg.KafkaBrokers)
	}

	var idStore middleware.IdempotencyStore = memory.NewIdempotencyStore()
	if cfg.RedisAddr != "" {
		client := redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword)
		if err := redisstore.Ping(ctx, client); err != nil {
			return application{}, cleanup, err
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		idStore = redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
		logger.Info("redis idempotency store attached", "addr", cfg.RedisAddr)
	}

	var photos s3.PhotoStore = s3.NoopPhotoStore{}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			logger.Warn("object storage unavailable, photo uploads disabled", "error", err)
		} else {
			photos = client
		}
	}

	metrics := obs.NewMetrics()

	bookHandler := &bookingapp.BookRangeHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    outbox.JSONEventEncoder{},
		Logger:     logger,
	}
	cancelHandler := &bookingapp.CancelReservationHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    outbox.JSONEventEncoder{},
		Logger:     logger,
	}
	blockHandler := &bookingapp.BlockRangeHandler{Book: bookHandler}
	createListingHandler := &listingsapp.CreateListingHandler{
		UoWFactory: uowFactory,
		Book:       bookHandler,
		Logger:     logger,
	}
	updateListingHandler := &listingsapp.UpdateListingHandler{UoWFactory: uowFactory, Logger: logger}
	attachPhotoHandler := &listingsapp.AttachPhotoHandler{UoWFactory: uowFactory}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.BookRangeCommand{}.Key(), bookHandler)
	commands.RegisterHandler(commandBus, bookingapp.CancelReservationCommand{}.Key(), cancelHandler)
	commands.RegisterHandler(commandBus, bookingapp.BlockRangeCommand{}.Key(), blockHandler)
	commands.RegisterHandler(commandBus, listingsapp.CreateListingCommand{}.Key(), createListingHandler)
	commands.RegisterHandler(commandBus, listingsapp.UpdateListingCommand{}.Key(), updateListingHandler)
	commands.RegisterHandler(commandBus, listingsapp.AttachPhotoCommand{}.Key(), attachPhotoHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.UnavailableRangesQuery{}.Key(), &availabilityapp.UnavailableRangesHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, availabilityapp.IsRangeFreeQuery{}.Key(), &availabilityapp.IsRangeFreeHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, availabilityapp.CalendarMarksQuery{}.Key(), &availabilityapp.CalendarMarksHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, listingsapp.GetListingQuery{}.Key(), &listingsapp.GetListingHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, listingsapp.CatalogQuery{}.Key(), &listingsapp.CatalogHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, listingsapp.MyListingsQuery{}.Key(), &listingsapp.MyListingsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, meapp.MyReservationsQuery{}.Key(), &meapp.MyReservationsHandler{UoWFactory: uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	return application{
		handlers: ginserver.Handlers{
			Booking:      ginserver.BookingHandler{Commands: commandBusWithMiddleware, Metrics: metrics},
			Availability: ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware},
			Listing: ginserver.ListingHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Photos:   photos,
				Metrics:  metrics,
			},
			Me:       ginserver.MeHandler{Queries: queryBusWithMiddleware},
			Identity: ginserver.Identity(cfg.DemoUserID),
		},
		ready: func() error {
			for _, check := range readyChecks {
				if err := check(); err != nil {
					return err
				}
			}
			return nil
		},
	}, cleanup, nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mariellesantos/floracart-backend/api/routes"
	"github.com/mariellesantos/floracart-backend/internal/address"
	"github.com/mariellesantos/floracart-backend/internal/auth"
	"github.com/mariellesantos/floracart-backend/internal/cart"
	"github.com/mariellesantos/floracart-backend/internal/checkout"
	"github.com/mariellesantos/floracart-backend/internal/content"
	"github.com/mariellesantos/floracart-backend/internal/deliveryfees"
	"github.com/mariellesantos/floracart-backend/internal/media"
	"github.com/mariellesantos/floracart-backend/internal/notifications"
	"github.com/mariellesantos/floracart-backend/internal/orders"
	"github.com/mariellesantos/floracart-backend/internal/products"
	"github.com/mariellesantos/floracart-backend/internal/requests"
	"github.com/mariellesantos/floracart-backend/internal/users"
	"github.com/mariellesantos/floracart-backend/pkg/auth/session"
	"github.com/mariellesantos/floracart-backend/pkg/config"
	"github.com/mariellesantos/floracart-backend/pkg/db"
	"github.com/mariellesantos/floracart-backend/pkg/instance"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/metrics"
	"github.com/mariellesantos/floracart-backend/pkg/migrate"
	"github.com/mariellesantos/floracart-backend/pkg/outbox"
	"github.com/mariellesantos/floracart-backend/pkg/redis"
	"github.com/mariellesantos/floracart-backend/pkg/signal"
	"github.com/mariellesantos/floracart-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	// SSE subscribers hang off the local hub; store writes publish through the
	// Redis bridge so feed appends from the worker process wake them too
	hub := signal.NewHub()
	bridge, err := signal.NewBridge(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create signal bridge", err)
		os.Exit(1)
	}
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	cartService, err := cart.NewService(redisClient, bridge, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(redisClient, notifications.NewRepository(dbClient.DB()), bridge, logg, cfg.Shop.FeedCap)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(dbClient.DB())
	productsService, err := products.NewService(productsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	feesRepo := deliveryfees.NewRepository(dbClient.DB())
	feesService, err := deliveryfees.NewService(feesRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery fee service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	requestsService, err := requests.NewService(requests.NewRepository(dbClient.DB()), dbClient, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create requests service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.Params{
		Cart:     cartService,
		Products: productsRepo,
		Orders:   ordersRepo,
		Fees:     feesService,
		Store:    redisClient,
		Tx:       dbClient,
		Outbox:   outboxService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	addressService, err := address.NewService(address.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	contentService, err := content.NewService(content.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create content service", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(gcsClient, cfg.GCS.UploadURLExpiry)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	bridgeCtx, stopBridge := context.WithCancel(context.Background())
	defer stopBridge()
	go func() {
		if err := bridge.Run(bridgeCtx, hub); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "signal bridge stopped unexpectedly", err)
		}
	}()

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:           cfg,
			Logger:           logg,
			Metrics:          metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
			DBPinger:         dbClient,
			RedisP:           redisClient,
			GCSPinger:        gcsClient,
			IdempotencyStore: redisClient,
			Sessions:         sessionManager,
			Hub:              hub,
			Auth:             authService,
			Products:         productsService,
			Cart:             cartService,
			Checkout:         checkoutService,
			Orders:           ordersService,
			Requests:         requestsService,
			Notifications:    notificationsService,
			Addresses:        addressService,
			Content:          contentService,
			DeliveryFees:     feesService,
			Media:            mediaService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

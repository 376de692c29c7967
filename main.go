package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/controllers"
	"storefront/middleware"
	"storefront/payment"
	"storefront/repository"
	"storefront/routes"
	"storefront/services"
	"storefront/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

const tokenTTL = 24 * time.Hour

func main() {
	logger := config.NewLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	logger = config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, client, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open stores")
	}
	if client != nil {
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.WithError(err).Error("Failed to disconnect from MongoDB")
			}
		}()
	}

	mailer, err := utils.NewMailer(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure mailer")
	}
	dispatcher := services.NewNotificationDispatcher(stores.Users, mailer, services.DispatcherOptions{
		Workers:     cfg.NotifyWorkers,
		QueueSize:   cfg.NotifyQueueSize,
		MaxAttempts: cfg.NotifyMaxAttempts,
		BaseBackoff: cfg.NotifyBaseBackoff,
	}, logger)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	gateway, err := payment.NewGateway(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure payment gateway")
	}

	orderService := services.NewOrderService(stores, dispatcher, services.OrderOptions{
		DeliveryChargeMinorUnits: cfg.DeliveryChargeMinorUnits,
		StrictStatusTransitions:  cfg.StrictStatusTransitions,
	}, logger)
	paymentService := services.NewPaymentService(stores, gateway, services.PaymentOptions{
		Currency:                   cfg.SettlementCurrency,
		DeliveryChargeMinorUnits:   cfg.DeliveryChargeMinorUnits,
		DiscardUnpaidGatewayOrders: cfg.DiscardUnpaidGatewayOrders,
	}, logger)
	ranking := services.NewRankingEngine(stores)
	issuer := utils.NewTokenIssuer(cfg.JWTSecret, tokenTTL)

	// Initialize controllers
	userController := controllers.NewUserController(stores.Users, issuer, mailer, cfg.PublicURL, cfg.RequestTimeout, logger)
	productController := controllers.NewProductController(stores.Products, ranking, cfg.RequestTimeout, logger)
	cartController := controllers.NewCartController(stores.Carts, stores.Products, cfg.RequestTimeout, logger)
	orderController := controllers.NewOrderController(orderService, paymentService, cfg.PublicURL, cfg.RequestTimeout, logger)

	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(logger))
	routes.RegisterRoutes(router, issuer, userController, productController, cartController, orderController)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":     cfg.Port,
			"store":    cfg.StoreDriver,
			"gateway":  gateway.Name(),
			"mailer":   cfg.EmailProvider,
			"currency": cfg.SettlementCurrency,
		}).Info("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

// openStores returns the configured persistence. The client is nil for the
// memory driver.
func openStores(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.Stores, *mongo.Client, error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("Using in-memory stores; data is lost on restart")
		return repository.NewMemoryStores(), nil, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := repository.Connect(connectCtx, cfg.MongoURI)
	if err != nil {
		return repository.Stores{}, nil, err
	}
	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(connectCtx, db); err != nil {
		client.Disconnect(context.Background())
		return repository.Stores{}, nil, err
	}
	logger.WithField("database", cfg.MongoDatabase).Info("Connected to MongoDB")
	return repository.NewMongoStores(db), client, nil
}

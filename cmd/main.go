package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wavecart/order-ledger/internal/events"
	"github.com/wavecart/order-ledger/internal/handler"
	"github.com/wavecart/order-ledger/internal/repository"
	"github.com/wavecart/order-ledger/internal/service"
	"github.com/wavecart/order-ledger/pkg/config"
	"github.com/wavecart/order-ledger/pkg/metrics"
	"github.com/wavecart/order-ledger/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Info("Service configuration",
		zap.String("port", cfg.Port),
		zap.String("kafka_brokers", cfg.KafkaBrokers),
		zap.String("aws_region", cfg.AWSRegion))

	dynamoClient, err := repository.NewDynamoDBClient(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to create DynamoDB client:", err)
	}

	orderRepo := repository.NewOrderRepository(dynamoClient, cfg.OrdersTableName)
	productRepo := repository.NewProductRepository(dynamoClient, cfg.ProductsTableName)
	affiliateRepo := repository.NewAffiliateRepository(dynamoClient, cfg.AffiliateTableName)
	revenueRepo := repository.NewRevenueRepository(dynamoClient, cfg.RevenueTableName)

	notifier := events.NewProducer(cfg.KafkaBrokers, logger)
	defer notifier.Close()

	ledgerService := service.NewLedgerService(revenueRepo, affiliateRepo, logger)
	checkoutService := service.NewCheckoutService(orderRepo, productRepo, affiliateRepo, ledgerService, notifier, logger)
	statusService := service.NewStatusService(orderRepo, productRepo, ledgerService, notifier, logger)
	paymentService := service.NewPaymentService(orderRepo, statusService, logger)
	orderHandler := handler.NewOrderHandler(checkoutService, statusService, paymentService, logger)

	serverMetrics := metrics.NewServerMetrics("order_ledger")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(serverMetrics))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", orderHandler.CreateOrder)
		v1.GET("/orders/:id", orderHandler.GetOrder)
		v1.POST("/orders/:id/status", orderHandler.TransitionStatus)
		v1.POST("/orders/:id/payment", orderHandler.ApplyPaymentStatus)
		v1.POST("/orders/:id/cancel", orderHandler.CancelOrder)
	}
	healthHandler := handler.NewHealthHandler("order-ledger", notifier, orderRepo)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health", healthHandler.Check)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

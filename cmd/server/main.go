package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lixing-Zhang/campus-queue/internal/basket"
	"github.com/Lixing-Zhang/campus-queue/internal/catalog"
	"github.com/Lixing-Zhang/campus-queue/internal/config"
	"github.com/Lixing-Zhang/campus-queue/internal/handlers"
	"github.com/Lixing-Zhang/campus-queue/internal/repository"
	"github.com/Lixing-Zhang/campus-queue/internal/service"
	"github.com/Lixing-Zhang/campus-queue/pkg/logger"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting campus queue api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
		"order_store", cfg.Store.Backend,
	)

	ctx := context.Background()

	// Catalog: built-in vendors unless external documents are configured
	catalogRepo := repository.NewInMemoryCatalogRepository()
	if len(cfg.Catalog.Sources) > 0 {
		log.Info("loading vendor catalog...", "sources", len(cfg.Catalog.Sources))
		vendors, err := catalog.NewLoader(nil).Load(ctx, cfg.Catalog.Sources)
		if err != nil {
			log.Error("failed to load vendor catalog", "error", err)
			os.Exit(1)
		}
		catalogRepo.Replace(vendors)
		log.Info("vendor catalog loaded", "vendors", len(vendors))
	}

	st, err := openStores(ctx, cfg.Store, log)
	if err != nil {
		log.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer st.close()

	// Initialize services
	pricing := basket.Pricing{
		DeliveryFee: cfg.Pricing.DeliveryFee,
		TaxRate:     cfg.Pricing.TaxRate,
	}
	codes := basket.NewCodeGenerator(nil)
	newBasket := func() *basket.Basket {
		return basket.New(
			basket.WithPricing(pricing),
			basket.WithCodeGenerator(codes),
			basket.WithEstimator(catalogRepo),
		)
	}

	basketService, err := service.NewBasketService(catalogRepo, cfg.Basket.CacheSize, newBasket, log)
	if err != nil {
		log.Error("failed to create basket service", "error", err)
		os.Exit(1)
	}

	retry := service.DefaultRetryConfig()
	retry.MaxTries = uint(cfg.Persist.MaxTries)
	retry.InitialInterval = cfg.Persist.InitialInterval

	catalogService := service.NewCatalogService(catalogRepo)
	orderService := service.NewOrderService(basketService, st.orders, retry, log)
	profileService := service.NewProfileService(st.profiles, catalogRepo)

	// Initialize handlers
	router := handlers.NewRouter(handlers.Handlers{
		Health:  handlers.NewHealthHandler(log, st.checks),
		Catalog: handlers.NewCatalogHandler(catalogService, log),
		Basket:  handlers.NewBasketHandler(basketService, log),
		Order:   handlers.NewOrderHandler(orderService, log),
		Profile: handlers.NewProfileHandler(profileService, log),
	}, cfg.Auth, log)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return
	}

	if n := orderService.PendingCount(); n > 0 {
		log.Warn("orders still awaiting persistence at shutdown", "count", n)
	}

	log.Info("server stopped gracefully")
}

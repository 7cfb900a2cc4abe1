package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doorstep-cart/internal/cart"
	"doorstep-cart/internal/catalog"
	"doorstep-cart/internal/checkout"
	"doorstep-cart/internal/config"
	"doorstep-cart/internal/delivery"
	"doorstep-cart/internal/handler"
	"doorstep-cart/internal/httpclient"
	"doorstep-cart/internal/router"
	"doorstep-cart/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting doorstep cart service")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the snapshot store backend
	var kv store.KV
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool, err := store.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer pool.Close()

		kv, err = store.NewPostgres(ctx, pool, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize postgres store: %w", err)
		}
	case config.StoreDriverS3:
		kv, err = store.NewS3(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 store: %w", err)
		}
	case config.StoreDriverMemory:
		kv = store.NewMemory()
		logger.Warn().Msg("using in-memory store, carts will not survive restarts")
	default:
		kv, err = store.NewFile(cfg.Store.Dir, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize file store: %w", err)
		}
	}

	snapshots := store.NewSnapshotStore(kv, logger)

	// Initialize the cart engines, restoring any unexpired snapshots
	cartCfg := cart.Config{Expiry: time.Duration(cfg.Cart.ExpiryHours) * time.Hour}
	engine := cart.New(ctx, snapshots, cartCfg, logger)
	guestEngine := cart.NewGuest(ctx, snapshots, cartCfg, logger)

	// Initialize the backend API client with single-flight token refresh
	apiClient := httpclient.New(
		&http.Client{Timeout: 15 * time.Second},
		httpclient.StaticToken(cfg.Catalog.Token),
		httpclient.Config{
			RefreshTimeout: time.Duration(cfg.Catalog.RefreshTimeoutSecs) * time.Second,
			OnAuthExpired: func() {
				logger.Warn().Msg("backend session expired")
			},
		},
		logger,
	)

	catalogClient := catalog.NewHTTP(apiClient, cfg.Catalog.BaseURL, logger)

	// Initialize checkout
	feePolicy := delivery.FeePolicy{
		BaseFeeMinor:    cfg.Delivery.BaseFee,
		BaseDistanceKm:  cfg.Delivery.BaseDistanceKm,
		PerKmFeeMinor:   cfg.Delivery.PerKmFee,
		CeilingFeeMinor: cfg.Delivery.CeilingFee,
	}
	gateway := checkout.NewHTTPGateway(apiClient, cfg.Catalog.BaseURL, logger)
	orderAPI := checkout.NewHTTPOrderAPI(apiClient, cfg.Catalog.BaseURL, logger)
	orchestrator := checkout.NewOrchestrator(engine, gateway, orderAPI, catalogClient, feePolicy, logger)

	// Initialize HTTP handlers
	cartHandler := handler.NewCartHandler(engine, catalogClient, logger)
	guestHandler := handler.NewGuestHandler(guestEngine, engine, catalogClient, logger)
	checkoutHandler := handler.NewCheckoutHandler(orchestrator, snapshots, logger)
	deliveryHandler := handler.NewDeliveryHandler(catalogClient, feePolicy, logger)

	// Initialize router
	mux := router.New(cartHandler, guestHandler, checkoutHandler, deliveryHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

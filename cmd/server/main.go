package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neontrade-go/internal/admin"
	"neontrade-go/internal/auth"
	"neontrade-go/internal/config"
	"neontrade-go/internal/database"
	"neontrade-go/internal/engine"
	"neontrade-go/internal/ledger"
	"neontrade-go/internal/logger"
	"neontrade-go/internal/pricefeed"
	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Select the market data source
	var source pricefeed.Source
	coinIDs := make([]string, 0, len(cfg.Trading.Coins))
	for _, c := range cfg.Trading.Coins {
		coinIDs = append(coinIDs, c.ID)
	}
	switch cfg.PriceFeed.Mode {
	case "coingecko":
		source = pricefeed.NewCoinGeckoClient(&cfg.PriceFeed, coinIDs, log)
	default:
		source = pricefeed.NewSimulatedSource(cfg.Trading.Coins, time.Now().UnixNano())
	}
	feed := pricefeed.NewFeed(source, db, log,
		time.Duration(cfg.PriceFeed.PollInterval)*time.Second)

	// Build the core services
	led := ledger.NewLedger(db, log)
	policy, err := engine.PolicyFromConfig(&cfg.Trading, time.Now().UnixNano())
	if err != nil {
		log.Fatal("Invalid trading configuration", zap.Error(err))
	}
	tradeEngine := engine.NewEngine(log, &cfg.Trading, led, feed, policy)
	authSvc := auth.NewService(db, &cfg.Auth, log)
	adminSvc := admin.NewService(db, &cfg.Admin, log)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	go feed.Run(ctx)
	go tradeEngine.Run(ctx)

	// Setup HTTP server
	mux := http.NewServeMux()
	apiHandler := NewAPIHandler(log, db, tradeEngine, led, authSvc, adminSvc)
	apiHandler.Routes(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info("Starting API server", zap.String("address", addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("API server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	log.Info("Server has been shut down.")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nft-auction-ledger/internal/adapters/broadcaster"
	"nft-auction-ledger/internal/adapters/db"
	"nft-auction-ledger/internal/adapters/expiry"
	"nft-auction-ledger/internal/adapters/memory"
	redisadapter "nft-auction-ledger/internal/adapters/redis"
	"nft-auction-ledger/internal/adapters/ws"
	"nft-auction-ledger/internal/app"
	"nft-auction-ledger/internal/auth"
	"nft-auction-ledger/internal/config"
	"nft-auction-ledger/internal/domain/escrow"
	"nft-auction-ledger/internal/fees"
	"nft-auction-ledger/internal/ports/outbound"
	"nft-auction-ledger/internal/whitelist"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting NFT Auction Ledger...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pick the store backend
	var auctionStore outbound.AuctionStore
	var whitelistStore outbound.WhitelistStore
	if cfg.Auction.StoreBackend == "postgres" {
		dbConn, err := db.NewConnection(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbConn.Close()

		storeFactory := db.NewStoreFactory(dbConn)
		auctionStore = storeFactory.GetAuctionStore()
		whitelistStore = storeFactory.GetWhitelistStore()
		log.Info().Msg("Postgres store initialized")
	} else {
		auctionStore = memory.NewAuctionStore()
		whitelistStore = memory.NewWhitelistStore()
		log.Info().Msg("In-memory store initialized")
	}

	// Create Redis client
	redisClient := redisadapter.NewClient(cfg)
	if err := redisadapter.PingRedis(redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	// Create Redis broadcaster and expiry index
	redisBroadcaster := broadcaster.NewBroadcaster(broadcaster.RedisBroadcasterParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})
	expiryIndex := expiry.NewIndex(expiry.IndexParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})

	// Domain components
	whitelistRegistry := whitelist.NewRegistry(whitelist.RegistryParams{Logger: log.Logger})
	if entries, err := whitelistStore.All(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to load persisted whitelist entries")
	} else {
		for collection, status := range entries {
			whitelistRegistry.SetWhitelisted(collection, status)
		}
	}

	feeCalculator := fees.NewCalculator(fees.CalculatorParams{
		CreationFee: cfg.Auction.CreationFee,
		BidFee:      cfg.Auction.BidFee,
		FinalizeBps: cfg.Auction.FinalizeBps,
	})
	escrowTable := escrow.NewTable()

	// External collaborators: in-process stand-ins for the asset and
	// value transfer contracts.
	assetRegistry := memory.NewAssetRegistry()
	paymentVault := memory.NewPaymentVault()

	// Business services
	ledgerService := app.NewLedgerService(app.LedgerServiceParams{
		Store:       auctionStore,
		Assets:      assetRegistry,
		Payments:    paymentVault,
		Whitelist:   whitelistRegistry,
		Fees:        feeCalculator,
		Escrow:      escrowTable,
		Broadcaster: redisBroadcaster,
		ExpiryIndex: expiryIndex,
		EscrowAddr:  cfg.Auction.EscrowAddress,
		MinDuration: cfg.Auction.MinDuration,
		MaxDuration: cfg.Auction.MaxDuration,
		Logger:      log.Logger,
	})

	queryService := app.NewQueryService(app.QueryServiceParams{
		Store:  auctionStore,
		Escrow: escrowTable,
		Logger: log.Logger,
	})

	adminService := app.NewAdminService(app.AdminServiceParams{
		Owner:          cfg.Auction.OwnerAddress,
		EscrowAddr:     cfg.Auction.EscrowAddress,
		Whitelist:      whitelistRegistry,
		WhitelistStore: whitelistStore,
		Fees:           feeCalculator,
		Escrow:         escrowTable,
		Assets:         assetRegistry,
		Payments:       paymentVault,
		Store:          auctionStore,
		Ledger:         ledgerService,
		Logger:         log.Logger,
	})

	expiryFinalizer := app.NewExpiryFinalizer(app.ExpiryFinalizerParams{
		Ledger:      ledgerService,
		Store:       auctionStore,
		ExpiryIndex: expiryIndex,
		Logger:      log.Logger,
	})

	log.Info().Msg("Business services initialized")

	authService := auth.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	wsServer := ws.NewServer(ws.ServerParams{
		Config:      cfg,
		Ledger:      ledgerService,
		Queries:     queryService,
		Admin:       adminService,
		Finalizer:   expiryFinalizer,
		Broadcaster: redisBroadcaster,
		AuthService: authService,
		Logger:      log.Logger,
	})

	log.Info().Msg("WebSocket server initialized")

	// Start WebSocket server
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting WebSocket server")
		if err := wsServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start WebSocket server")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := wsServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping WebSocket server")
	}

	if err := redisBroadcaster.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing broadcaster")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		// JSON format (default)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global logger
	zerolog.DefaultContextLogger = &log.Logger
}

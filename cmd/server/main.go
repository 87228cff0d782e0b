package main

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinecrypto/internal/applog"
	"github.com/iliyamo/cinecrypto/internal/catalog"
	"github.com/iliyamo/cinecrypto/internal/clock"
	"github.com/iliyamo/cinecrypto/internal/config"
	"github.com/iliyamo/cinecrypto/internal/database"
	"github.com/iliyamo/cinecrypto/internal/display"
	"github.com/iliyamo/cinecrypto/internal/handler"
	"github.com/iliyamo/cinecrypto/internal/ledger"
	"github.com/iliyamo/cinecrypto/internal/middleware"
	"github.com/iliyamo/cinecrypto/internal/queue"
	"github.com/iliyamo/cinecrypto/internal/readmodel"
	"github.com/iliyamo/cinecrypto/internal/reconcile"
	"github.com/iliyamo/cinecrypto/internal/router"
	"github.com/iliyamo/cinecrypto/internal/seatcodec"
	"github.com/iliyamo/cinecrypto/internal/service"
	"github.com/iliyamo/cinecrypto/internal/showtime"
	"github.com/iliyamo/cinecrypto/internal/tickets"
	"github.com/iliyamo/cinecrypto/internal/txn"
	"github.com/iliyamo/cinecrypto/internal/wallet"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins

	cfg := config.Load()
	logger := applog.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.DisplayTZ)
	if err != nil {
		logger.WithError(err).Fatalf("invalid DISPLAY_TZ %q", cfg.DisplayTZ)
	}
	format := display.NewFormatter(loc)
	layout := seatcodec.NewLayout(cfg.SeatsPerRow)
	clk := clock.Real()

	// ledger
	if !common.IsHexAddress(cfg.ContractAddress) {
		logger.Fatalf("invalid CONTRACT_ADDRESS %q", cfg.ContractAddress)
	}
	eth, err := ledger.Dial(ctx, cfg.RPCURL)
	if err != nil {
		logger.WithError(err).Fatal("cannot dial ledger node")
	}
	defer eth.Close()
	gw, err := ledger.NewClient(common.HexToAddress(cfg.ContractAddress), eth, cfg.RPCTimeout, logger)
	if err != nil {
		logger.WithError(err).Fatal("cannot bind contract")
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		cctx, cancel := context.WithTimeout(ctx, cfg.RPCTimeout)
		chainID, err = eth.ChainID(cctx)
		cancel()
		if err != nil {
			logger.WithError(err).Fatal("cannot read chain id; set CHAIN_ID")
		}
	}

	// wallet
	session := wallet.NewSession(chainID, cfg.WalletKeystorePath, logger)
	switch {
	case cfg.WalletPrivateKey != "":
		if err := session.ConnectHexKey(cfg.WalletPrivateKey); err != nil {
			logger.WithError(err).Fatal("invalid WALLET_PRIVATE_KEY")
		}
	case cfg.WalletKeystorePath != "" && cfg.WalletPassphrase != "":
		if err := session.Unlock(cfg.WalletPassphrase); err != nil {
			logger.WithError(err).Warn("keystore not unlocked at boot")
		}
	}

	// catalog and read services
	cat := catalog.NewClient(catalog.Options{
		BaseURL:         cfg.TMDBBaseURL,
		APIKey:          cfg.TMDBAPIKey,
		ImageBaseURL:    cfg.TMDBImageBaseURL,
		BackdropBaseURL: cfg.TMDBBackdropURL,
		Timeout:         cfg.TMDBTimeout,
	}, nil, logger)
	rec := reconcile.New(gw, cat, format, cfg.ScanConcurrency, logger)
	agg := showtime.New(gw, clk, format, cfg.ScanConcurrency, logger)
	movies := service.NewMovies(gw, cat, rec, agg, logger)
	seatmaps := service.NewSeatmaps(gw, layout, format, logger)
	home := service.NewHomeBuilder(gw, cat, rec, agg, cfg.ScanConcurrency, logger)
	ticketSvc := tickets.NewService(gw, rec, layout, format, clk, cfg.ScanConcurrency, tickets.NewBoard(), logger)

	// read-model store
	rmCfg := config.LoadReadModelConfig()
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}
	var store readmodel.Store
	switch {
	case rmCfg.Backend == "redis" && rdb != nil:
		store = readmodel.NewRedisStore(rdb)
	case rmCfg.Backend == "mysql":
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err == nil {
			err = database.Migrate(ctx, db)
		}
		if err != nil {
			logger.WithError(err).Warn("mysql snapshot store unavailable, using memory")
			store = readmodel.NewMemoryStore()
			break
		}
		defer db.Close()
		store = readmodel.NewSQLStore(db)
	default:
		if rmCfg.Backend != "memory" {
			logger.WithField("backend", rmCfg.Backend).Warn("snapshot backend unavailable, using memory")
		}
		store = readmodel.NewMemoryStore()
	}
	cache := readmodel.New(store, home, rmCfg.Key, rmCfg.TTL, clk, logger)

	// transaction events
	evCfg := config.LoadEventsConfig()
	var pub queue.Publisher = queue.NopPublisher{}
	if evCfg.Enabled {
		pub = queue.NewAMQPPublisher(evCfg.URL, logger)
		consumer := queue.NewConsumer(evCfg.URL, evCfg.LogDir, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("transaction consumer stopped")
			}
		}()
	}
	orch := txn.New(gw, session, pub, layout, clk, logger)

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
			} else {
				entry.Info("request")
			}
			return nil
		},
	}))

	router.RegisterRoutes(e)
	router.RegisterAPI(e, router.Handlers{
		Browse:       &handler.BrowseHandler{Cache: cache, Movies: movies, Seatmaps: seatmaps, Logger: logger},
		Transactions: &handler.TransactionHandler{Orchestrator: orch, Logger: logger},
		Tickets:      &handler.TicketHandler{Tickets: ticketSvc, Logger: logger},
		Wallet:       &handler.WalletHandler{Session: session, Logger: logger},
		TxLimit:      middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb, logger),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "chain_id": chainID.String()}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown")
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vikram-agentic/tradex/internal/agent"
	"github.com/vikram-agentic/tradex/internal/broker"
	"github.com/vikram-agentic/tradex/internal/config"
	cronrunner "github.com/vikram-agentic/tradex/internal/cron"
	"github.com/vikram-agentic/tradex/internal/db"
	"github.com/vikram-agentic/tradex/internal/decision"
	"github.com/vikram-agentic/tradex/internal/handler"
	"github.com/vikram-agentic/tradex/internal/logger"
	"github.com/vikram-agentic/tradex/internal/market"
	"github.com/vikram-agentic/tradex/internal/models"
	"github.com/vikram-agentic/tradex/internal/news"
	gormrepository "github.com/vikram-agentic/tradex/internal/repository/gorm"
	"github.com/vikram-agentic/tradex/internal/scheduler"
)

func main() {
	cfgPath := os.Getenv("TRADEX_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("TRADEX_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	quoteCache, err := market.NewQuoteCache(cfg.Market.CacheTTL)
	if err != nil {
		logger.Fatal("quote cache init failed", zap.Error(err))
	}
	var alpacaQuotes *market.AlpacaClient
	if cfg.Market.APIKey != "" {
		alpacaQuotes = market.NewAlpacaClient(cfg.Market, logger)
	} else {
		logger.Warn("no market data credentials, running on synthetic quotes")
	}
	marketSvc := market.NewService(alpacaQuotes, quoteCache, logger)

	newsClient := news.NewNewsAPIClient(cfg.News, logger)
	newsSvc := news.NewService(newsClient, store, logger)

	var engine decision.Engine
	if anthropicEngine, derr := decision.NewAnthropicEngine(cfg.Decision, logger); derr == nil {
		engine = anthropicEngine
	} else {
		logger.Warn("decision engine not configured, agent cycles disabled", zap.Error(derr))
	}

	paperVenue := broker.NewPaperBroker(marketSvc)
	liveVenue := broker.NewAlpacaBroker(cfg.Broker, models.TradingModeLive, quoteSource{marketSvc}, logger)

	var orch *agent.Orchestrator
	var sched *scheduler.Scheduler
	if engine != nil {
		orch = &agent.Orchestrator{
			Store:  store,
			Quotes: marketSvc,
			News:   newsSvc,
			Engine: engine,
			BrokerFor: func(tradingMode string) broker.Broker {
				if tradingMode == models.TradingModeLive && cfg.Broker.APIKey != "" {
					return liveVenue
				}
				return paperVenue
			},
			MinConfidence: cfg.Orchestrator.MinConfidence,
			MaxErrors:     cfg.Orchestrator.MaxErrors,
			Logger:        logger,
		}
		sched = scheduler.New(orch, store, cfg.Scheduler.CycleInterval, logger)
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(router)

	agentHandler := &handler.AgentHandler{Repo: store}
	if sched != nil {
		agentHandler.Scheduler = sched
	}
	if orch != nil {
		agentHandler.Runner = orch
	}
	agentHandler.Register(router)

	tradeHandler := &handler.TradeHandler{Repo: store}
	tradeHandler.Register(router)
	actionHandler := &handler.ActionHandler{Repo: store}
	actionHandler.Register(router)
	notificationHandler := &handler.NotificationHandler{Repo: store}
	notificationHandler.Register(router)
	marketHandler := &handler.MarketHandler{Quotes: marketSvc}
	marketHandler.Register(router)
	newsHandler := &handler.NewsHandler{Repo: store, Refresher: newsSvc}
	newsHandler.Register(router)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)

	if sched != nil && cfg.Scheduler.Enabled {
		sched.SetBaseContext(ctx)
		sched.Reconcile(ctx)
		_, err = cronRunner.Add(cfg.Scheduler.ReconcileInterval, func(ctx context.Context) {
			sched.Reconcile(ctx)
		})
		if err != nil {
			logger.Warn("cron register reconcile failed", zap.Error(err))
		}
		defer sched.Shutdown()
	}

	_, err = cronRunner.Add(cfg.Scheduler.NewsRefresh, func(ctx context.Context) {
		if err := newsSvc.Refresh(ctx, market.SymbolsForMarketType(models.MarketBoth)); err != nil {
			logger.Warn("cron news refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Warn("cron register news refresh failed", zap.Error(err))
	}

	cronRunner.Start()
	defer cronRunner.Stop()

	if cfg.Market.Stream.Enabled && cfg.Market.APIKey != "" {
		stream := &market.QuoteStream{
			Config:  cfg.Market,
			Cache:   quoteCache,
			Symbols: market.SymbolsForMarketType(models.MarketStocks),
			Logger:  logger,
		}
		go func() {
			if err := stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("quote stream stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// quoteSource adapts the market service to the broker's quote interface.
type quoteSource struct {
	svc *market.Service
}

func (q quoteSource) Quote(ctx context.Context, symbol string) (decimal.Decimal, decimal.Decimal, error) {
	quotes, err := q.svc.GetQuotes(ctx, []string{symbol})
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	quote, ok := quotes[symbol]
	if !ok {
		return decimal.Zero, decimal.Zero, errors.New("no quote for " + symbol)
	}
	return quote.Bid, quote.Ask, nil
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

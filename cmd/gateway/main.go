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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	polymarketdata "insiderwatch/internal/client/polymarket/data"
	polymarketgamma "insiderwatch/internal/client/polymarket/gamma"
	"insiderwatch/internal/client/polymarket/stream"
	"insiderwatch/internal/config"
	cronrunner "insiderwatch/internal/cron"
	"insiderwatch/internal/handler"
	"insiderwatch/internal/insider"
	"insiderwatch/internal/logger"
	"insiderwatch/internal/political"
	"insiderwatch/internal/service"
	"insiderwatch/internal/signals"
	"insiderwatch/internal/store"

	_ "insiderwatch/docs"
)

// watchedMarketLimit bounds how many top-volume markets the live watcher
// subscribes to.
const watchedMarketLimit = 100

func main() {
	cfgPath := os.Getenv("IW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("IW_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log, "insiderwatch-gateway")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	candidateStore := store.NewCandidateStore(cfg.Storage.DataDir)
	classificationStore := store.NewClassificationStore(cfg.Storage.DataDir)
	signalSvc := signals.NewService(cfg.Storage.DataDir)

	dataHTTP := &http.Client{Timeout: cfg.DataAPI.Timeout}
	dataClient := polymarketdata.NewClient(dataHTTP, cfg.DataAPI.BaseURL)
	gammaHTTP := &http.Client{Timeout: cfg.Gamma.Timeout}
	gammaClient := polymarketgamma.NewClient(gammaHTTP, cfg.Gamma.BaseURL)

	classifier := political.NewClassifier()
	analyzer := &service.Analyzer{
		Provider:   dataClient,
		Extractor:  insider.NewExtractor(classifier),
		Candidates: candidateStore,
		Signals:    signalSvc,
		Logger:     logger,
	}
	scanner := &service.Scanner{
		Trades:     dataClient,
		Markets:    gammaClient,
		Analyzer:   analyzer,
		Candidates: candidateStore,
		Classifier: classifier,
		Logger:     logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORSMiddleware())
	engine.Use(handler.RequireBearerMiddleware(cfg.Server.BearerToken))

	healthHandler := &handler.HealthHandler{Candidates: candidateStore}
	healthHandler.Register(engine)
	insiderHandler := &handler.InsiderHandler{
		Analyzer:   analyzer,
		Scanner:    scanner,
		Candidates: candidateStore,
		Logger:     logger,
	}
	insiderHandler.Register(engine)
	signalHandler := &handler.SignalHandler{Service: signalSvc, Logger: logger}
	signalHandler.Register(engine)
	classificationHandler := &handler.ClassificationHandler{Store: classificationStore, Logger: logger}
	classificationHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled && cfg.Scan.Enabled {
		_, err := cronRunner.Add(cfg.Cron.PoliticalScan, func(ctx context.Context) {
			if err := scanner.ScanTopPolitical(ctx, cfg.Scan.MarketLimit, cfg.Scan.TradeLimit); err != nil {
				logger.Warn("cron political scan failed", zap.Error(err))
			}
		})
		if err != nil {
			logger.Warn("cron register political scan failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	if cfg.Watcher.Enabled {
		tradeStream := stream.NewTradeStream(stream.TradeStreamOptions{
			URL:             cfg.Watcher.URL,
			RefreshInterval: cfg.Watcher.RefreshInterval,
			Logger:          logger,
			AssetIDProvider: func(ctx context.Context) ([]string, error) {
				return topMarketAssetIDs(ctx, gammaClient)
			},
		})
		watcher := &service.TradeWatcher{
			Source:        tradeStream,
			Candidates:    candidateStore,
			Signals:       signalSvc,
			Logger:        logger,
			LargeTradeUSD: cfg.Watcher.LargeTradeUSD,
		}
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("trade watcher stopped", zap.Error(err))
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

// topMarketAssetIDs resolves the subscription set for the live watcher:
// token IDs of the highest-volume active markets.
func topMarketAssetIDs(ctx context.Context, gamma *polymarketgamma.Client) ([]string, error) {
	active := true
	closed := false
	markets, err := gamma.GetMarkets(ctx, polymarketgamma.GetMarketsParams{
		Active: &active,
		Closed: &closed,
		Order:  "volume24hr",
		Limit:  watchedMarketLimit,
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(markets)*2)
	for _, m := range markets {
		ids = append(ids, m.ClobTokenIDs...)
	}
	return ids, nil
}

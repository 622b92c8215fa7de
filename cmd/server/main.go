package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dgnsrekt/gexbot-analytics/internal/analysis"
	"github.com/dgnsrekt/gexbot-analytics/internal/config"
	"github.com/dgnsrekt/gexbot-analytics/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load server env
	srvCfg, err := config.LoadServerConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load server config: %v\n", err)
		return 1
	}

	// Setup logger
	zapConfig := zap.NewProductionConfig()
	zapConfig.DisableStacktrace = true
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(srvCfg.LogLevel)); err == nil {
		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	// Load analysis config
	cfg, err := config.Load(srvCfg.ConfigPath)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	analyzer, err := analysis.FromConfig(cfg, logger)
	if err != nil {
		logger.Error("failed to build analyzer", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", srvCfg.Port),
		zap.Float64("rateLimit", srvCfg.RateLimit),
		zap.Int("burst", srvCfg.Burst),
		zap.Int64("maxBodyBytes", srvCfg.MaxBodyBytes),
		zap.String("signConvention", cfg.Engine.SignConvention),
		zap.Float64("riskFreeRate", cfg.Engine.RiskFreeRate),
		zap.Float64("contractMultiplier", cfg.Engine.ContractMultiplier),
	)

	// Create router
	router, err := server.NewRouter(server.NewServer(analyzer, srvCfg, logger), logger)
	if err != nil {
		logger.Error("failed to create router", zap.Error(err))
		return 1
	}

	// Setup HTTP server
	httpServer := &http.Server{
		Addr:         ":" + srvCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	logger.Info("shutting down server...")

	// Graceful HTTP server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}

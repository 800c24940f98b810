// Command gosubd runs a headless engine and exposes its event stream to
// hosts over WebSocket, plus Prometheus metrics over HTTP. It is the
// reference embedding: everything it does goes through the public handle
// and event contracts.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gosub-io/gosub-engine/internal/engine"
	"github.com/gosub-io/gosub-engine/internal/infrastructure/config"
	"github.com/gosub-io/gosub-engine/internal/infrastructure/monitoring"
	"github.com/gosub-io/gosub-engine/internal/logging"
	"github.com/gosub-io/gosub-engine/internal/render"
	"github.com/gosub-io/gosub-engine/internal/ws"
)

func main() {
	cfg := config.LoadOrDefault()

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		logger = logging.NewDefault()
	}
	defer logger.Sync()

	metrics := monitoring.NewMetrics()

	eng, handle := engine.New(cfg, render.NewNullBackend(),
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
	)

	stream, err := eng.Events()
	if err != nil {
		logger.Fatal("claim event stream", zap.Error(err))
	}

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := eng.Run(); err != nil {
			logger.Error("engine loop", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A default zone with one blank tab so subscribers see life
	// immediately.
	zone, err := handle.CreateZone(ctx, engine.ZoneConfig{Title: "default"}, engine.ZoneServices{})
	if err != nil {
		logger.Fatal("create default zone", zap.Error(err))
	}
	if _, err := zone.CreateTab(ctx, engine.TabConfig{InitialURL: "about:blank"}); err != nil {
		logger.Warn("create initial tab", zap.Error(err))
	}

	bridge := ws.NewHandler(stream, logger, metrics, cfg.Server.FrameRate)
	go func() {
		if err := bridge.Pump(ctx); err != nil {
			logger.Info("event pump stopped", zap.Error(err))
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), monitoring.Middleware(metrics))

	router.GET("/health", func(c *gin.Context) {
		metrics.UpdateUptime()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/events", bridge.HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/zone", func(c *gin.Context) {
		info, err := zone.Info(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, info)
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := handle.Shutdown(shutdownCtx); err != nil {
		logger.Warn("engine shutdown", zap.Error(err))
	}
	<-engineDone

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

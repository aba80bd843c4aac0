package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pvbess-model/internal/api"
	"pvbess-model/internal/api/handlers"
	"pvbess-model/internal/data"
	"pvbess-model/internal/logging"
	"pvbess-model/internal/metrics"
	"pvbess-model/internal/store"
)

const janitorInterval = time.Minute

func main() {
	logger := logging.New("api")
	if err := run(logger); err != nil {
		logger.Errorf("api: %v", err)
		os.Exit(1)
	}
}

func run(logger logging.Logger) error {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ttl := 24 * time.Hour
	if raw := os.Getenv("RUN_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("RUN_TTL: %w", err)
		}
		ttl = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runs, err := store.Open(ctx, store.Options{
		Kind: os.Getenv("RUN_STORE"),
		Path: os.Getenv("RUN_STORE_PATH"),
		TTL:  ttl,
	})
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer runs.Close()
	switch s := runs.(type) {
	case *store.MemoryStore:
		s.StartJanitor(ctx, janitorInterval)
	case *store.SQLiteStore:
		s.SetLogger(logging.New("store"))
		go purgeLoop(ctx, s, logger)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	sink, err := metrics.NewPromSink(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	timelineDir := os.Getenv("TIMELINE_DIR")
	if timelineDir == "" {
		timelineDir = filepath.Join("examples", "timelines")
	}
	timelines := data.NewTimelineCache(time.Hour)
	timelines.StartJanitor(ctx, janitorInterval)
	plantDir := handlers.DefaultPlantDir()
	logger.Infof("plants from %s, timelines from %s", plantDir, timelineDir)

	accessLog := logging.Zerolog("http", logging.Options{})
	router := api.NewRouter(api.Options{
		PlantDir:    plantDir,
		TimelineDir: timelineDir,
		Store:       runs,
		Timelines:   timelines,
		Gatherer:    reg,
		Recorder:    sink,
		Logger:      logger,
		AccessLog:   &accessLog,
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting API server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func purgeLoop(ctx context.Context, s *store.SQLiteStore, logger logging.Logger) {
	t := time.NewTicker(janitorInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.Purge(ctx)
			if err != nil {
				logger.Warnf("purge expired runs: %v", err)
				continue
			}
			if n > 0 {
				logger.Debugf("purged %d expired runs", n)
			}
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/pcap-insight/internal/application"
	appanalyses "github.com/bryanwahyu/pcap-insight/internal/application/analyses"
	"github.com/bryanwahyu/pcap-insight/internal/config"
	"github.com/bryanwahyu/pcap-insight/internal/infra/db"
	"github.com/bryanwahyu/pcap-insight/internal/infra/generator/synthetic"
	"github.com/bryanwahyu/pcap-insight/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/pcap-insight/internal/infra/storage"
	"github.com/bryanwahyu/pcap-insight/internal/logger"
	"github.com/bryanwahyu/pcap-insight/internal/metrics"
	"github.com/bryanwahyu/pcap-insight/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	out, logCloser := logger.Output(logger.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer logCloser.Close()
	logger.Init(cfg.Log.Debug, out)
	log := logger.Log()

	if err := run(cfg); err != nil {
		log.WithError(err).Error("server stopped")
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.Log()
	ctx := context.Background()
	clock := application.SystemClock{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	// init store
	store, err := db.Open(ctx, cfg, clock)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	checkers := map[string]middleware.HealthChecker{}
	if store.SQL != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: store.SQL}
	}

	// init service
	svc := &appanalyses.Service{
		Repo:      store.Repo,
		Generator: synthetic.New(cfg.Analyzer.Delay, clock),
	}

	// init minio (optional)
	if cfg.MinioEnabled() {
		captures, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		svc.Captures = captures
		log.WithFields(logrus.Fields{"bucket": cfg.Minio.BucketName}).Info("capture archive enabled")
	}

	handler := httpserver.NewRouter(svc, httpserver.Options{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		APIKeys:        cfg.Auth.APIKeys,
		RateCapacity:   cfg.RateLimit.Capacity,
		RateRefill:     cfg.RateLimit.RefillPerSecond,
		Checkers:       checkers,
		Gatherer:       reg,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "store": store.Driver}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx2)
}

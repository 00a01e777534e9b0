package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/anBertoli/slice-vault/pkg/render"
	"github.com/anBertoli/slice-vault/pkg/store"
	"github.com/anBertoli/slice-vault/services/slices"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if cfg.DisplayVersion {
		fmt.Printf("API version: %s\n", version)
		return
	}

	logger := makeLogger(cfg.Env == "dev").Sugar()
	defer logger.Sync()

	storage, err := openStore(cfg)
	if err != nil {
		logger.Fatalw("opening object store", "driver", cfg.Storage.Driver, "err", err)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			logger.Errorw("closing object store", "err", err)
		}
	}()
	logger.Infow("connected to bucket", "driver", cfg.Storage.Driver, "bucket", cfg.Storage.Bucket)

	// Every metric of the application is registered on its own registry, the
	// same one exposed by the metrics endpoint.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	slicesService, err := newSlicesService(cfg, storage, logger, registry)
	if err != nil {
		logger.Fatalw("creating slices service", "err", err)
	}

	app, err := newApplication(cfg, slicesService, logger, registry)
	if err != nil {
		logger.Fatalw("creating application", "err", err)
	}

	err = app.serve()
	if err != nil {
		logger.Errorw("shutting down server", "err", err)
	}
}

// Open the configured object store and make sure the bucket exists before
// serving any request.
func openStore(cfg config) (*store.BlobStore, error) {
	storage, err := store.New(cfg.Storage.Config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = storage.EnsureBucket(ctx, cfg.Storage.Bucket)
	if err != nil {
		storage.Close()
		return nil, err
	}
	return storage, nil
}

// Build the slices service wrapped in its middlewares. The validation middleware
// is the outermost one, so that invalid requests don't reach the metrics.
func newSlicesService(cfg config, st store.ObjectStore, logger *zap.SugaredLogger, reg prometheus.Registerer) (slices.Service, error) {
	renderer := render.New(render.WithCanvas(cfg.Render.Width, cfg.Render.Height))

	var slicesService slices.Service
	slicesService = slices.NewSlicesService(st, renderer, logger, slices.Config{
		Bucket:      cfg.Storage.Bucket,
		TargetWidth: cfg.Resize.TargetWidth,
		KeyPrefix:   cfg.Resize.KeyPrefix,
		MaxBytes:    cfg.Resize.MaxUploadBytes,
	})
	metricsMiddleware, err := slices.NewMetricsMiddleware(slicesService, reg)
	if err != nil {
		return nil, err
	}
	slicesService = &slices.ValidationMiddleware{Next: metricsMiddleware}
	return slicesService, nil
}

func makeLogger(dev bool) *zap.Logger {
	var zapLogger *zap.Logger
	if dev {
		config := zap.NewDevelopmentEncoderConfig()
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncodeTime = zapcore.ISO8601TimeEncoder
		zapLogger = zap.New(
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(config), os.Stdout, zap.DebugLevel,
			),
		)
	} else {
		config := zap.NewProductionEncoderConfig()
		config.EncodeTime = zapcore.ISO8601TimeEncoder
		zapLogger = zap.New(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(config), os.Stdout, zap.InfoLevel,
			),
		)
	}
	return zapLogger
}

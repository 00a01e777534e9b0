package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/anBertoli/slice-vault/services/slices"
)

type application struct {
	slices    slices.Service
	logger    *zap.SugaredLogger
	registry  *prometheus.Registry
	templates *template.Template
	config    config
}

func newApplication(cfg config, slicesService slices.Service, logger *zap.SugaredLogger, registry *prometheus.Registry) (*application, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &application{
		slices:    slicesService,
		logger:    logger,
		registry:  registry,
		templates: templates,
		config:    cfg,
	}, nil
}

func (app *application) handler() (http.Handler, error) {
	router := mux.NewRouter()

	router.Methods(http.MethodGet).Path("/").HandlerFunc(app.fileSelectorHandler)
	router.Methods(http.MethodPost).Path("/upload-file").HandlerFunc(app.uploadFileHandler)
	router.Methods(http.MethodGet).Path("/list-files").HandlerFunc(app.listFilesHandler)
	router.Methods(http.MethodGet).Path("/display-image/{file_name}").HandlerFunc(app.displayImageHandler)
	router.Methods(http.MethodGet).Path("/view-image/{file_name}").HandlerFunc(app.viewImageHandler)

	router.Methods(http.MethodGet).Path("/v1/healthcheck").HandlerFunc(app.healthcheckHandler)
	router.Methods(http.MethodGet).Path(app.config.Metrics.MetricsEndpoint).Handler(
		promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}),
	)

	router.Use(routeRecorder)
	router.NotFoundHandler = http.HandlerFunc(app.routeNotFoundHandler)
	router.MethodNotAllowedHandler = http.HandlerFunc(app.methodNotAllowedHandler)

	var handler http.Handler = router
	handler = app.rateLimit(handler)
	handler = app.enableCORS(handler)
	handler = app.recoverPanic(handler)

	metrics, err := app.metrics(handler)
	if err != nil {
		return nil, err
	}
	handler = app.logging(metrics)
	return handler, nil
}

// The CORS policy is applied by rs/cors, configured with the trusted origins of
// the application. Credentials are only allowed for explicit origins.
func (app *application) enableCORS(next http.Handler) http.Handler {
	allowCredentials := true
	for _, origin := range app.config.Cors.TrustedOrigins {
		if origin == "*" {
			allowCredentials = false
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   app.config.Cors.TrustedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: allowCredentials,
	})
	return c.Handler(next)
}

func (app *application) serve() error {
	handler, err := app.handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.Address, app.config.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		app.logger.Infow("shutting down server", "signal", s.String())

		// Give the in-flight requests 5 seconds to complete. Shutdown() returns an
		// error if the deadline is hit, we relay it to the shutdownError channel.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		shutdownError <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("starting server",
		"addr", srv.Addr,
		"env", app.config.Env,
	)

	// Calling Shutdown() on our server will cause ListenAndServe() to immediately
	// return a http.ErrServerClosed error. So if we see this error, it is actually a
	// good thing and an indication that the graceful shutdown has started.
	err = srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Infow("stopped server", "addr", srv.Addr)
	return nil
}

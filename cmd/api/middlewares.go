package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/anBertoli/slice-vault/pkg/tracing"
)

// The tracing middleware puts a request trace into the request context. If a trace is
// already present the middleware acts as a no-op.
func (app *application) tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqTrace := tracing.TraceFromRequestCtx(r)
		if reqTrace.ID == tracing.AnonymousID {
			r = tracing.NewRequestWithTrace(r)
		}
		next.ServeHTTP(w, r)
	})
}

// The logging middleware is used to log incoming requests and related outgoing responses.
// Before passing the control to the next http handler the incoming request is logged.
// Another log is emitted for outgoing responses, using the (possibly) enriched
// request trace.
func (app *application) logging(next http.Handler) http.Handler {

	// Wrap the returned middleware in the tracing middleware, that is, before invoking
	// the function call the tracing function logic.
	return app.tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestTrace := tracing.TraceFromRequestCtx(r)

		if r.URL.Path == app.config.Metrics.MetricsEndpoint {
			next.ServeHTTP(w, r)
			return
		}

		ip, err := realIP(r)
		if err != nil {
			app.logger.Errorw("retrieving real IP",
				"id", requestTrace.ID,
				"err", err,
			)
		}

		fields := []interface{}{
			"id", requestTrace.ID,
			"remote_addr", r.RemoteAddr,
			"real_ip", ip,
			"URL", r.URL,
			"method", r.Method,
		}
		if r.ContentLength > 0 {
			fields = append(fields, "size", humanize.Bytes(uint64(r.ContentLength)))
		}
		app.logger.Infow("incoming request", fields...)

		// Pass the request to the next handler.
		next.ServeHTTP(w, r)

		// After the request handling produce another log. Handlers which don't set
		// the status explicitly answered with a 200. Logs are produced with different
		// severity based on the HTTP code of the response.
		if requestTrace.HttpStatus == 0 {
			requestTrace.HttpStatus = http.StatusOK
		}
		end := time.Now().UTC()
		fields = []interface{}{
			"id", requestTrace.ID,
			"http_code", requestTrace.HttpStatus,
			"duration_ms", end.Sub(requestTrace.Start).Milliseconds(),
		}
		if requestTrace.Err != nil {
			fields = append(fields, "err", requestTrace.Err)
		}

		switch requestTrace.HttpStatus / 100 {
		case 0, 1, 2, 3:
			app.logger.Infow("request completed", fields...)
		case 4:
			app.logger.Warnw("request completed", fields...)
		default:
			app.logger.Errorw("request error", fields...)
		}
	}))
}

// The metrics middleware is used to register metrics (scraped by Prometheus) of incoming HTTP
// requests: the count of the HTTP requests (divided by route and HTTP code) and the latency
// of the responses (divided by route). The scraping endpoint itself is not monitored.
// Routes are identified by their template, so that file names don't blow up the
// cardinality of the metrics.
func (app *application) metrics(next http.Handler) (http.Handler, error) {
	requestCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_http_request",
			Help: "Counter of HTTP requests.",
		},
		[]string{"path", "code"},
	)
	if err := app.registry.Register(requestCount); err != nil {
		return nil, err
	}

	requestsLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_http_requests_duration_milliseconds",
			Help:    "Histogram of latencies for HTTP requests",
			Buckets: []float64{0.1, 1, 10, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"path"},
	)
	if err := app.registry.Register(requestsLatency); err != nil {
		return nil, err
	}

	return app.tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestTrace := tracing.TraceFromRequestCtx(r)

		// The router fills the matched route in the request it receives, which is a
		// copy of this one: keep a pointer to read it back once the request is served.
		route := &routeTemplate{}
		next.ServeHTTP(w, r.WithContext(withRouteTemplate(r.Context(), route)))

		path := route.template
		if path == "" {
			path = "unmatched"
		}
		if path == app.config.Metrics.MetricsEndpoint {
			return
		}

		status := requestTrace.HttpStatus
		if status == 0 {
			status = http.StatusOK
		}
		requestCount.WithLabelValues(path, strconv.Itoa(status)).Inc()
		requestsLatency.WithLabelValues(path).Observe(float64(time.Since(requestTrace.Start).Milliseconds()))
	})), nil
}

// The recoverPanic middleware converts a panic in the handlers chain into a 500
// response, closing the connection after the response is sent.
func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.serverErrorResponse(w, r, fmt.Errorf("panic: %v", err))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// This middleware is a wrapper around the two possibles rate-limiting middlewares.
// App configuration will dictate which strategy is applied. It is a no-op if
// rate-limiting is not enabled.
func (app *application) rateLimit(next http.Handler) http.Handler {
	if !app.config.RateLimit.Enabled {
		return next
	}

	if app.config.RateLimit.PerIp {
		return app.ipRateLimit(next)
	}
	return app.globalRateLimit(next)
}

// The globalRateLimit middleware allows an average of 'rps' requests per second, with
// a maximum of 'burst' requests in a single burst, across every client.
func (app *application) globalRateLimit(next http.Handler) http.Handler {
	limiter := rate.NewLimiter(
		rate.Limit(app.config.RateLimit.Rps),
		app.config.RateLimit.Burst,
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			app.rateLimitExceededResponse(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// The per-IP rate-limiting only makes sense if the application is directly exposed
// to clients. Behind a load balancer the limit should be enforced by the proxy.
func (app *application) ipRateLimit(next http.Handler) http.Handler {
	type ipLimiter struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	// The map of IPs -> ipLimiters is protected by a mutex. A background goroutine
	// removes the clients not seen in the last three minutes, once every minute.
	var (
		mu      sync.Mutex
		clients = make(map[string]*ipLimiter)
	)

	go func() {
		for {
			time.Sleep(time.Minute)
			mu.Lock()
			for ip, client := range clients {
				if time.Since(client.lastSeen) > 3*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := realIP(r)
		if err != nil {
			app.serverErrorResponse(w, r, err)
			return
		}

		mu.Lock()
		client, found := clients[ip]
		if !found {
			client = &ipLimiter{
				limiter: rate.NewLimiter(
					rate.Limit(app.config.RateLimit.Rps),
					app.config.RateLimit.Burst,
				),
			}
			clients[ip] = client
		}
		client.lastSeen = time.Now()

		// Don't defer the unlock, the mutex must be released before calling the
		// next handlers of the chain.
		if !client.limiter.Allow() {
			mu.Unlock()
			app.rateLimitExceededResponse(w, r)
			return
		}
		mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func realIP(r *http.Request) (string, error) {
	if addr := r.Header.Get("X-Real-Ip"); addr != "" {
		return addr, nil
	}
	if addr := r.Header.Get("X-Forwarded-For"); addr != "" {
		first, _, _ := strings.Cut(addr, ",")
		return strings.TrimSpace(first), nil
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	return ip, nil
}

// Matched route template, filled by the routeRecorder middleware of the router.
type routeTemplate struct {
	template string
}

type routeTemplateKey struct{}

func withRouteTemplate(ctx context.Context, rt *routeTemplate) context.Context {
	return context.WithValue(ctx, routeTemplateKey{}, rt)
}

// The routeRecorder is installed as a router middleware: it runs after the route has
// been matched and stores its path template for the metrics middleware.
func routeRecorder(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rt, ok := r.Context().Value(routeTemplateKey{}).(*routeTemplate); ok {
			if route := mux.CurrentRoute(r); route != nil {
				rt.template, _ = route.GetPathTemplate()
			}
		}
		next.ServeHTTP(w, r)
	})
}

package slices

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/anBertoli/slice-vault/pkg/render"
	"github.com/anBertoli/slice-vault/pkg/store"
	"github.com/anBertoli/slice-vault/pkg/validator"
	"github.com/anBertoli/slice-vault/pkg/welllog"
)

// The MetricsMiddleware records, for every operation of the service, the number
// of calls by outcome and their duration. Successful uploads also record the
// number of rows of the stored tables.
type MetricsMiddleware struct {
	Next Service

	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     prometheus.Histogram
}

func NewMetricsMiddleware(next Service, reg prometheus.Registerer) (*MetricsMiddleware, error) {
	mm := &MetricsMiddleware{
		Next: next,
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slices_operations_total",
				Help: "Counter of slices service operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slices_operation_duration_milliseconds",
				Help:    "Histogram of slices service operation latencies.",
				Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
			[]string{"operation"},
		),
		rows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "slices_uploaded_rows",
				Help:    "Histogram of the number of depth rows of uploaded files.",
				Buckets: prometheus.ExponentialBuckets(100, 2, 10),
			},
		),
	}

	for _, c := range []prometheus.Collector{mm.calls, mm.duration, mm.rows} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return mm, nil
}

func (mm *MetricsMiddleware) Upload(ctx context.Context, filename string, reader io.Reader) (File, error) {
	start := time.Now()
	file, err := mm.Next.Upload(ctx, filename, reader)
	mm.observe("upload", start, err)
	if err == nil {
		mm.rows.Observe(float64(file.Rows))
	}
	return file, err
}

func (mm *MetricsMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	keys, err := mm.Next.List(ctx)
	mm.observe("list", start, err)
	return keys, err
}

func (mm *MetricsMiddleware) Render(ctx context.Context, key string, depthRange *welllog.DepthRange) ([]byte, error) {
	start := time.Now()
	img, err := mm.Next.Render(ctx, key, depthRange)
	mm.observe("render", start, err)
	return img, err
}

func (mm *MetricsMiddleware) observe(operation string, start time.Time, err error) {
	mm.calls.WithLabelValues(operation, Outcome(err)).Inc()
	mm.duration.WithLabelValues(operation).Observe(float64(time.Since(start).Milliseconds()))
}

// Outcome classifies the error returned by the service, "ok" for a nil error.
func Outcome(err error) string {
	var v validator.Validator
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &v):
		return "invalid"
	case errors.Is(err, welllog.ErrDecode):
		return "decode_error"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.Is(err, ErrEmptySelection), errors.Is(err, ErrDepthUnavailable):
		return "bad_selection"
	case errors.Is(err, render.ErrRender), errors.Is(err, render.ErrEmpty):
		return "render_error"
	default:
		return "error"
	}
}

package slices

import (
	"context"
	"errors"
	"io"

	"github.com/anBertoli/slice-vault/pkg/welllog"
)

// Public interface for the slices service. The service is exposed
// via transport-specific adapters, e.g. the JSON-HTTP api and the CLI.
type Service interface {
	Upload(ctx context.Context, filename string, reader io.Reader) (File, error)
	List(ctx context.Context) ([]string, error)
	Render(ctx context.Context, key string, depthRange *welllog.DepthRange) ([]byte, error)
}

// File summarizes a stored, resized well-log image.
type File struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Rows     int     `json:"rows"`
	Width    int     `json:"width"`
	MinDepth float64 `json:"min_depth"`
	MaxDepth float64 `json:"max_depth"`
	Size     int64   `json:"size"`
}

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptySelection    = errors.New("no rows in the requested depth range")
	ErrDepthUnavailable  = errors.New("depth information not available for this file")
	ErrTooLarge          = errors.New("file too large")
)

// This checks makes sure that all service implementation remain
// valid while we refactor our code.
var _ Service = &SlicesService{}
var _ Service = &ValidationMiddleware{}
var _ Service = &MetricsMiddleware{}

package slices

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/anBertoli/slice-vault/pkg/render"
	"github.com/anBertoli/slice-vault/pkg/store"
	"github.com/anBertoli/slice-vault/pkg/tracing"
	"github.com/anBertoli/slice-vault/pkg/welllog"
)

const (
	DefaultKeyPrefix = "resized_"
	DefaultMaxBytes  = 1024 * 1024 * 50
)

// Config holds the tunables of the slices service. Zero values are replaced
// by the defaults.
type Config struct {
	Bucket      string
	TargetWidth int
	KeyPrefix   string
	MaxBytes    int64
}

func NewSlicesService(st store.ObjectStore, renderer *render.Renderer, logger *zap.SugaredLogger, cfg Config) *SlicesService {
	if cfg.TargetWidth <= 0 {
		cfg.TargetWidth = welllog.DefaultTargetWidth
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if renderer == nil {
		renderer = render.New()
	}
	return &SlicesService{
		store:    st,
		renderer: renderer,
		logger:   logger,
		config:   cfg,
	}
}

// The SlicesService resizes uploaded well-log images, saves them into the object
// store and renders stored files back as false-color images. The service is
// stateless: every call works on its own copy of the data, the store being the
// only shared resource.
type SlicesService struct {
	store    store.ObjectStore
	renderer *render.Renderer
	logger   *zap.SugaredLogger
	config   Config
}

// Upload decodes the uploaded table, resizes its pixel columns to the target
// width keeping the depth column aligned and saves the result, CSV encoded,
// under the prefixed filename.
func (ss *SlicesService) Upload(ctx context.Context, filename string, reader io.Reader) (File, error) {
	logger := ss.logger.With("id", tracing.TraceFromCtx(ctx).ID)

	data, err := io.ReadAll(io.LimitReader(reader, ss.config.MaxBytes+1))
	if err != nil {
		return File{}, err
	}
	if int64(len(data)) > ss.config.MaxBytes {
		return File{}, ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !isText(mtype) {
		return File{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}

	table, err := welllog.Decode(bytes.NewReader(data))
	if err != nil {
		return File{}, err
	}
	resized, err := welllog.Resize(table, ss.config.TargetWidth)
	if err != nil {
		return File{}, err
	}

	var buf bytes.Buffer
	err = welllog.Encode(&buf, resized)
	if err != nil {
		return File{}, err
	}

	key := ss.config.KeyPrefix + filename
	err = ss.store.Put(ctx, ss.config.Bucket, key, buf.Bytes())
	if err != nil {
		return File{}, err
	}

	minDepth, maxDepth, _ := resized.DepthBounds()
	file := File{
		Key:      key,
		Name:     filename,
		Rows:     resized.Rows(),
		Width:    resized.Width(),
		MinDepth: minDepth,
		MaxDepth: maxDepth,
		Size:     int64(buf.Len()),
	}

	logger.Infow("resized file uploaded",
		"bucket", ss.config.Bucket,
		"key", key,
		"rows", file.Rows,
		"width_in", table.Width(),
		"width_out", file.Width,
		"size_in", humanize.Bytes(uint64(len(data))),
		"size_out", humanize.Bytes(uint64(file.Size)),
	)
	return file, nil
}

// List returns the keys of every stored file.
func (ss *SlicesService) List(ctx context.Context) ([]string, error) {
	return ss.store.List(ctx, ss.config.Bucket)
}

// Render loads a stored file and renders it, restricted to the depth range if
// one is provided. Tables are rendered from their pixel columns. Plain PNG
// objects (saved without depth information) are rendered from their
// luminance and cannot be restricted to a depth range.
func (ss *SlicesService) Render(ctx context.Context, key string, depthRange *welllog.DepthRange) ([]byte, error) {
	data, err := ss.store.Get(ctx, ss.config.Bucket, key)
	if err != nil {
		return nil, err
	}

	var pixels mat.Matrix
	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("image/png"):
		if depthRange != nil {
			return nil, ErrDepthUnavailable
		}
		pixels, err = decodeRaster(data)
		if err != nil {
			return nil, err
		}

	case isText(mtype):
		table, err := welllog.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		if depthRange != nil {
			table = welllog.Select(table, *depthRange)
			if table.Empty() {
				return nil, ErrEmptySelection
			}
		}
		pixels = table.Pixels

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}

	return ss.renderer.Render(pixels)
}

// Tables are plain text, detected either as CSV or as a generic text file
// (e.g. a single line table).
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// Convert a PNG image into a matrix of luminance values in [0, 255].
func decodeRaster(data []byte) (*mat.Dense, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedFormat)
	}

	m := mat.NewDense(bounds.Dy(), bounds.Dx(), nil)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := m.RawRowView(y - bounds.Min.Y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			row[x-bounds.Min.X] = float64(g.Y) / 257
		}
	}
	return m, nil
}

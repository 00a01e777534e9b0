package slices

import (
	"context"
	"io"

	"github.com/anBertoli/slice-vault/pkg/validator"
	"github.com/anBertoli/slice-vault/pkg/welllog"
)

// The ValidationMiddleware checks the input of the client before handing the
// call to the next service. Invalid input is reported with a validator.Validator
// error, which the transport layer converts into a field-by-field response.
type ValidationMiddleware struct {
	Next Service
}

func (vm *ValidationMiddleware) Upload(ctx context.Context, filename string, reader io.Reader) (File, error) {
	v := validator.New()
	validator.ValidateFilename(v, filename)
	if !v.Ok() {
		return File{}, v
	}
	return vm.Next.Upload(ctx, filename, reader)
}

func (vm *ValidationMiddleware) List(ctx context.Context) ([]string, error) {
	return vm.Next.List(ctx)
}

func (vm *ValidationMiddleware) Render(ctx context.Context, key string, depthRange *welllog.DepthRange) ([]byte, error) {
	v := validator.New()
	validator.ValidateKey(v, key)
	if depthRange != nil {
		validator.ValidateDepth(v, "start", depthRange.Start)
		validator.ValidateDepth(v, "end", depthRange.End)
	}
	if !v.Ok() {
		return nil, v
	}
	return vm.Next.Render(ctx, key, depthRange)
}

package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anBertoli/slice-vault/pkg/render"
	"github.com/anBertoli/slice-vault/pkg/store"
	"github.com/anBertoli/slice-vault/pkg/validator"
	"github.com/anBertoli/slice-vault/pkg/welllog"
	"github.com/anBertoli/slice-vault/services/slices"
)

func (app *application) encodeError(w http.ResponseWriter, r *http.Request, err error) {
	v := validator.New()
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &v):
		app.failedValidationResponse(w, r, v)

	// upload errors
	case errors.As(err, &maxBytesErr), errors.Is(err, slices.ErrTooLarge):
		app.tooLargeResponse(w, r, err)
	case errors.Is(err, welllog.ErrDecode):
		app.malformedTableResponse(w, r, err)
	case errors.Is(err, slices.ErrUnsupportedFormat):
		app.unsupportedFormatResponse(w, r, err)

	// store errors
	case errors.Is(err, store.ErrNotFound):
		app.notFoundResponse(w, r)

	// render errors
	case errors.Is(err, slices.ErrEmptySelection):
		app.emptySelectionResponse(w, r)
	case errors.Is(err, slices.ErrDepthUnavailable):
		app.depthUnavailableResponse(w, r)
	case errors.Is(err, render.ErrRender):
		app.renderFailedResponse(w, r, err)

	// default to 500 errors
	default:
		app.serverErrorResponse(w, r, err)
	}
}

// These are generic responses given back to the user. Below there are more specific
// error responses that may utilize the same HTTP code but differ for the returned message.
func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.sendJSONError(w, r, errResponse{
		message: "the server encountered a problem and could not process your request",
		status:  http.StatusInternalServerError,
		err:     err,
	})
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	err := errors.New("the requested resource could not be found")
	app.sendJSONError(w, r, errResponse{
		message: err.Error(),
		status:  http.StatusNotFound,
		err:     err,
	})
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.sendJSONError(w, r, errResponse{
		message: err.Error(),
		status:  http.StatusBadRequest,
		err:     err,
	})
}

// Errors responses used by the router.
func (app *application) routeNotFoundHandler(w http.ResponseWriter, r *http.Request) {
	err := errors.New("the requested API endpoint doesn't exist")
	app.sendJSONError(w, r, errResponse{
		message: err.Error(),
		status:  http.StatusNotFound,
		err:     err,
	})
}

func (app *application) methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	err := fmt.Errorf("the %s method is not supported for this endpoint", r.Method)
	app.sendJSONError(w, r, errResponse{
		message: err.Error(),
		status:  http.StatusMethodNotAllowed,
		err:     err,
	})
}

// More specific error responses.
func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors validator.Validator) {
	app.sendJSONError(w, r, errResponse{
		message: errors,
		status:  http.StatusUnprocessableEntity,
		err:     errors,
	})
}

func (app *application) malformedTableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.sendJSONError(w, r, errResponse{
		message: fmt.Sprintf("the uploaded table is malformed: %v", err),
		status:  http.StatusBadRequest,
		err:     err,
	})
}

func (app *application) unsupportedFormatResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.sendJSONError(w, r, errResponse{
		message: err.Error(),
		status:  http.StatusUnsupportedMediaType,
		err:     err,
	})
}

func (app *application) tooLargeResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.sendJSONError(w, r, errResponse{
		message: fmt.Sprintf("the uploaded file must not be larger than %d bytes", app.config.Resize.MaxUploadBytes),
		status:  http.StatusRequestEntityTooLarge,
		err:     err,
	})
}

func (app *application) emptySelectionResponse(w http.ResponseWriter, r *http.Request) {
	err := errors.New("no rows in depth range")
	app.sendJSONError(w, r, errResponse{
		message: err.Error(),
		status:  http.StatusNotFound,
		err:     slices.ErrEmptySelection,
	})
}

func (app *application) depthUnavailableResponse(w http.ResponseWriter, r *http.Request) {
	app.sendJSONError(w, r, errResponse{
		message: map[string]string{"start": slices.ErrDepthUnavailable.Error()},
		status:  http.StatusUnprocessableEntity,
		err:     slices.ErrDepthUnavailable,
	})
}

func (app *application) renderFailedResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.sendJSONError(w, r, errResponse{
		message: "rendering failed",
		status:  http.StatusInternalServerError,
		err:     err,
	})
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	err := errors.New("rate limit exceeded")
	app.sendJSONError(w, r, errResponse{
		message: err.Error(),
		status:  http.StatusTooManyRequests,
		err:     err,
	})
}

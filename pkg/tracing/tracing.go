package tracing

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// The tracing package provides request tracing via a RequestTrace struct shared via
// contexts. Note that by using the function of this package, other parts of the
// application could safely retrieve an anonymous trace from a context even if
// was not set before.

// Define a private type to avoid collisions in the context values...
type privateKey string

// ...and declare a const of that type.
const requestTraceKey privateKey = "requestTrace"

const AnonymousID = "<no request id>"

// Will contain several data about the request lifecycle. Handlers fill the
// status, the public message and the private error, the logging middleware
// reports them once the response is sent.
type RequestTrace struct {
	ID         string
	Start      time.Time
	HttpStatus int
	Message    interface{}
	Err        error
}

// Enrich the HTTP request with a newly initialized trace.
func NewRequestWithTrace(r *http.Request) *http.Request {
	trace := RequestTrace{
		ID:    uuid.NewString(),
		Start: time.Now().UTC(),
	}
	return TraceToRequestCtx(r, &trace)
}

// Put a trace into an HTTP request.
func TraceToRequestCtx(r *http.Request, tr *RequestTrace) *http.Request {
	return r.WithContext(TraceToCtx(r.Context(), tr))
}

// Get a trace into an HTTP request. If the request context doesn't have any
// trace return a default trace with no ID.
func TraceFromRequestCtx(r *http.Request) *RequestTrace {
	return TraceFromCtx(r.Context())
}

// Put a trace into a context object.
func TraceToCtx(ctx context.Context, tr *RequestTrace) context.Context {
	return context.WithValue(ctx, requestTraceKey, tr)
}

// Retrieve a trace from a context object. If the context doesn't have any trace
// return a default trace with no ID.
func TraceFromCtx(ctx context.Context) *RequestTrace {
	if trace, ok := ctx.Value(requestTraceKey).(*RequestTrace); ok {
		return trace
	}
	return &RequestTrace{
		ID: AnonymousID,
	}
}

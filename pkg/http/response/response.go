package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/chainlaunch/asset-gateway/pkg/errors"
	apihttp "github.com/chainlaunch/asset-gateway/pkg/http"
	"github.com/chainlaunch/asset-gateway/pkg/logger"
	"github.com/chainlaunch/asset-gateway/pkg/metrics"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler is a custom type for http handlers that can return errors
type Handler func(w http.ResponseWriter, r *http.Request) error

// Middleware converts our custom handler to standard http.HandlerFunc
func Middleware(h Handler) http.HandlerFunc {
	return NewWrapper(nil, nil).Wrap(h)
}

// Wrapper converts handler errors into responses, logging and counting each
// one by kind.
type Wrapper struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewWrapper(log *logger.Logger, m *metrics.Metrics) *Wrapper {
	if log == nil {
		log = logger.NewNop()
	}
	return &Wrapper{logger: log, metrics: m}
}

func (wr *Wrapper) Wrap(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		kind := errors.TypeOf(err)
		fields := []interface{}{"method", r.Method, "path", r.URL.Path, "kind", kind, "error", err}
		if resource, ok := apihttp.ResourceFromContext(r); ok {
			fields = append(fields, "resource", resource.Type, "operation", resource.Operation)
		}
		if kind == errors.ValidationError {
			wr.logger.Warn("Rejected request", fields...)
		} else {
			wr.logger.Error("Request failed", fields...)
		}
		wr.metrics.RequestError(string(kind))
		WriteError(w, err)
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// StatusFor maps an error to its HTTP status. Only validation failures are
// distinguished; every other kind is a 500.
func StatusFor(err error) int {
	if errors.IsType(err, errors.ValidationError) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// WriteError writes an error response carrying the underlying message.
func WriteError(w http.ResponseWriter, err error) {
	message := err.Error()
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		message = appErr.Cause()
	}
	WriteJSON(w, StatusFor(err), ErrorResponse{Error: message})
}

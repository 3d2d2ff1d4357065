package http

import (
	"context"
	"net/http"
	"path"
	"strings"
)

// ResourceKey is the context key for the resource
type ResourceKey string

const (
	// ResourceContextKey is the key used to store the resource in the context
	ResourceContextKey ResourceKey = "resource"
)

// Resource describes what a request acts on.
type Resource struct {
	// Type is the resource family, "asset" or "identity"
	Type string
	// Operation is the endpoint name, e.g. "createAsset"
	Operation string
	// Action is derived from the HTTP method
	Action string
}

// WithResource adds a resource annotation to the request context
func WithResource(r *http.Request, resource Resource) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ResourceContextKey, resource))
}

// ResourceFromContext retrieves the resource from the request context
func ResourceFromContext(r *http.Request) (Resource, bool) {
	resource, ok := r.Context().Value(ResourceContextKey).(Resource)
	return resource, ok
}

// ResourceMiddleware annotates each request with the resource type and the
// endpoint it targets, for logging.
func ResourceMiddleware(resourceType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action := "view"
			switch r.Method {
			case http.MethodPost:
				action = "create"
			case http.MethodPut, http.MethodPatch:
				action = "update"
			case http.MethodDelete:
				action = "delete"
			}

			next.ServeHTTP(w, WithResource(r, Resource{
				Type:      resourceType,
				Operation: operationName(r.URL.Path),
				Action:    action,
			}))
		})
	}
}

// operationName picks the first segment after /api, e.g. "createAsset" or
// "asset".
func operationName(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	p = strings.TrimPrefix(p, "api/")
	if i := strings.Index(p, "/"); i >= 0 {
		p = p[:i]
	}
	return p
}

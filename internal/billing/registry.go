package billing

import (
	"path"
	"strings"
)

// ResponseShape describes how a billed route delivers its response.
type ResponseShape string

// Response shapes understood by the orchestrator.
const (
	// ResponseShapeStandard marks a buffered request/response route.
	ResponseShapeStandard ResponseShape = "standard"
	// ResponseShapeStreaming marks a route that streams its response body.
	ResponseShapeStreaming ResponseShape = "streaming"
)

// Route binds a (path, method) pair to a billing strategy.
type Route struct {
	PathPattern string        // Exact request path, e.g. "/api/chat".
	Method      string        // HTTP method.
	Strategy    Strategy      // Cost model for the route.
	Shape       ResponseShape // Standard or streaming delivery.
}

// Registry is the static table of billed routes. Adding a billed endpoint
// means adding one Route here; nothing else changes.
type Registry struct {
	routes []Route
}

// NewRegistry builds a registry from route descriptors.
func NewRegistry(routes ...Route) *Registry {
	normalized := make([]Route, 0, len(routes))
	for _, route := range routes {
		route.PathPattern = normalizePath(route.PathPattern)
		route.Method = strings.ToUpper(strings.TrimSpace(route.Method))
		normalized = append(normalized, route)
	}
	return &Registry{routes: normalized}
}

// Lookup returns the route for an exact path and method match, or nil when
// the request is not billed. A nil result is the common, valid outcome
// meaning the call is free.
func (r *Registry) Lookup(requestPath, method string) *Route {
	requestPath = normalizePath(requestPath)
	method = strings.ToUpper(strings.TrimSpace(method))
	for i := range r.routes {
		if r.routes[i].PathPattern == requestPath && r.routes[i].Method == method {
			return &r.routes[i]
		}
	}
	return nil
}

// normalizePath cleans a request path for exact matching.
func normalizePath(requestPath string) string {
	trimmed := strings.TrimSpace(requestPath)
	if trimmed == "" {
		return "/"
	}
	cleaned := path.Clean("/" + trimmed)
	return cleaned
}

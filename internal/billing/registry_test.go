package billing

import (
	"net/http"
	"testing"
)

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry(
		Route{PathPattern: "/api/chat", Method: "post", Strategy: FixedStrategy{Cost: 1}, Shape: ResponseShapeStreaming},
		Route{PathPattern: "/api/upload-image/", Method: http.MethodPost, Strategy: FixedStrategy{Cost: 5}, Shape: ResponseShapeStandard},
	)

	if route := registry.Lookup("/api/chat", http.MethodPost); route == nil || route.Shape != ResponseShapeStreaming {
		t.Fatalf("chat lookup failed: %+v", route)
	}

	// Method and trailing-slash normalization.
	if route := registry.Lookup("/api/upload-image", "POST"); route == nil {
		t.Fatal("upload lookup failed despite registered trailing slash")
	}

	// Unbilled requests resolve to nil, meaning free.
	if route := registry.Lookup("/api/chat", http.MethodGet); route != nil {
		t.Fatalf("wrong method matched: %+v", route)
	}
	if route := registry.Lookup("/api/credits/balance", http.MethodGet); route != nil {
		t.Fatalf("unregistered path matched: %+v", route)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"meeplehub-api/pkg/uid"
)

func serveWithRequestID(t *testing.T, incoming string) (header string, fromCtx string) {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/collection", nil)
	if incoming != "" {
		req.Header.Set("X-Request-ID", incoming)
	}
	rr := httptest.NewRecorder()
	RequestID(next).ServeHTTP(rr, req)

	return rr.Header().Get("X-Request-ID"), fromCtx
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	header, fromCtx := serveWithRequestID(t, "")
	if !uid.IsValid(header) {
		t.Fatalf("expected a generated UUID, got %q", header)
	}
	if fromCtx != header {
		t.Fatalf("context id %q does not match header %q", fromCtx, header)
	}
}

func TestRequestIDHonorsValidClientID(t *testing.T) {
	supplied := uid.New()
	header, fromCtx := serveWithRequestID(t, supplied)
	if header != supplied || fromCtx != supplied {
		t.Fatalf("expected supplied id %q kept, got header %q ctx %q", supplied, header, fromCtx)
	}
}

func TestRequestIDReplacesMalformedClientID(t *testing.T) {
	header, fromCtx := serveWithRequestID(t, "not-a-uuid; rm -rf")
	if header == "not-a-uuid; rm -rf" {
		t.Fatal("malformed client id must not be echoed back")
	}
	if !uid.IsValid(header) || fromCtx != header {
		t.Fatalf("expected a fresh UUID, got header %q ctx %q", header, fromCtx)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTMX(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    bool
		target  string
	}{
		{"plain", nil, false, ""},
		{"htmx", map[string]string{"HX-Request": "true", "HX-Target": "board"}, true, "board"},
		{"boosted", map[string]string{"HX-Request": "true", "HX-Boosted": "true"}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bool
			var target string
			h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = IsHTMX(r)
				target = HTMXTarget(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want || target != tt.target {
				t.Errorf("IsHTMX = %v target %q, want %v %q", got, target, tt.want, tt.target)
			}
		})
	}
}

func TestOwner(t *testing.T) {
	var got string
	h := Owner("Me")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = OwnerFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Me" {
		t.Errorf("default owner = %q, want Me", got)
	}

	req.Header.Set(OwnerHeader, " Sam ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Sam" {
		t.Errorf("header owner = %q, want Sam", got)
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/boards", nil))

	entries := logs.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusCreated) || fields["path"] != "/api/boards" {
		t.Errorf("unexpected fields %v", fields)
	}
}

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/impostor-game/internal/api/middleware"
	"github.com/stretchr/testify/assert"
)

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "Wildcard", allowed: []string{"*"}, origin: "https://evil.example", want: true},
		{name: "Listed", allowed: []string{"https://play.example"}, origin: "https://play.example", want: true},
		{name: "NotListed", allowed: []string{"https://play.example"}, origin: "https://evil.example", want: false},
		{name: "NoOriginHeader", allowed: []string{"https://play.example"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, middleware.OriginAllowed(tt.allowed)(r))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := middleware.CORS([]string{"https://play.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/rooms", nil)
	r.Header.Set("Origin", "https://play.example")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, "https://play.example", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	handler := middleware.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

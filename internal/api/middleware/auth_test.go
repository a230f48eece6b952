package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAdminKeyAuth_Success(t *testing.T) {
	var called bool
	handler := AdminKeyAuth("secret-key")(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestAdminKeyAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		header string
		status int
	}{
		{"missing header", "secret-key", "", http.StatusUnauthorized},
		{"wrong scheme", "secret-key", "Basic secret-key", http.StatusUnauthorized},
		{"wrong key", "secret-key", "Bearer other", http.StatusUnauthorized},
		{"key prefix", "secret-key", "Bearer secret", http.StatusUnauthorized},
		{"not configured", "", "Bearer anything", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := AdminKeyAuth(tt.key)(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, called)
		})
	}
}

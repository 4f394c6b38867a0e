package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func allowlistStatus(cidrs []string, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	IPAllowlist(cidrs, discardLogger())(okHandler).ServeHTTP(rec, req)
	return rec.Code
}

func TestIPAllowlist(t *testing.T) {
	cidrs := []string{"10.0.0.0/8", "127.0.0.1/32", "::1/128", "not-a-cidr"}

	tests := []struct {
		remote string
		want   int
	}{
		{"10.1.2.3:5555", http.StatusOK},
		{"127.0.0.1:40000", http.StatusOK},
		{"[::1]:40000", http.StatusOK},
		{"[::ffff:10.0.0.7]:1234", http.StatusOK},
		{"10.9.9.9", http.StatusOK},
		{"192.168.1.10:5555", http.StatusForbidden},
		{"garbage", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			assert.Equal(t, tt.want, allowlistStatus(cidrs, tt.remote))
		})
	}
}

func TestIPAllowlist_EmptyDeniesAll(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, allowlistStatus(nil, "127.0.0.1:1"))
}

func TestRegisterPprof(t *testing.T) {
	r := chi.NewRouter()
	RegisterPprof(r, []string{"127.0.0.0/8"}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req.RemoteAddr = "203.0.113.5:9999"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decodeErrorCode(t, rec.Body.Bytes()))
}

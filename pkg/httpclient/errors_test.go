package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestParseResponseError_Mapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{"bad request", http.StatusBadRequest, `{"error":{"code":"BAD_NUMBER","message":"invalid recipient"}}`, apperrors.ErrInvalidInput},
		{"unprocessable", http.StatusUnprocessableEntity, `{"message":"text too long"}`, apperrors.ErrInvalidInput},
		{"unauthorized", http.StatusUnauthorized, `{"message":"bad api key"}`, apperrors.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, `nope`, apperrors.ErrForbidden},
		{"not found", http.StatusNotFound, ``, apperrors.ErrNotFound},
		{"throttled", http.StatusTooManyRequests, `{"message":"slow down"}`, apperrors.ErrRateLimited},
		{"unavailable", http.StatusServiceUnavailable, `maintenance`, apperrors.ErrServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(response(tt.status, tt.body), "sms-gateway")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestParseResponseError_KeepsUpstreamMessage(t *testing.T) {
	err := ParseResponseError(response(http.StatusBadRequest,
		`{"error":{"code":"BAD_NUMBER","message":"invalid recipient"}}`), "sms-gateway")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "sms-gateway: invalid recipient", appErr.Message)
}

func TestParseResponseError_ServerErrorIsPlain(t *testing.T) {
	err := ParseResponseError(response(http.StatusInternalServerError, `boom`), "sms-gateway")

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(http.StatusBadRequest))
	assert.True(t, IsClientError(499))
	assert.False(t, IsClientError(http.StatusOK))
	assert.False(t, IsClientError(http.StatusBadGateway))
}

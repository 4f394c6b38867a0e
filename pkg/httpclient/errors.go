package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// upstreamError covers the common shapes gateways use for error bodies:
// {"error":{"code":..,"message":..}} and {"message":..}.
type upstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// ParseResponseError reads a non-2xx response and turns it into an error. The
// body is consumed and closed. 4xx responses become AppErrors the caller can
// branch on; 5xx responses and unreadable bodies become plain errors.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", upstream, resp.StatusCode, err)
	}

	code, message := "", string(raw)
	var body upstreamError
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Error != nil:
			code, message = body.Error.Code, body.Error.Message
		case body.Message != "":
			message = body.Message
		}
	}
	return mapUpstreamError(resp.StatusCode, code, message, upstream)
}

func mapUpstreamError(status int, code, message, upstream string) error {
	qualified := fmt.Sprintf("%s: %s", upstream, message)

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusNotFound:
		return apperrors.NotFound(upstream, message)
	case status == http.StatusTooManyRequests:
		return apperrors.RateLimited(qualified)
	case status == http.StatusServiceUnavailable:
		return &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: qualified,
			Status:  http.StatusServiceUnavailable,
			Err:     apperrors.ErrServiceUnavailable,
		}
	case status >= 500:
		return fmt.Errorf("%s server error (%d %s): %s", upstream, status, code, message)
	default:
		return fmt.Errorf("%s returned status %d: %s", upstream, status, message)
	}
}

// IsClientError reports whether status is a 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

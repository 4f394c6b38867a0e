package http

import (
	"mime"
	"net/http"

	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/httputil"
)

var errUnsupportedMediaType = &apperrors.AppError{
	Code:    "UNSUPPORTED_MEDIA_TYPE",
	Message: "Content-Type must be application/json",
	Status:  http.StatusUnsupportedMediaType,
}

// ContentTypeJSON rejects write requests whose body is declared as anything
// but JSON. A missing Content-Type is treated as JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if ct := r.Header.Get("Content-Type"); ct != "" {
				mediaType, _, err := mime.ParseMediaType(ct)
				if err != nil || mediaType != "application/json" {
					httputil.WriteError(w, r, errUnsupportedMediaType, nil)
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

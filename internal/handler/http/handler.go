package http

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/httputil"
	"github.com/venkatesh-palenso/palenso-api/pkg/middleware"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
	"github.com/venkatesh-palenso/palenso-api/pkg/validator"
)

// actorFrom returns the authenticated caller. Routes that call it are mounted
// behind middleware.Auth, so a missing claim set means a wiring bug and is
// reported as unauthenticated rather than acted on as the system.
func actorFrom(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "user not authenticated"},
		})
		return domain.Actor{}, false
	}
	return domain.UserActor(claims.UserID, claims.Role), true
}

// decode reads and validates the JSON body into dst, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := validator.DecodeAndValidate(w, r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

// pathID reads a UUID route parameter and returns it in canonical form.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, name))
	if !ok {
		return "", false
	}
	return id.String(), true
}

// clientIP strips the port from RemoteAddr. chi's RealIP middleware has
// already replaced it with the forwarded address when one was sent.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func loginMeta(r *http.Request) domain.LoginMeta {
	return domain.LoginMeta{IP: clientIP(r), UserAgent: r.UserAgent()}
}

func writePage[T any](w http.ResponseWriter, data []T, total int, params pagination.Params) {
	httputil.WriteData(w, http.StatusOK, pagination.NewResult(data, total, params))
}

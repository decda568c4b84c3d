// Package api holds the pieces shared by the JSON handlers under /api/v2.
package api

import (
	"errors"
	"goods-manager/core"
	"goods-manager/handlers/auth"
	"goods-manager/middleware"
	"net/http"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// StatusFor maps a domain error to the HTTP status the client should see.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidImage), errors.Is(err, core.ErrImportFormat):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// OwnerLogin is the login of the authenticated owner, or "" when the API
// runs without JWT_SECRET.
func OwnerLogin(r *http.Request) string {
	if claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims); ok {
		return claims.Login
	}
	return ""
}

// RenderError logs err and writes {"error": ...}. Client errors carry the
// underlying message; server errors only carry msg.
func RenderError(w http.ResponseWriter, r *http.Request, err error, msg string, fields logrus.Fields) {
	status := StatusFor(err)
	log := logrus.WithFields(fields).WithError(err)
	if owner := OwnerLogin(r); owner != "" {
		log = log.WithField("owner", owner)
	}
	if status >= http.StatusInternalServerError {
		log.Error(msg)
	} else {
		log.Warn(msg)
		msg = err.Error()
	}
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": msg})
}

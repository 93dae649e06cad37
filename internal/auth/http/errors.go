package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/pkg/authsdk"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

var errLastAdmin = &authsdk.APIError{
	StatusCode:  http.StatusConflict,
	Code:        authsdk.ErrorCodeConflict,
	Description: "the last administrator cannot be demoted",
}

// writeError maps a service error onto its API error. Anything unexpected
// is logged here and answered with a generic 500 so no detail leaks.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		authsdk.NewValidationError(verr.Fields).WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		authsdk.ErrUserExists.WriteError(w)
	case errors.Is(err, service.ErrUnauthenticated):
		authsdk.ErrUnauthenticated.WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		authsdk.ErrForbidden.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		authsdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrProviderDisabled):
		authsdk.ErrProviderDisabled.WriteError(w)
	case errors.Is(err, service.ErrTokenNotFound), errors.Is(err, service.ErrTokenExpired):
		authsdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidRole):
		authsdk.NewValidationError(map[string]string{"role": "must be one of USER ADMIN"}).WriteError(w)
	case errors.Is(err, service.ErrLastAdmin):
		errLastAdmin.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		authsdk.ErrServerError.WriteError(w)
	}
}

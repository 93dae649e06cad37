package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/shopauth/pkg/authsdk"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Returns 200 OK whenever the process is serving requests. It does not touch the database.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.LivezResponse	"ok"
//	@Router			/livez [get].
func LivezHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.LivezResponse{Status: authsdk.HealthOK})
	}
}

// Pinger is the part of the store the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthPingTimeout = 2 * time.Second

// HealthHandler godoc
//
//	@Summary		Health check
//	@Description	Reports database reachability. Returns 503 when the database cannot be reached.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"All services healthy"
//	@Failure		503	{object}	authsdk.HealthResponse	"Database unreachable"
//	@Router			/api/health [get].
func HealthHandler(version string, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		resp := authsdk.HealthResponse{
			Status:    authsdk.HealthOK,
			Timestamp: time.Now().UTC(),
			Services: authsdk.HealthServices{
				Database: authsdk.HealthHealthy,
				Server:   authsdk.HealthHealthy,
			},
			Version: version,
		}
		code := http.StatusOK

		if err := db.Ping(ctx); err != nil {
			slogx.FromContext(r.Context()).Warn("health check: database unreachable", slog.Any("error", err))
			resp.Services.Database = authsdk.HealthUnhealthy
			code = http.StatusServiceUnavailable
		}

		httpx.NoCache(w)
		httpx.WriteJSON(w, code, resp)
	}
}

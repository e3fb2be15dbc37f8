package controllers

import (
	"context"
	"net/http"

	"github.com/retailhub/portal-gateway/api/responses"
	"github.com/retailhub/portal-gateway/pkg/config"
	pkgerrors "github.com/retailhub/portal-gateway/pkg/errors"
	"github.com/retailhub/portal-gateway/pkg/logger"
)

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Count() int
}

// Pinger checks a dependency's connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RetailHub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the token store when one is configured. The four
// retail backends are deliberately not probed; the portal stays ready
// while they flap and the views surface "service offline" instead.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisClient Pinger, sessions SessionCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RetailHub-Env", cfg.App.Env)

		if redisClient != nil {
			if err := redisClient.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "token store unavailable"))
				return
			}
		}

		payload := map[string]any{"status": "ready"}
		if sessions != nil {
			payload["sessions"] = sessions.Count()
		}
		responses.WriteSuccess(w, payload)
	}
}

package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/fenceops-backend/api/responses"
	"github.com/angelmondragon/fenceops-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
)

const (
	envHeader    = "X-FenceOps-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is anything the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency. A nil pinger is reported as disabled.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "disabled"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
			checks[name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

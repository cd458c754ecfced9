package controllers

import (
	"net/http"

	"go.uber.org/multierr"

	"github.com/greentradehq/greentrade-backend/api/responses"
	"github.com/greentradehq/greentrade-backend/pkg/config"
	"github.com/greentradehq/greentrade-backend/pkg/db"
	pkgerrors "github.com/greentradehq/greentrade-backend/pkg/errors"
	"github.com/greentradehq/greentrade-backend/pkg/logger"
	"github.com/greentradehq/greentrade-backend/pkg/redis"
)

const envHeader = "X-GreenTrade-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing services and reports per-dependency status.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		deps := map[string]string{}
		var failures error

		if dbP != nil {
			deps["db"] = "ok"
			if err := dbP.Ping(r.Context()); err != nil {
				deps["db"] = err.Error()
				failures = multierr.Append(failures, err)
			}
		}
		if redisP != nil {
			deps["redis"] = "ok"
			if err := redisP.Ping(r.Context()); err != nil {
				deps["redis"] = err.Error()
				failures = multierr.Append(failures, err)
			}
		}

		if failures != nil {
			err := pkgerrors.Wrap(pkgerrors.CodeDependency, failures, "dependencies unavailable").
				WithDetails(deps)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "deps": deps})
	}
}

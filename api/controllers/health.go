package controllers

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/multierr"

	"github.com/mariellesantos/floracart-backend/api/responses"
	"github.com/mariellesantos/floracart-backend/pkg/config"
	"github.com/mariellesantos/floracart-backend/pkg/db"
	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
	"github.com/mariellesantos/floracart-backend/pkg/redis"
	"github.com/mariellesantos/floracart-backend/pkg/storage/gcs"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FloraCart-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

type readinessCheck struct {
	name string
	ping func(context.Context) error
}

// HealthReady reports ready only when every backing dependency answers a
// ping. Nil pingers are skipped so partial deployments still come up.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, gcsP gcs.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FloraCart-Env", cfg.App.Env)

		var checks []readinessCheck
		if dbP != nil {
			checks = append(checks, readinessCheck{"postgres", dbP.Ping})
		}
		if redisP != nil {
			checks = append(checks, readinessCheck{"redis", redisP.Ping})
		}
		if gcsP != nil {
			checks = append(checks, readinessCheck{"gcs", gcsP.Ping})
		}

		var unreachable error
		for _, check := range checks {
			if err := check.ping(r.Context()); err != nil {
				unreachable = multierr.Append(unreachable, fmt.Errorf("%s unreachable: %w", check.name, err))
			}
		}
		if unreachable != nil {
			wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, unreachable, "dependencies unreachable")
			responses.WriteError(r.Context(), logg, w, wrapped)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

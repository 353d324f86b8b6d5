package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/fenceops-backend/api/validators"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
)

const (
	actorIDHeader   = "X-Actor-Id"
	actorRoleHeader = "X-Actor-Role"
	maxActorLength  = 128
)

// Actor records who is acting for audit fields and outbox events. Identity is
// asserted by the upstream gateway; nothing here authenticates it.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := validators.SanitizeString(r.Header.Get(actorIDHeader), maxActorLength)
			role := strings.ToLower(validators.SanitizeString(r.Header.Get(actorRoleHeader), maxActorLength))
			if actorID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithActor(r.Context(), actorID, role)
			if logg != nil {
				ctx = logg.WithActorID(ctx, actorID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

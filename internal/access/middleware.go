package access

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/helmsman-hr/helmsman/internal/shared"
)

// Guard wires access-control checks into HTTP routes. The caller's
// role comes from the authenticated session; the decision itself is
// delegated to the Decider, so guarded routes observe permission edits
// on the next request.
type Guard struct {
	Decider *Decider
	Logger  *slog.Logger
}

// RequireComponent allows the request through only when the session
// role may access the component capability.
func (g Guard) RequireComponent(capabilityID string) func(http.Handler) http.Handler {
	return g.require(capabilityID, KindComponent)
}

// RequireFeature allows the request through only when the session role
// may use the feature capability.
func (g Guard) RequireFeature(capabilityID string) func(http.Handler) http.Handler {
	return g.require(capabilityID, KindFeature)
}

func (g Guard) require(capabilityID string, kind PermissionKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roleID, ok := g.currentRole(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			allowed := false
			if kind == KindComponent {
				allowed = g.Decider.CanAccessComponent(r.Context(), roleID, capabilityID)
			} else {
				allowed = g.Decider.CanAccessFeature(r.Context(), roleID, capabilityID)
			}
			if !allowed {
				if g.Logger != nil {
					g.Logger.Info("access denied",
						slog.String("role", roleID),
						slog.String("capability", capabilityID),
						slog.String("path", r.URL.Path))
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g Guard) currentRole(r *http.Request) (string, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return "", false
	}
	role := strings.TrimSpace(sess.Role())
	if role == "" {
		return "", false
	}
	return role, true
}

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"portal/pkg/auth"
	"portal/pkg/gate"
	"portal/pkg/user"

	"github.com/gorilla/mux"
)

// CookieName is the cookie that carries the signed session token.
const CookieName = "portal_session"

// publicRoutes are reachable without a session, keyed by route template.
var publicRoutes = map[string]string{
	"/auth/login":  http.MethodPost,
	"/auth/logout": http.MethodPost,
	"/auth/me":     http.MethodGet,
	"/health":      http.MethodGet,
}

// Gate runs the access gate in front of every route not listed in
// publicRoutes and stores the admitted summary in the request context.
func Gate(g *gate.Gate, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := mux.CurrentRoute(r)
			if route == nil {
				writeMessage(w, http.StatusNotFound, "route not found")
				return
			}
			template, err := route.GetPathTemplate()
			if err != nil {
				writeMessage(w, http.StatusNotFound, "route not found")
				return
			}

			if method, ok := publicRoutes[template]; ok && method == r.Method {
				next.ServeHTTP(w, r)
				return
			}

			dec := g.Authorize(r.Context(), gate.RequestContext{SessionCarrier: ExtractCarrier(r)})
			if !dec.Admitted {
				logger.Info("gate reject", "path", r.URL.Path, "reason", string(dec.Reason))
				writeMessage(w, http.StatusUnauthorized, auth.MsgNotAuthenticated)
				return
			}

			next.ServeHTTP(w, r.WithContext(gate.WithSummary(r.Context(), dec.Summary)))
		})
	}
}

// RequireRole admits only sessions whose role is one of roles. It must be
// mounted behind Gate.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	allowed := make(map[user.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := gate.SummaryFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, auth.MsgNotAuthenticated)
				return
			}
			if _, ok := allowed[s.Role]; !ok {
				writeMessage(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ExtractCarrier reads the session carrier from a Bearer header or, failing
// that, from the session cookie.
func ExtractCarrier(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

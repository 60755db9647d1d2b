// Package gate enforces single-use access-token admission to protected
// resources. Every request through the gate consumes the presented token;
// a refresh or a second visitor needs a freshly issued one.
package gate

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"arbgate/internal/auth/api"
	"arbgate/internal/auth/session"
	"arbgate/internal/web"
)

// Gate wraps protected handlers with access-token admission control.
type Gate struct {
	log      *slog.Logger
	sessions *session.Service
	denied   []byte

	decisions *prometheus.CounterVec
}

// Option configures optional gate dependencies.
type Option func(*Gate)

// WithDecisionMetrics records gate outcomes ("granted", "denied", "error")
// on the given counter.
func WithDecisionMetrics(cv *prometheus.CounterVec) Option {
	return func(g *Gate) { g.decisions = cv }
}

// New constructs a Gate.
func New(log *slog.Logger, sessions *session.Service, opts ...Option) *Gate {
	if log == nil {
		log = slog.Default()
	}

	g := &Gate{log: log, sessions: sessions, denied: web.DeniedPage()}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *Gate) count(outcome string) {
	if g.decisions != nil {
		g.decisions.WithLabelValues(outcome).Inc()
	}
}

// Protect admits the request to next only when it carries a live access
// token. The token is consumed either way once looked up, and the cookie is
// always cleared: after one pass through the gate the client holds nothing.
func (g *Gate) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(api.AccessCookieName)
		if err != nil || c.Value == "" {
			g.count("denied")
			g.deny(w, http.StatusForbidden)
			return
		}

		api.ClearAuthCookie(w, api.AccessCookieName)

		ok, err := g.sessions.ConsumeAccessToken(r.Context(), c.Value)
		if err != nil {
			g.count("error")
			g.log.Error("gate.consume.fail", "err", err, "path", r.URL.Path)
			g.deny(w, http.StatusInternalServerError)
			return
		}
		if !ok {
			g.count("denied")
			g.deny(w, http.StatusForbidden)
			return
		}

		g.count("granted")
		next.ServeHTTP(w, r)
	})
}

// deny serves the fixed denial document. Its content is identical for a
// missing, expired, and already-consumed token, so the page leaks nothing
// about which case occurred.
func (g *Gate) deny(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(g.denied)
}

// Package api exposes the auth endpoints: login, logout, session
// verification, and access-token issuance.
//
// Every failure is converted here, at the boundary, into one of the fixed
// response shapes; nothing propagates to the client as an unhandled fault.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"arbgate/internal/auth/session"
)

// Config controls request handling limits.
type Config struct {
	MaxBodyBytes int64
}

// DefaultConfig returns the default handler limits.
func DefaultConfig() Config {
	return Config{MaxBodyBytes: 1 << 20} // 1 MiB
}

// Handler wires the HTTP auth endpoints to the session service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	sessions *session.Service

	loginOutcomes *prometheus.CounterVec
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithLoginMetrics records login outcomes ("success", "invalid_credentials",
// "conflict", "validation", "error") on the given counter.
func WithLoginMetrics(cv *prometheus.CounterVec) HandlerOption {
	return func(h *Handler) { h.loginOutcomes = cv }
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, sessions *session.Service, opts ...HandlerOption) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}

	h := &Handler{log: log, cfg: cfg, sessions: sessions}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/login", h.handleLogin)
	mux.HandleFunc("/api/logout", h.handleLogout)
	mux.HandleFunc("/api/verify-session", h.handleVerifySession)
	mux.HandleFunc("/api/generate-access-token", h.handleGenerateAccessToken)
}

func (h *Handler) countLogin(outcome string) {
	if h.loginOutcomes != nil {
		h.loginOutcomes.WithLabelValues(outcome).Inc()
	}
}

// ---- handlers ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.countLogin("validation")
		writeError(w, http.StatusBadRequest, "Invalid request body. Expected JSON.")
		return
	}

	if !validLoginRequest(req) {
		h.countLogin("validation")
		writeError(w, http.StatusBadRequest, "Missing or invalid name, email, or password.")
		return
	}

	res, err := h.sessions.Login(r.Context(), req.Email, req.Password, req.ForceLogin)
	if err != nil {
		var ce session.ConflictError
		switch {
		case errors.As(err, &ce):
			// Not a failure: the caller decides whether to force or cancel.
			h.countLogin("conflict")
			writeJSON(w, http.StatusConflict, conflictResponse{Conflict: true, Message: ce.Message()})
		case errors.Is(err, session.ErrInvalidCredentials):
			h.countLogin("invalid_credentials")
			writeError(w, http.StatusUnauthorized, "Invalid email or password.")
		default:
			h.countLogin("error")
			h.log.Error("api.login.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to create session. Please try again.")
		}
		return
	}

	h.countLogin("success")
	setAuthCookie(w, SessionCookieName, res.Token, res.TTL)
	writeJSON(w, http.StatusOK, loginResponse{Status: "success", Name: res.Name})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	h.sessions.Logout(r.Context(), cookieValue(r, SessionCookieName))

	// The cookie is cleared unconditionally: logout never fails visibly.
	ClearAuthCookie(w, SessionCookieName)
	writeJSON(w, http.StatusOK, logoutResponse{Message: "Logout successful"})
}

func (h *Handler) handleVerifySession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	token := cookieValue(r, SessionCookieName)
	id, err := h.sessions.Verify(r.Context(), token)
	if err != nil {
		h.log.Error("api.verify.fail", "err", err)
		writeJSON(w, http.StatusInternalServerError, verifyResponse{LoggedIn: false})
		return
	}

	if !id.LoggedIn {
		// A cookie that points at nothing is stale; expire it client-side.
		if token != "" {
			ClearAuthCookie(w, SessionCookieName)
		}
		writeJSON(w, http.StatusOK, verifyResponse{LoggedIn: false})
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{LoggedIn: true, Email: id.Email, Name: id.Name})
}

func (h *Handler) handleGenerateAccessToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionToken := cookieValue(r, SessionCookieName)
	if sessionToken == "" {
		writeError(w, http.StatusUnauthorized, "Not authenticated. No session found.")
		return
	}

	token, ttl, err := h.sessions.IssueAccessToken(r.Context(), sessionToken)
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			ClearAuthCookie(w, SessionCookieName)
			writeError(w, http.StatusUnauthorized, "Invalid or expired session. Please log in again.")
			return
		}
		h.log.Error("api.access_token.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate access token. Please try again.")
		return
	}

	setAuthCookie(w, AccessCookieName, token, ttl)
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

// validLoginRequest checks the login input contract: non-empty name and
// password, email containing "@". The name field is required by the contract
// even though the session snapshot uses the provisioned name.
func validLoginRequest(req loginRequest) bool {
	if strings.TrimSpace(req.Name) == "" {
		return false
	}
	if strings.TrimSpace(req.Password) == "" {
		return false
	}
	email := strings.TrimSpace(req.Email)
	i := strings.Index(email, "@")
	return i > 0 && i < len(email)-1
}

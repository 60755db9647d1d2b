// Package session implements the two-tier credential scheme: long-lived
// sessions plus short-lived, single-use access tokens, all persisted in the
// external KV store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"arbgate/internal/identity"
)

// Service implements login, logout, session verification and access-token
// issuance. It holds no mutable state of its own; every request is a short
// linear sequence of KV calls.
type Service struct {
	cfg    Config
	log    *slog.Logger
	users  *identity.Store
	stores Stores

	// dummyHash makes the unknown-email path cost one argon2 verify, same
	// as the wrong-password path.
	dummyHash string

	now func() time.Time
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token string
	Name  string
	TTL   time.Duration
}

// Identity is the read-only session state reported by Verify. "Not logged
// in" is an expected steady state, not an error.
type Identity struct {
	LoggedIn bool
	Email    string
	Name     string
}

// NewService constructs a session Service.
func NewService(cfg Config, log *slog.Logger, users *identity.Store, stores Stores) *Service {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		cfg:    cfg,
		log:    log,
		users:  users,
		stores: stores,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if hash, err := identity.HashPassword("dummy-password-for-timing-only", identity.DefaultArgon2idParams()); err == nil {
		s.dummyHash = hash
	}

	return s
}

// SetClock overrides the service clock. Test use only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// newSessionToken and newAccessToken are deliberately separate call sites:
// the two token spaces are independent and must never share a generation
// path that could collide namespaces.
func newSessionToken() string { return uuid.NewString() }
func newAccessToken() string  { return uuid.NewString() }

// Login authenticates credentials and creates a session.
//
// The single-session policy is enforced through the index: a live index
// entry without force yields a ConflictError and no state change. With
// force, the old record and index entry are removed best-effort before the
// new session is written.
//
// Two concurrent force-logins for the same email can race, each deleting the
// other's freshly written index entry. The index is not authoritative, so
// this degrades to last-writer-wins; it is an accepted property of the
// non-transactional store, not something this method papers over.
func (s *Service) Login(ctx context.Context, email, password string, force bool) (LoginResult, error) {
	email = identity.NormalizeEmail(email)

	user, err := s.users.Lookup(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrNotFound):
			// Timing resistance: burn a verify on the dummy hash.
			if s.dummyHash != "" {
				_, _ = identity.VerifyPassword(password, s.dummyHash)
			}
			return LoginResult{}, ErrInvalidCredentials
		case errors.Is(err, identity.ErrCorruptRecord):
			// A corrupt record must never authenticate.
			s.log.Error("auth.login.corrupt_user", "email", email)
			return LoginResult{}, ErrInvalidCredentials
		default:
			return LoginResult{}, err
		}
	}

	ok, err := identity.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	oldToken, live, err := s.stores.Index.Get(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	if live {
		if !force {
			return LoginResult{}, ConflictError{Email: email}
		}
		// Force: invalidate the previous session. Failures here must not
		// block the login; the TTL will reclaim whatever we miss.
		if err := s.stores.Sessions.Delete(ctx, string(oldToken)); err != nil {
			s.log.Error("auth.login.force.delete_session.fail", "err", err, "token_prefix", tokenPrefix(string(oldToken)))
		}
		if err := s.stores.Index.Delete(ctx, email); err != nil {
			s.log.Error("auth.login.force.delete_index.fail", "err", err, "email", email)
		}
	}

	token := newSessionToken()
	rec := Record{Email: email, Name: user.Name, IssuedAt: s.now()}
	raw, err := json.Marshal(rec)
	if err != nil {
		return LoginResult{}, err
	}

	if err := s.stores.Sessions.Put(ctx, token, raw, s.cfg.SessionTTL); err != nil {
		return LoginResult{}, err
	}
	if err := s.stores.Index.Put(ctx, email, []byte(token), s.cfg.SessionTTL); err != nil {
		// Roll back the half-created session so a failed login leaves no
		// live record behind.
		if derr := s.stores.Sessions.Delete(ctx, token); derr != nil {
			s.log.Error("auth.login.rollback.fail", "err", derr, "token_prefix", tokenPrefix(token))
		}
		return LoginResult{}, err
	}

	s.log.Info("auth.login.success", "email", email, "token_prefix", tokenPrefix(token))
	return LoginResult{Token: token, Name: user.Name, TTL: s.cfg.SessionTTL}, nil
}

// Logout invalidates the session for token. It is idempotent and never
// fails visibly: storage errors are logged and swallowed, because the caller
// always gets its cookie cleared regardless.
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}

	raw, ok, err := s.stores.Sessions.Get(ctx, token)
	if err != nil {
		s.log.Error("auth.logout.get_session.fail", "err", err, "token_prefix", tokenPrefix(token))
	}
	if ok {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Email == "" {
			s.log.Warn("auth.logout.corrupt_session", "token_prefix", tokenPrefix(token))
		} else {
			// Delete the index entry only if it still points at this token,
			// so a newer session created by a concurrent force-login is not
			// clobbered.
			if _, err := s.stores.Index.CompareAndDelete(ctx, rec.Email, []byte(token)); err != nil {
				s.log.Error("auth.logout.delete_index.fail", "err", err, "email", rec.Email)
			}
			s.revokeAccessToken(ctx, rec.Email)
		}
	}

	if err := s.stores.Sessions.Delete(ctx, token); err != nil {
		s.log.Error("auth.logout.delete_session.fail", "err", err, "token_prefix", tokenPrefix(token))
	}

	s.log.Info("auth.logout.done", "token_prefix", tokenPrefix(token))
}

// revokeAccessToken removes any outstanding unconsumed access token for the
// email. Best-effort: an access token that escapes revocation still dies by
// TTL within minutes.
func (s *Service) revokeAccessToken(ctx context.Context, email string) {
	tok, ok, err := s.stores.AccessIndex.GetDelete(ctx, email)
	if err != nil {
		s.log.Error("auth.logout.access_index.fail", "err", err, "email", email)
		return
	}
	if !ok {
		return
	}
	if err := s.stores.Access.Delete(ctx, string(tok)); err != nil {
		s.log.Error("auth.logout.revoke_access.fail", "err", err, "token_prefix", tokenPrefix(string(tok)))
	}
}

// Verify reports the login state for a session token. A missing, unknown,
// or corrupt record is "not logged in", never an error; the only error this
// returns is a storage failure.
func (s *Service) Verify(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, nil
	}

	raw, ok, err := s.stores.Sessions.Get(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	if !ok {
		return Identity{}, nil
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Email == "" || rec.Name == "" {
		s.log.Error("auth.verify.corrupt_session", "token_prefix", tokenPrefix(token))
		return Identity{}, nil
	}

	return Identity{LoggedIn: true, Email: rec.Email, Name: rec.Name}, nil
}

// IssueAccessToken converts a live session into a fresh single-use access
// token. The session lookup is re-done here; a claimed or cached login state
// is never trusted.
func (s *Service) IssueAccessToken(ctx context.Context, sessionToken string) (token string, ttl time.Duration, err error) {
	id, err := s.Verify(ctx, sessionToken)
	if err != nil {
		return "", 0, err
	}
	if !id.LoggedIn {
		return "", 0, ErrNotAuthenticated
	}

	token = newAccessToken()
	rec := AccessRecord{Email: id.Email, IssuedAt: s.now()}
	raw, err := json.Marshal(rec)
	if err != nil {
		return "", 0, err
	}

	if err := s.stores.Access.Put(ctx, token, raw, s.cfg.AccessTokenTTL); err != nil {
		return "", 0, err
	}
	// Index write is best-effort: it only serves logout-time revocation.
	if err := s.stores.AccessIndex.Put(ctx, id.Email, []byte(token), s.cfg.AccessTokenTTL); err != nil {
		s.log.Error("auth.access.index.fail", "err", err, "email", id.Email)
	}

	s.log.Info("auth.access.issued", "email", id.Email, "token_prefix", tokenPrefix(token))
	return token, s.cfg.AccessTokenTTL, nil
}

// ConsumeAccessToken atomically claims a single-use access token. It reports
// whether the token was live; a second call with the same token always reports
// false. The error return is a storage failure only.
func (s *Service) ConsumeAccessToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	raw, ok, err := s.stores.Access.GetDelete(ctx, token)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	var rec AccessRecord
	if err := json.Unmarshal(raw, &rec); err != nil || rec.Email == "" {
		s.log.Error("auth.access.corrupt_record", "token_prefix", tokenPrefix(token))
		return false, nil
	}

	// Drop the revocation index entry if it still points at this token.
	if _, err := s.stores.AccessIndex.CompareAndDelete(ctx, rec.Email, []byte(token)); err != nil {
		s.log.Error("auth.access.consume_index.fail", "err", err, "email", rec.Email)
	}

	s.log.Info("auth.access.consumed", "email", rec.Email, "token_prefix", tokenPrefix(token))
	return true, nil
}

// tokenPrefix returns the first 8 characters for logging; full tokens never
// reach the logs.
func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}

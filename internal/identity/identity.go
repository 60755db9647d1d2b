// Package identity holds credential records and password hashing.
//
// Records are owned by an external provisioning step (cmd/userctl); the auth
// core only reads them. The display name is fixed here, at provisioning time,
// not accepted per login.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"arbgate/internal/kv"
)

var (
	// ErrNotFound is returned when no credential record exists for an email.
	ErrNotFound = errors.New("identity: user not found")

	// ErrCorruptRecord is returned when a stored record fails to decode.
	// Callers must treat it like an absent record; a corrupt record must
	// never authenticate a request.
	ErrCorruptRecord = errors.New("identity: corrupt user record")
)

// User is a credential record, keyed by normalized email.
type User struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store reads and writes credential records in the users KV namespace.
type Store struct {
	users kv.Namespace
}

// NewStore wraps the users namespace.
func NewStore(users kv.Namespace) *Store {
	return &Store{users: users}
}

// Lookup returns the credential record for email (normalized first).
func (s *Store) Lookup(ctx context.Context, email string) (User, error) {
	key := NormalizeEmail(email)
	if key == "" {
		return User{}, ErrNotFound
	}

	raw, ok, err := s.users.Get(ctx, key)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, ErrNotFound
	}

	var u User
	if err := json.Unmarshal(raw, &u); err != nil || u.Email == "" || u.PasswordHash == "" {
		return User{}, fmt.Errorf("%w: %s", ErrCorruptRecord, key)
	}
	return u, nil
}

// Put stores a credential record. Credential records carry no TTL.
// Used by provisioning and tests, never by the request path.
func (s *Store) Put(ctx context.Context, u User) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" || u.PasswordHash == "" {
		return errors.New("identity: email and password hash are required")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.users.Put(ctx, u.Email, raw, 0)
}

// Delete removes a credential record.
func (s *Store) Delete(ctx context.Context, email string) error {
	return s.users.Delete(ctx, NormalizeEmail(email))
}

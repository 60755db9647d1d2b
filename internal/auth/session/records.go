package session

import (
	"time"

	"arbgate/internal/kv"
)

// Record is a session record, keyed by the opaque session token.
type Record struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	IssuedAt time.Time `json:"issued_at"`
}

// AccessRecord is a short-lived access-token record, keyed by the access
// token. It carries only what the gate needs for auditing; there is no
// stored back-reference to the session that spawned it.
type AccessRecord struct {
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issued_at"`
}

// Stores bundles the four KV namespaces the session subsystem owns.
//
//	Sessions:    session token -> Record
//	Index:       email -> session token (single-session enforcement only;
//	             never authoritative over session data itself)
//	Access:      access token -> AccessRecord
//	AccessIndex: email -> access token (lets logout revoke an outstanding
//	             unconsumed token)
type Stores struct {
	Sessions    kv.Namespace
	Index       kv.Namespace
	Access      kv.Namespace
	AccessIndex kv.Namespace
}

// NewStores derives the session namespaces from a backend store.
func NewStores(store kv.Store) Stores {
	return Stores{
		Sessions:    kv.NewNamespace(store, "sess"),
		Index:       kv.NewNamespace(store, "sessidx"),
		Access:      kv.NewNamespace(store, "acctok"),
		AccessIndex: kv.NewNamespace(store, "acctokidx"),
	}
}

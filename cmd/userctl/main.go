// Package main provides the operator tool for provisioning credential
// records. There is no self-service signup; every account is created here.
//
// Usage:
//
//	userctl -email ram@example.com -name Ram -password secret
//	userctl -email ram@example.com -delete
//
// The database URL is taken from -db or ARBGATE_DATABASE_URL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbgate/internal/identity"
	"arbgate/internal/kv"
)

func main() {
	var (
		email    = flag.String("email", "", "account email (required)")
		name     = flag.String("name", "", "display name shown after login")
		password = flag.String("password", "", "plaintext password, hashed before storage")
		del      = flag.Bool("delete", false, "delete the account instead of creating it")
		dbURL    = flag.String("db", os.Getenv("ARBGATE_DATABASE_URL"), "Postgres connection URL")
		timeout  = flag.Duration("timeout", 10*time.Second, "operation timeout")
	)
	flag.Parse()

	if *email == "" {
		fatalf("missing -email")
	}
	if *dbURL == "" {
		fatalf("missing -db (or ARBGATE_DATABASE_URL)")
	}
	if !identity.ValidEmail(*email) {
		fatalf("invalid email %q", *email)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, *dbURL)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := kv.EnsureSchema(ctx, pool); err != nil {
		fatalf("schema: %v", err)
	}

	store := kv.NewPostgresStore(pool, *timeout)
	users := identity.NewStore(kv.NewNamespace(store, "user"))

	if *del {
		if err := users.Delete(ctx, *email); err != nil {
			fatalf("delete: %v", err)
		}
		fmt.Printf("deleted %s\n", identity.NormalizeEmail(*email))
		return
	}

	if *name == "" || *password == "" {
		fatalf("missing -name or -password")
	}

	hash, err := identity.HashPassword(*password, identity.DefaultArgon2idParams())
	if err != nil {
		fatalf("hash: %v", err)
	}

	user := identity.User{
		Email:        identity.NormalizeEmail(*email),
		Name:         *name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Put(ctx, user); err != nil {
		fatalf("put: %v", err)
	}

	fmt.Printf("provisioned %s (%s)\n", user.Email, user.Name)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "userctl: "+format+"\n", args...)
	os.Exit(1)
}

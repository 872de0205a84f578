package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"agency-cms/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("Incorrect username or password")
	ErrLoginTimeout       = errors.New("login timed out, please try again")
)

// Verifier checks a username/password pair and returns the matching user.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (User, error)
}

// StaticPasswordVerifier accepts any username present in admin_users together
// with the single configured password. The stored rows carry no credentials.
type StaticPasswordVerifier struct {
	db   *sqlx.DB
	hash string
}

// NewStaticPasswordVerifier hashes password once so requests only compare.
func NewStaticPasswordVerifier(s *store.Store, password string) (*StaticPasswordVerifier, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &StaticPasswordVerifier{db: s.DB, hash: hash}, nil
}

func (v *StaticPasswordVerifier) Verify(ctx context.Context, username, password string) (User, error) {
	var user User
	err := v.db.GetContext(ctx, &user, v.db.Rebind("SELECT id, username FROM admin_users WHERE username = ?"), username)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup admin user: %w", err)
	}
	if !CheckPassword(password, v.hash) {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// EnsureAdminUser inserts username into admin_users if it is missing.
func EnsureAdminUser(ctx context.Context, s *store.Store, username string) error {
	if username == "" {
		return nil
	}
	var n int
	if err := s.DB.GetContext(ctx, &n, s.Rebind("SELECT COUNT(*) FROM admin_users WHERE username = ?"), username); err != nil {
		return fmt.Errorf("count admin users: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.DB.ExecContext(ctx, s.Rebind("INSERT INTO admin_users (id, username) VALUES (?, ?)"),
		uuid.NewString(), username); err != nil {
		return fmt.Errorf("insert admin user: %w", store.MapError(s.Dialect, err))
	}
	log.Printf("Seeded admin user %q", username)
	return nil
}

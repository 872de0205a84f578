package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

// DefaultLoginTimeout bounds a whole login attempt.
const DefaultLoginTimeout = 10 * time.Second

// Pinger reports whether the user store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Gate runs a login attempt against a Verifier. Every failure other than the
// timeout is reported as ErrInvalidCredentials.
type Gate struct {
	verifier Verifier
	pinger   Pinger
	timeout  time.Duration
}

func NewGate(verifier Verifier, pinger Pinger, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	return &Gate{verifier: verifier, pinger: pinger, timeout: timeout}
}

// Login checks the credentials and returns the session user.
func (g *Gate) Login(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		user User
		err  error
	}
	done := make(chan result, 1)
	go func() {
		user, err := g.attempt(ctx, username, password)
		done <- result{user, err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Printf("WARN: login for %q timed out after %s", username, g.timeout)
			return User{}, ErrLoginTimeout
		}
		return User{}, ErrInvalidCredentials
	case r := <-done:
		if r.err != nil {
			if !errors.Is(r.err, ErrInvalidCredentials) {
				log.Printf("WARN: login for %q failed: %v", username, r.err)
			}
			if errors.Is(r.err, context.DeadlineExceeded) {
				return User{}, ErrLoginTimeout
			}
			return User{}, ErrInvalidCredentials
		}
		return r.user, nil
	}
}

func (g *Gate) attempt(ctx context.Context, username, password string) (User, error) {
	if g.pinger != nil {
		if err := g.pinger.Ping(ctx); err != nil {
			return User{}, err
		}
	}
	return g.verifier.Verify(ctx, username, password)
}

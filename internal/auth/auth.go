package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// User is the admin identity carried by the session cookie.
type User struct {
	ID       string `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
}

// Claims is the session token payload.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

const (
	// DefaultSessionTTL applies when no TTL is configured.
	DefaultSessionTTL = 30 * 24 * time.Hour

	sessionIssuer = "agency-cms"
)

var ErrInvalidSession = errors.New("invalid session")

// GenerateSessionToken signs an HS256 token for user that expires after ttl.
func GenerateSessionToken(user User, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := time.Now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Username: user.Username,
	}).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken verifies a session token and returns its user.
func ParseSessionToken(raw, secret string) (User, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return User{}, fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}
	return User{ID: claims.Subject, Username: claims.Username}, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Package tokens issues and verifies the API's own HS256 access tokens.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unified-feedback/unified/backend/internal/accounts"
	"github.com/unified-feedback/unified/backend/internal/config"
	"github.com/unified-feedback/unified/backend/pkg/middleware"
)

// GenerateAccessToken creates a signed JWT access token for the account.
// The subject is the account's identity-provider uid.
func GenerateAccessToken(cfg *config.Config, a *accounts.Account, ttl time.Duration) (string, error) {
	if cfg.JWT.Secret == "" {
		return "", errors.New("JWT secret is not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   a.UID,
		"aid":   a.ID,
		"email": a.Email,
		"name":  a.DisplayName,
		"iss":   cfg.JWT.Issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// Remaining returns how long a token signed with secret stays valid, or 0
// when it cannot be parsed or has expired.
func Remaining(secret, raw string) time.Duration {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	if d := time.Until(exp.Time); d > 0 {
		return d
	}
	return 0
}

type mapToken map[string]interface{}

func (t mapToken) Claims(v interface{}) error {
	m, ok := v.(*map[string]interface{})
	if !ok {
		return fmt.Errorf("unsupported claims target %T", v)
	}
	*m = map[string]interface{}(t)
	return nil
}

// Verifier checks tokens produced by GenerateAccessToken.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(cfg *config.Config) (*Verifier, error) {
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT secret is not configured")
	}
	return &Verifier{secret: []byte(cfg.JWT.Secret), issuer: cfg.JWT.Issuer}, nil
}

func (v *Verifier) Verify(_ context.Context, raw string) (middleware.Token, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) { return v.secret, nil }, opts...); err != nil {
		return nil, fmt.Errorf("app token: %w", err)
	}
	return mapToken(claims), nil
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unified-feedback/unified/backend/internal/accounts"
	"github.com/unified-feedback/unified/backend/internal/apperr"
	"github.com/unified-feedback/unified/backend/internal/sessions"
	"github.com/unified-feedback/unified/backend/pkg/logger"
)

// Context keys set by the middlewares in this file.
const (
	ClaimsKey  = "claims"
	TokenKey   = "token"
	AccountKey = "account"
)

// UIDHeader is the legacy identity header sent by the original dashboard.
const UIDHeader = "firebase-uid"

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// ChainVerifier tries each verifier in order and accepts the first success.
type ChainVerifier []Verifier

func (ch ChainVerifier) Verify(ctx context.Context, raw string) (Token, error) {
	var errs []error
	for _, v := range ch {
		if v == nil {
			continue
		}
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no token verifier configured")
	}
	return nil, errors.Join(errs...)
}

type authOptions struct {
	trustUIDHeader bool
}

type AuthOption func(*authOptions)

// WithUIDHeader accepts the firebase-uid header as identity when no bearer
// token is sent. Only for development and integration setups.
func WithUIDHeader(enabled bool) AuthOption {
	return func(o *authOptions) { o.trustUIDHeader = enabled }
}

func bearer(c *gin.Context) (string, bool) {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using
// the provided verifier and stores the claims under ClaimsKey.
func AuthMiddleware(ver Verifier, opts ...AuthOption) gin.HandlerFunc {
	var o authOptions
	for _, fn := range opts {
		fn(&o)
	}
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if uid := strings.TrimSpace(c.GetHeader(UIDHeader)); o.trustUIDHeader && uid != "" {
				logger.Debugf("auth: trusting %s header for %s", UIDHeader, uid)
				c.Set(ClaimsKey, map[string]interface{}{"sub": uid})
				c.Next()
				return
			}
			unauthorized(c, "missing Authorization header")
			return
		}
		token, ok := bearer(c)
		if !ok {
			unauthorized(c, "invalid Authorization header")
			return
		}

		blacklisted, err := sessions.IsAccessTokenBlacklisted(c.Request.Context(), token)
		if err != nil {
			logger.Warnf("auth: blacklist check failed: %v", err)
		}
		if blacklisted {
			unauthorized(c, "token revoked")
			return
		}

		verified, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Debugf("auth: token rejected: %v", err)
			unauthorized(c, "invalid token")
			return
		}

		var claims map[string]interface{}
		if err := verified.Claims(&claims); err != nil {
			unauthorized(c, "failed to parse claims")
			return
		}
		if sub, _ := claims["sub"].(string); sub == "" {
			unauthorized(c, "token has no subject")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// Claims returns the verified claims, or nil before AuthMiddleware ran.
func Claims(c *gin.Context) map[string]interface{} {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	cm, _ := v.(map[string]interface{})
	return cm
}

// Subject returns the verified "sub" claim or "".
func Subject(c *gin.Context) string {
	sub, _ := Claims(c)["sub"].(string)
	return sub
}

// RawToken returns the verified bearer token or "".
func RawToken(c *gin.Context) string { return c.GetString(TokenKey) }

// AccountLookup resolves an identity subject to its account.
type AccountLookup interface {
	Get(ctx context.Context, uid string) (*accounts.Account, error)
}

// RequireAccount resolves the verified subject to a registered account and
// stores it under AccountKey. Unknown subjects are rejected with 401.
func RequireAccount(lookup AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub := Subject(c)
		if sub == "" {
			unauthorized(c, "no authenticated identity")
			return
		}
		a, err := lookup.Get(c.Request.Context(), sub)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				unauthorized(c, "account not registered")
				return
			}
			logger.Errorf("auth: resolve account %s: %v", sub, err)
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "could not load account"})
			return
		}
		c.Set(AccountKey, a)
		c.Next()
	}
}

// Account returns the account stored by RequireAccount, or nil.
func Account(c *gin.Context) *accounts.Account {
	v, ok := c.Get(AccountKey)
	if !ok {
		return nil
	}
	a, _ := v.(*accounts.Account)
	return a
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unified-feedback/unified/backend/internal/accounts"
	"github.com/unified-feedback/unified/backend/internal/apperr"
	"github.com/unified-feedback/unified/backend/internal/config"
	"github.com/unified-feedback/unified/backend/internal/sessions"
	"github.com/unified-feedback/unified/backend/internal/tokens"
	"github.com/unified-feedback/unified/backend/pkg/logger"
	"github.com/unified-feedback/unified/backend/pkg/middleware"
)

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	accounts    *accounts.Service
	sessionsSvc *sessions.Service
}

func NewAuthHandler(cfg *config.Config, a *accounts.Service, s *sessions.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, accounts: a, sessionsSvc: s}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup, g Guards) {
	a := rg.Group("/auth")
	a.POST("/register", g.identity(h.SignUp)...)
	a.POST("/login", g.identity(h.Login)...)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
	a.GET("/me", g.account(h.Me)...)
	a.DELETE("/user", g.account(h.DeleteUser)...)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// SignUp creates the account of the verified identity. Profile fields missing
// from the body are taken from the token claims.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var p accounts.Profile
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&p); err != nil {
			badRequest(c, err)
			return
		}
	}
	claims := middleware.Claims(c)
	if p.Email == "" {
		p.Email, _ = claims["email"].(string)
	}
	if p.DisplayName == "" {
		p.DisplayName, _ = claims["name"].(string)
	}
	if p.PhotoURL == "" {
		p.PhotoURL, _ = claims["picture"].(string)
	}
	a, created, err := h.accounts.Register(c.Request.Context(), middleware.Subject(c), p)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"user": a})
}

// Login returns the registered account and, when app tokens are enabled, a
// fresh access/refresh token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	a, err := h.accounts.Login(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if h.cfg.JWT.Secret == "" {
		c.JSON(http.StatusOK, gin.H{"user": a})
		return
	}
	rft, err := h.sessionsSvc.CreateSession(c.Request.Context(), a.UID, h.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		writeError(c, apperr.Upstream("create session", err))
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, a, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":         a,
		"accessToken":  access,
		"refreshToken": rft,
		"expiresIn":    int(h.cfg.JWT.AccessTokenTTL.Seconds()),
	})
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := h.sessionsSvc.ValidateRefresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, apperr.Upstream("validate session", err))
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	a, err := h.accounts.Get(c.Request.Context(), sess.UID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
			return
		}
		writeError(c, err)
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, a, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "expiresIn": int(h.cfg.JWT.AccessTokenTTL.Seconds())})
}

// Logout invalidates the refresh token and blacklists the bearer access
// token for the rest of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if scheme, at, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		if ttl := tokens.Remaining(h.cfg.JWT.Secret, strings.TrimSpace(at)); ttl > 0 {
			if err := sessions.BlacklistAccessToken(c.Request.Context(), strings.TrimSpace(at), ttl); err != nil {
				logger.Errorf("logout: blacklist access token: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
				return
			}
		}
	}
	if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
		writeError(c, apperr.Upstream("remove session", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.Account(c)})
}

// DeleteUser removes the caller's account with all its projects and responses.
// Refresh sessions go first so a failed delete can only leave the caller
// signed out.
func (h *AuthHandler) DeleteUser(c *gin.Context) {
	if _, err := h.sessionsSvc.RevokeAll(c.Request.Context(), middleware.Subject(c)); err != nil {
		writeError(c, apperr.Upstream("revoke sessions", err))
		return
	}
	if err := h.accounts.Delete(c.Request.Context(), middleware.Subject(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

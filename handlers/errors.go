package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unified-feedback/unified/backend/internal/apperr"
	"github.com/unified-feedback/unified/backend/internal/export"
	"github.com/unified-feedback/unified/backend/internal/form"
	"github.com/unified-feedback/unified/backend/internal/summary"
	"github.com/unified-feedback/unified/backend/pkg/logger"
)

// Guards are the middlewares in front of authenticated routes: Identity
// verifies the bearer token, Account resolves it to a registered account.
type Guards struct {
	Identity gin.HandlerFunc
	Account  gin.HandlerFunc
}

func (g Guards) identity(h gin.HandlerFunc) []gin.HandlerFunc {
	return compact(g.Identity, h)
}

func (g Guards) account(h gin.HandlerFunc) []gin.HandlerFunc {
	return compact(g.Identity, g.Account, h)
}

func compact(hs ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// statusOf maps a service error to its HTTP status.
func statusOf(err error) int {
	if errors.Is(err, summary.ErrNotConfigured) || errors.Is(err, export.ErrNotConfigured) {
		return http.StatusServiceUnavailable
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError renders err as a JSON error body. Upstream and unclassified
// causes are logged and replaced by a generic message.
func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	var v *form.Violation
	if errors.As(err, &v) {
		body := gin.H{"error": v.Message, "code": v.Code, "index": v.Index}
		if v.Field != "" {
			body["field"] = v.Field
		}
		c.JSON(status, body)
		return
	}
	switch status {
	case http.StatusBadGateway:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		msg := "upstream failure"
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Message != "" {
			msg = ae.Message + " failed"
		}
		c.JSON(status, gin.H{"error": msg})
	case http.StatusInternalServerError:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

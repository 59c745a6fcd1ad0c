package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unified-feedback/unified/backend/internal/apperr"
	"github.com/unified-feedback/unified/backend/internal/form"
	"github.com/unified-feedback/unified/backend/internal/widget"
	"github.com/unified-feedback/unified/backend/pkg/logger"
)

// ProjectGetter loads a project by id.
type ProjectGetter interface {
	Get(ctx context.Context, id string) (*form.Project, error)
}

// EmbedHandler serves the widget as plain HTML pages, one field per page.
// The flow state travels in the posted form so the server keeps none.
type EmbedHandler struct {
	projects  ProjectGetter
	submitter widget.Submitter
	limit     gin.HandlerFunc
}

func NewEmbedHandler(p ProjectGetter, s widget.Submitter, limit gin.HandlerFunc) *EmbedHandler {
	return &EmbedHandler{projects: p, submitter: s, limit: limit}
}

// Register adds the embed routes to r. The engine's HTML renderer must have
// widget.Templates() loaded.
func (h *EmbedHandler) Register(r gin.IRoutes) {
	r.GET("/embed/:id", h.Show)
	r.POST("/embed/:id", compact(h.limit, h.Step)...)
}

func (h *EmbedHandler) load(c *gin.Context) (*form.Project, bool) {
	p, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			logger.Errorf("embed: load %s: %v", c.Param("id"), err)
		}
		c.String(status, http.StatusText(status))
		return nil, false
	}
	return p, true
}

func (h *EmbedHandler) Show(c *gin.Context) {
	p, ok := h.load(c)
	if !ok {
		return
	}
	f, err := widget.NewFlow(p, h.submitter)
	if err != nil {
		c.String(http.StatusNotFound, "this form has no questions")
		return
	}
	h.render(c, http.StatusOK, f, nil)
}

// Step applies one previous/next action to the flow carried by the request.
func (h *EmbedHandler) Step(c *gin.Context) {
	p, ok := h.load(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "malformed form")
		return
	}
	step, _ := strconv.Atoi(c.PostForm("step"))
	answers := map[string]string{}
	for k, vs := range c.Request.PostForm {
		if id, ok := strings.CutPrefix(k, widget.AnswerPrefix); ok && len(vs) > 0 {
			answers[id] = vs[len(vs)-1]
		}
	}
	f, err := widget.Restore(p, h.submitter, step, answers)
	if err != nil {
		c.String(http.StatusNotFound, "this form has no questions")
		return
	}

	if c.PostForm("action") == "previous" {
		err = f.Previous()
	} else {
		err = f.Next(c.Request.Context())
	}
	status := http.StatusOK
	var se *widget.SubmitError
	var fe *widget.FieldError
	switch {
	case errors.As(err, &se):
		status = statusOf(se.Err)
		if apperr.KindOf(se.Err) != apperr.KindValidation {
			logger.Warnf("embed: submit %s: %v", p.ID, se.Err)
		}
	case errors.As(err, &fe):
		status = http.StatusUnprocessableEntity
	}
	h.render(c, status, f, err)
}

func (h *EmbedHandler) render(c *gin.Context, status int, f *widget.Flow, flowErr error) {
	page, err := widget.NewPage(f, c.Request.URL.Path, flowErr)
	if err != nil {
		logger.Errorf("embed: render %s: %v", f.Project().ID, err)
		c.String(http.StatusInternalServerError, "this form cannot be displayed")
		return
	}
	c.HTML(status, widget.TemplateName, page)
}

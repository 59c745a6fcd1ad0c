package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unified-feedback/unified/backend/internal/feedback"
	"github.com/unified-feedback/unified/backend/internal/form"
	"github.com/unified-feedback/unified/backend/pkg/middleware"
)

// FeedbackHandler accepts anonymous submissions and lists them to project
// owners.
type FeedbackHandler struct {
	svc   *feedback.Service
	limit gin.HandlerFunc
}

// NewFeedbackHandler wires the feedback routes. limit, when set, guards the
// anonymous submit route.
func NewFeedbackHandler(svc *feedback.Service, limit gin.HandlerFunc) *FeedbackHandler {
	return &FeedbackHandler{svc: svc, limit: limit}
}

func (h *FeedbackHandler) Register(rg *gin.RouterGroup, g Guards) {
	f := rg.Group("/feedback")
	f.POST("", compact(h.limit, h.Submit)...)
	f.GET("/project/:id", g.account(h.ListByProject)...)
	f.GET("/:id", g.account(h.Get)...)
}

type submitRequest struct {
	ProjectID string       `json:"projectId" binding:"required"`
	Answers   form.Answers `json:"formAnswers"`
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	fb, err := h.svc.Submit(c.Request.Context(), req.ProjectID, req.Answers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

// ListByProject returns the project's responses, newest first.
func (h *FeedbackHandler) ListByProject(c *gin.Context) {
	_, list, err := h.svc.ListByProject(c.Request.Context(), middleware.Account(c).ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []*form.Feedback{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *FeedbackHandler) Get(c *gin.Context) {
	fb, err := h.svc.Get(c.Request.Context(), middleware.Account(c).ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unified-feedback/unified/backend/internal/export"
	"github.com/unified-feedback/unified/backend/internal/form"
	"github.com/unified-feedback/unified/backend/internal/projects"
	"github.com/unified-feedback/unified/backend/internal/summary"
	"github.com/unified-feedback/unified/backend/pkg/middleware"
)

// ProjectsHandler serves the dashboard's project CRUD plus the summary and
// export actions on a project.
type ProjectsHandler struct {
	projects  *projects.Service
	summaries *summary.Service
	exporter  *export.Exporter
	publicURL string
}

// NewProjectsHandler wires the project routes. publicURL, when set, is used
// to hand out the embed page link of created projects.
func NewProjectsHandler(p *projects.Service, s *summary.Service, e *export.Exporter, publicURL string) *ProjectsHandler {
	return &ProjectsHandler{projects: p, summaries: s, exporter: e, publicURL: strings.TrimRight(publicURL, "/")}
}

func (h *ProjectsHandler) Register(rg *gin.RouterGroup, g Guards) {
	p := rg.Group("/projects")
	p.POST("", g.account(h.Create)...)
	p.GET("", g.account(h.List)...)
	p.GET("/:id", h.Get)
	p.PUT("/:id", g.account(h.Replace)...)
	p.DELETE("/:id", g.account(h.Delete)...)
	p.GET("/:id/summary", g.account(h.LatestSummary)...)
	p.POST("/:id/summary", g.account(h.Summarize)...)
	p.POST("/:id/export", g.account(h.Export)...)
}

type projectResponse struct {
	*form.Project
	Warnings []form.Warning `json:"warnings,omitempty"`
	EmbedURL string         `json:"embedUrl,omitempty"`
}

func (h *ProjectsHandler) response(p *form.Project, warnings []form.Warning) projectResponse {
	r := projectResponse{Project: p, Warnings: warnings}
	if h.publicURL != "" {
		r.EmbedURL = h.publicURL + "/embed/" + p.ID
	}
	return r
}

func (h *ProjectsHandler) Create(c *gin.Context) {
	var d form.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, err)
		return
	}
	p, warnings, err := h.projects.Create(c.Request.Context(), middleware.Account(c).ID, d)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.response(p, warnings))
}

// List returns the caller's projects, oldest first.
func (h *ProjectsHandler) List(c *gin.Context) {
	ps, err := h.projects.List(c.Request.Context(), middleware.Account(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if ps == nil {
		ps = []*form.Project{}
	}
	c.JSON(http.StatusOK, ps)
}

// Get is public: the widget loads project definitions without credentials.
func (h *ProjectsHandler) Get(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProjectsHandler) Replace(c *gin.Context) {
	var d form.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, err)
		return
	}
	p, warnings, err := h.projects.Replace(c.Request.Context(), middleware.Account(c).ID, c.Param("id"), d)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.response(p, warnings))
}

func (h *ProjectsHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), middleware.Account(c).ID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProjectsHandler) LatestSummary(c *gin.Context) {
	rec, err := h.summaries.Latest(c.Request.Context(), middleware.Account(c).ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *ProjectsHandler) Summarize(c *gin.Context) {
	rec, err := h.summaries.Generate(c.Request.Context(), middleware.Account(c).ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Export uploads the responses as CSV and returns a presigned download link.
func (h *ProjectsHandler) Export(c *gin.Context) {
	res, err := h.exporter.Export(c.Request.Context(), middleware.Account(c).ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

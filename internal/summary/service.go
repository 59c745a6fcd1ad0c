package summary

import (
	"context"
	"errors"

	"github.com/unified-feedback/unified/backend/internal/apperr"
	"github.com/unified-feedback/unified/backend/internal/form"
)

// ErrNotConfigured is returned by Generate when no model is wired.
var ErrNotConfigured = errors.New("summarizer is not configured")

// ResponseSource lists a project's responses for its owner.
type ResponseSource interface {
	ListByProject(ctx context.Context, ownerID, projectID string) (*form.Project, []*form.Feedback, error)
}

// OwnedProjects checks project ownership.
type OwnedProjects interface {
	GetOwned(ctx context.Context, ownerID, id string) (*form.Project, error)
}

type Service struct {
	responses  ResponseSource
	projects   OwnedProjects
	store      Store
	summarizer *Summarizer
}

// NewService wires the summary use cases. summarizer may be nil, in which
// case Generate reports ErrNotConfigured and Latest still serves stored
// records.
func NewService(responses ResponseSource, projects OwnedProjects, store Store, summarizer *Summarizer) *Service {
	return &Service{responses: responses, projects: projects, store: store, summarizer: summarizer}
}

func (s *Service) Configured() bool { return s.summarizer != nil }

// Generate summarizes every response of the project and stores the result.
func (s *Service) Generate(ctx context.Context, ownerID, projectID string) (*Record, error) {
	if s.summarizer == nil {
		return nil, ErrNotConfigured
	}
	p, list, err := s.responses.ListByProject(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	rec, err := s.summarizer.Summarize(ctx, p, list)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, apperr.Upstream("store summary", err)
	}
	return rec, nil
}

// Latest returns the stored summary of a project.
func (s *Service) Latest(ctx context.Context, ownerID, projectID string) (*Record, error) {
	if _, err := s.projects.GetOwned(ctx, ownerID, projectID); err != nil {
		return nil, err
	}
	rec, err := s.store.Load(ctx, projectID)
	if err != nil {
		return nil, apperr.Upstream("load summary", err)
	}
	if rec == nil {
		return nil, apperr.NotFound("no summary for project %s", projectID)
	}
	return rec, nil
}

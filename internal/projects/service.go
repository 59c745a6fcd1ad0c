package projects

import (
	"context"
	"errors"

	"github.com/unified-feedback/unified/backend/internal/apperr"
	"github.com/unified-feedback/unified/backend/internal/form"
	"github.com/unified-feedback/unified/backend/pkg/logger"
	"github.com/unified-feedback/unified/backend/pkg/metrics"
)

// Dependent holds records that belong to a project and must go with it.
type Dependent interface {
	DeleteByProject(ctx context.Context, projectID string) (int, error)
}

// Service is the project lifecycle: build, store, replace, delete with cascade.
type Service struct {
	repo       Repository
	dependents []Dependent
}

func NewService(repo Repository, dependents ...Dependent) *Service {
	return &Service{repo: repo, dependents: dependents}
}

// OnDelete adds dependents that are built after the service, such as those
// that read responses through it. Call it before serving requests.
func (s *Service) OnDelete(dependents ...Dependent) {
	s.dependents = append(s.dependents, dependents...)
}

// Create validates d and stores it as a new project owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, d form.Draft) (p *form.Project, warnings []form.Warning, err error) {
	defer func() { metrics.ProjectOps.WithLabelValues("create", metrics.Outcome(err)).Inc() }()
	p, warnings, err = form.Build(d, ownerID)
	if err != nil {
		return nil, nil, apperr.Validation(err)
	}
	logWarnings(p.ID, warnings)
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, nil, apperr.Upstream("store project", err)
	}
	return p, warnings, nil
}

// List returns ownerID's projects, oldest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*form.Project, error) {
	ps, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Upstream("list projects", err)
	}
	return ps, nil
}

// Get loads a project by id without an ownership check; the widget reads
// project definitions anonymously.
func (s *Service) Get(ctx context.Context, id string) (*form.Project, error) {
	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("project %s not found", id)
	}
	if err != nil {
		return nil, apperr.Upstream("load project", err)
	}
	return p, nil
}

// GetOwned is Get restricted to ownerID. Projects of other owners are
// reported as missing.
func (s *Service) GetOwned(ctx context.Context, ownerID, id string) (*form.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, apperr.NotFound("project %s not found", id)
	}
	return p, nil
}

// Replace swaps name, description, theme and fields wholesale. Concurrent
// replaces are last-write-wins.
func (s *Service) Replace(ctx context.Context, ownerID, id string, d form.Draft) (p *form.Project, warnings []form.Warning, err error) {
	defer func() { metrics.ProjectOps.WithLabelValues("replace", metrics.Outcome(err)).Inc() }()
	existing, err := s.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	p, warnings, err = form.Replace(existing, d)
	if err != nil {
		return nil, nil, apperr.Validation(err)
	}
	logWarnings(p.ID, warnings)
	if err := s.repo.Replace(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, apperr.NotFound("project %s not found", id)
		}
		return nil, nil, apperr.Upstream("replace project", err)
	}
	return p, warnings, nil
}

// Delete removes the project, then its dependents. Records left behind by a
// failed cascade are unreachable since no project resolves them.
func (s *Service) Delete(ctx context.Context, ownerID, id string) (err error) {
	defer func() { metrics.ProjectOps.WithLabelValues("delete", metrics.Outcome(err)).Inc() }()
	if _, err := s.GetOwned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return apperr.Upstream("delete project", err)
	}
	return s.deleteDependents(ctx, id)
}

func (s *Service) deleteDependents(ctx context.Context, id string) error {
	for _, d := range s.dependents {
		n, err := d.DeleteByProject(ctx, id)
		if err != nil {
			return apperr.Upstream("delete project records", err)
		}
		logger.Debugf("projects: removed %d records of %s", n, id)
	}
	return nil
}

// DeleteAllForOwner deletes every project of ownerID with its dependents.
func (s *Service) DeleteAllForOwner(ctx context.Context, ownerID string) (int, error) {
	ps, err := s.List(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	for i, p := range ps {
		if err := s.Delete(ctx, ownerID, p.ID); err != nil {
			return i, err
		}
	}
	return len(ps), nil
}

func logWarnings(id string, warnings []form.Warning) {
	for _, w := range warnings {
		logger.Warnf("projects: %s: %s (field %d): %s", id, w.Code, w.Index, w.Message)
	}
}

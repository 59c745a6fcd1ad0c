package feedback

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/unified-feedback/unified/backend/internal/apperr"
	"github.com/unified-feedback/unified/backend/internal/form"
	"github.com/unified-feedback/unified/backend/pkg/metrics"
)

// ProjectSource resolves the project a submission or listing refers to.
type ProjectSource interface {
	Get(ctx context.Context, id string) (*form.Project, error)
	GetOwned(ctx context.Context, ownerID, id string) (*form.Project, error)
}

type Service struct {
	repo     Repository
	projects ProjectSource
	now      func() time.Time
}

func NewService(repo Repository, projects ProjectSource) *Service {
	return &Service{repo: repo, projects: projects, now: func() time.Time { return time.Now().UTC() }}
}

// Submit stores answers for projectID under a fresh id and server timestamp.
// Identical submissions produce distinct records.
func (s *Service) Submit(ctx context.Context, projectID string, answers form.Answers) (fb *form.Feedback, err error) {
	defer func() { metrics.FeedbackSubmissions.WithLabelValues(metrics.Outcome(err)).Inc() }()
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	checked, err := form.CheckAnswers(p, answers)
	if err != nil {
		return nil, apperr.Validation(err)
	}
	fb = &form.Feedback{
		ID:          primitive.NewObjectID().Hex(),
		ProjectID:   p.ID,
		Answers:     checked,
		SubmittedAt: s.now().Truncate(time.Millisecond),
	}
	if err := s.repo.Insert(ctx, fb); err != nil {
		return nil, apperr.Upstream("store feedback", err)
	}
	return fb, nil
}

// ListByProject returns a project's responses, newest first, to its owner.
func (s *Service) ListByProject(ctx context.Context, ownerID, projectID string) (*form.Project, []*form.Feedback, error) {
	p, err := s.projects.GetOwned(ctx, ownerID, projectID)
	if err != nil {
		return nil, nil, err
	}
	list, err := s.repo.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, nil, apperr.Upstream("list feedback", err)
	}
	return p, list, nil
}

// Get returns one response to the owner of its project.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*form.Feedback, error) {
	fb, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("feedback %s not found", id)
	}
	if err != nil {
		return nil, apperr.Upstream("load feedback", err)
	}
	if _, err := s.projects.GetOwned(ctx, ownerID, fb.ProjectID); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.NotFound("feedback %s not found", id)
		}
		return nil, err
	}
	return fb, nil
}

// DeleteByProject removes every response of projectID.
func (s *Service) DeleteByProject(ctx context.Context, projectID string) (int, error) {
	return s.repo.DeleteByProject(ctx, projectID)
}

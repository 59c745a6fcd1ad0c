package accounts

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/unified-feedback/unified/backend/internal/apperr"
	"github.com/unified-feedback/unified/backend/internal/form"
	"github.com/unified-feedback/unified/backend/pkg/logger"
)

// ProjectRemover deletes every project an account owns, with their
// dependents.
type ProjectRemover interface {
	DeleteAllForOwner(ctx context.Context, ownerID string) (int, error)
}

// Service encapsulates account-related business logic
type Service struct {
	repo     Repository
	projects ProjectRemover
}

func NewService(r Repository, projects ProjectRemover) *Service {
	return &Service{repo: r, projects: projects}
}

// Register creates the account for uid on first sighting. Later calls
// return the stored account unchanged with created=false.
func (s *Service) Register(ctx context.Context, uid string, p Profile) (*Account, bool, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, false, apperr.Auth("missing identity")
	}
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" || !form.ValidEmail(email) {
		return nil, false, apperr.Validation(errors.New("a valid email is required"))
	}
	a := &Account{
		ID:          primitive.NewObjectID().Hex(),
		UID:         uid,
		Email:       email,
		DisplayName: strings.TrimSpace(p.DisplayName),
		PhotoURL:    strings.TrimSpace(p.PhotoURL),
	}
	stored, created, err := s.repo.CreateIfAbsent(ctx, a)
	if errors.Is(err, ErrEmailTaken) {
		return nil, false, apperr.Validation(err)
	}
	if err != nil {
		return nil, false, apperr.Upstream("store account", err)
	}
	if created {
		logger.Infof("accounts: registered %s", stored.ID)
	}
	return stored, created, nil
}

// Get returns the account for uid, or a NotFound error.
func (s *Service) Get(ctx context.Context, uid string) (*Account, error) {
	a, err := s.repo.GetByUID(ctx, uid)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, apperr.Upstream("load account", err)
	}
	return a, nil
}

// Login is Get under the name the auth API uses.
func (s *Service) Login(ctx context.Context, uid string) (*Account, error) {
	return s.Get(ctx, uid)
}

// Delete removes the account after its projects, their responses and
// summaries. A failure part way leaves the account in place so the call can
// be repeated.
func (s *Service) Delete(ctx context.Context, uid string) error {
	a, err := s.Get(ctx, uid)
	if err != nil {
		return err
	}
	if s.projects != nil {
		n, err := s.projects.DeleteAllForOwner(ctx, a.ID)
		if err != nil {
			return err
		}
		logger.Infof("accounts: removed %d projects of %s", n, a.ID)
	}
	if err := s.repo.DeleteByUID(ctx, uid); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("account not found")
		}
		return apperr.Upstream("delete account", err)
	}
	return nil
}

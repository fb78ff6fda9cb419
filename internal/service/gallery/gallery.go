// Package gallery applies ownership rules to user images
package gallery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erauner12/genvault/internal/auth"
	"github.com/erauner12/genvault/internal/store"
)

var (
	// ErrForbidden is returned when the actor neither owns the image nor is a superuser
	ErrForbidden = errors.New("not enough permissions")

	// ErrNotFound is returned to superusers for missing images
	ErrNotFound = errors.New("images not found")

	// ErrDuplicate is returned when an image with the same id already exists
	ErrDuplicate = errors.New("images already exists")

	// ErrInvalidInput is returned for a missing title or url
	ErrInvalidInput = errors.New("title and url are required")
)

// ImageStore is the persistence gallery needs
// *store.Store satisfies it
type ImageStore interface {
	CreateImage(ctx context.Context, img store.Image) (*store.Image, error)
	GetImage(ctx context.Context, id string) (*store.Image, error)
	ListImages(ctx context.Context, skip, limit int) ([]store.Image, error)
	ListImagesByOwner(ctx context.Context, ownerID string, skip, limit int) ([]store.Image, error)
	UpdateImage(ctx context.Context, id string, upd store.ImageUpdate) (*store.Image, error)
	DeleteImage(ctx context.Context, id string) error
}

// Service applies ownership rules on top of an ImageStore
type Service struct {
	Images ImageStore
}

// NewService creates a Service
func NewService(images ImageStore) *Service {
	return &Service{Images: images}
}

// Create stores a new image owned by actor
func (s *Service) Create(ctx context.Context, actor *store.User, img store.Image) (*store.Image, error) {
	img.Title = strings.TrimSpace(img.Title)
	img.URL = strings.TrimSpace(img.URL)
	if img.Title == "" || img.URL == "" {
		return nil, ErrInvalidInput
	}
	img.OwnerID = actor.ID

	created, err := s.Images.CreateImage(ctx, img)
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil, ErrDuplicate
	}
	return created, err
}

// Get loads an image the actor may see
// A missing image is ErrNotFound for superusers and ErrForbidden for everyone else
func (s *Service) Get(ctx context.Context, actor *store.User, id string) (*store.Image, error) {
	img, err := s.Images.GetImage(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if auth.IsSuperuser(actor) {
			return nil, ErrNotFound
		}
		return nil, ErrForbidden
	case err != nil:
		return nil, fmt.Errorf("get image %s: %w", id, err)
	}
	if !auth.CanAccess(actor, img.OwnerID) {
		return nil, ErrForbidden
	}
	return img, nil
}

// List returns every image for superusers and the actor's own images otherwise
func (s *Service) List(ctx context.Context, actor *store.User, skip, limit int) ([]store.Image, error) {
	if auth.IsSuperuser(actor) {
		return s.Images.ListImages(ctx, skip, limit)
	}
	return s.Images.ListImagesByOwner(ctx, actor.ID, skip, limit)
}

// ListOwn returns the actor's own images
func (s *Service) ListOwn(ctx context.Context, actor *store.User, skip, limit int) ([]store.Image, error) {
	return s.Images.ListImagesByOwner(ctx, actor.ID, skip, limit)
}

// Update applies a partial update to an image the actor may see
func (s *Service) Update(ctx context.Context, actor *store.User, id string, upd store.ImageUpdate) (*store.Image, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	if (upd.Title != nil && strings.TrimSpace(*upd.Title) == "") || (upd.URL != nil && strings.TrimSpace(*upd.URL) == "") {
		return nil, ErrInvalidInput
	}
	return s.Images.UpdateImage(ctx, id, upd)
}

// Delete removes an image the actor may see and returns it
func (s *Service) Delete(ctx context.Context, actor *store.User, id string) (*store.Image, error) {
	img, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.Images.DeleteImage(ctx, id); err != nil {
		return nil, err
	}
	return img, nil
}

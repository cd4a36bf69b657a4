package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/deckforge/collab-service/internal/domain"
	"github.com/deckforge/collab-service/internal/postgres"
)

type PresentationService struct {
	repo *postgres.PresentationRepository
}

func NewPresentationService(repo *postgres.PresentationRepository) *PresentationService {
	return &PresentationService{repo: repo}
}

// Create registers a new deck record so clients have a session id to meet on.
func (s *PresentationService) Create(ctx context.Context, title string) (*domain.Presentation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	if len(title) > 200 {
		title = title[:200]
	}

	p := &domain.Presentation{Title: title}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("repo.Create: %w", err)
	}
	return p, nil
}

func (s *PresentationService) Get(ctx context.Context, id string) (*domain.Presentation, error) {
	return s.repo.Get(ctx, id)
}

// List returns deck records with cursor pagination.
func (s *PresentationService) List(ctx context.Context, limit int, cursor string) ([]domain.Presentation, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	return s.repo.List(ctx, limit, cursor)
}

func (s *PresentationService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

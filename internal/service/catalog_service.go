package service

import (
	"context"
	"errors"

	"github.com/learningneeds/shop/internal/domain"
	"github.com/learningneeds/shop/internal/repository"
)

type CatalogService struct {
	repo repository.CatalogRepository
}

func NewCatalogService(repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) ListItems(ctx context.Context) ([]*domain.CatalogItem, error) {
	return s.repo.ListItems(ctx)
}

func (s *CatalogService) GetItem(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	item, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, repository.ErrItemNotFound) {
		return nil, domain.NewNotFoundError("catalog item", id)
	}
	return item, err
}

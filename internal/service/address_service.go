package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/learningneeds/shop/internal/domain"
	"github.com/learningneeds/shop/internal/repository"
	"go.uber.org/zap"
)

type AddressService struct {
	repo   repository.AddressRepository
	logger *zap.Logger
}

func NewAddressService(repo repository.AddressRepository, logger *zap.Logger) *AddressService {
	return &AddressService{repo: repo, logger: logger}
}

// Save validates and stores a new address for userID. The store makes the first
// address of a user the default.
func (s *AddressService) Save(ctx context.Context, userID string, a domain.Address) (*domain.Address, error) {
	a.ID = uuid.NewString()
	a.UserID = userID
	a.CreatedAt = time.Now().UTC()
	trimAddress(&a)

	if err := a.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.SaveAddress(ctx, &a); err != nil {
		s.logger.Error("save address failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &a, nil
}

func (s *AddressService) List(ctx context.Context, userID string) ([]*domain.Address, error) {
	return s.repo.ListAddresses(ctx, userID)
}

func (s *AddressService) Get(ctx context.Context, userID, id string) (*domain.Address, error) {
	return loadOwnedAddress(ctx, s.repo, userID, id)
}

// loadOwnedAddress hides other users' addresses behind the same error as a
// missing one.
func loadOwnedAddress(ctx context.Context, repo repository.AddressRepository, userID, id string) (*domain.Address, error) {
	a, err := repo.GetAddress(ctx, id)
	if errors.Is(err, repository.ErrAddressNotFound) {
		return nil, domain.NewNotFoundError("address", id)
	}
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, domain.NewNotFoundError("address", id)
	}
	return a, nil
}

func trimAddress(a *domain.Address) {
	for _, f := range []*string{
		&a.FullName, &a.Email, &a.Phone, &a.AddressLine1, &a.AddressLine2,
		&a.City, &a.State, &a.PostalCode, &a.Country,
	} {
		*f = strings.TrimSpace(*f)
	}
}

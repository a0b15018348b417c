package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"lending-admin-api/internal/domain/entities"
	"lending-admin-api/internal/domain/repositories"
)

type ClientUseCase struct {
	repo repositories.ClientRepository
	now  func() time.Time
}

func NewClientUseCase(r repositories.ClientRepository) *ClientUseCase {
	return &ClientUseCase{repo: r, now: time.Now}
}

// Create stores a new, unconnected client.
func (uc *ClientUseCase) Create(ctx context.Context, name, phone string) (*entities.Client, error) {
	now := uc.now().UTC()
	c := &entities.Client{
		ID:        uuid.NewString(),
		Name:      name,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *ClientUseCase) Get(ctx context.Context, id string) (*entities.Client, error) {
	return uc.repo.GetByID(ctx, id)
}

// List returns one page of clients, newest first, and the total count.
func (uc *ClientUseCase) List(ctx context.Context, limit, offset int) ([]entities.Client, int, error) {
	return uc.repo.List(ctx, limit, offset)
}

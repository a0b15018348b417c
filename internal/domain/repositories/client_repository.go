package repositories

import (
	"context"
	"errors"

	"lending-admin-api/internal/domain/entities"
)

// ErrConflict is returned when an insert collides with an existing key.
var ErrConflict = errors.New("conflicting record")

type ClientRepository interface {
	Create(ctx context.Context, c *entities.Client) error
	GetByID(ctx context.Context, id string) (*entities.Client, error)
	List(ctx context.Context, limit, offset int) ([]entities.Client, int, error)
}

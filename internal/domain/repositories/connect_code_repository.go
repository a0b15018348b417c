package repositories

import (
	"context"
	"time"

	"lending-admin-api/internal/domain/entities"
)

type ConnectCodeRepository interface {
	Create(ctx context.Context, cc *entities.ConnectCode) error
	GetByCode(ctx context.Context, code string) (*entities.ConnectCode, error)
	// Redeem marks code used by lineUserID and links the code's client to
	// that LINE account in one transaction, returning the updated client.
	Redeem(ctx context.Context, code, lineUserID string, now time.Time) (*entities.Client, error)
}

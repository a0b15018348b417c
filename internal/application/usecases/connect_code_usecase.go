package usecases

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"lending-admin-api/internal/domain/entities"
	domainerrors "lending-admin-api/internal/domain/errors"
	"lending-admin-api/internal/domain/repositories"
)

// codeAlphabet omits characters that are easy to misread (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const issueAttempts = 3

// RedeemLimiter throttles redeem attempts per LINE account.
type RedeemLimiter interface {
	Allow(key string, now time.Time) error
}

type ConnectCodeConfig struct {
	TTL        time.Duration
	CodeLength int
}

type ConnectCodeUseCase struct {
	codes   repositories.ConnectCodeRepository
	clients repositories.ClientRepository
	limiter RedeemLimiter
	cfg     ConnectCodeConfig
	now     func() time.Time
}

func NewConnectCodeUseCase(codes repositories.ConnectCodeRepository, clients repositories.ClientRepository, limiter RedeemLimiter, cfg ConnectCodeConfig) *ConnectCodeUseCase {
	return &ConnectCodeUseCase{codes: codes, clients: clients, limiter: limiter, cfg: cfg, now: time.Now}
}

// Issue creates a fresh code for an existing, not yet connected client.
func (uc *ConnectCodeUseCase) Issue(ctx context.Context, clientID string) (*entities.ConnectCode, error) {
	client, err := uc.clients.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.Connected() {
		return nil, domainerrors.DuplicateAssociation("client", "Client is already connected to a LINE account")
	}

	now := uc.now().UTC()
	for attempt := 0; attempt < issueAttempts; attempt++ {
		code, err := generateCode(uc.cfg.CodeLength)
		if err != nil {
			return nil, err
		}
		cc := &entities.ConnectCode{
			Code:      code,
			ClientID:  client.ID,
			ExpiresAt: now.Add(uc.cfg.TTL),
			CreatedAt: now,
		}
		err = uc.codes.Create(ctx, cc)
		if errors.Is(err, repositories.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cc, nil
	}
	return nil, fmt.Errorf("could not allocate a unique connect code after %d attempts", issueAttempts)
}

// Redeem links the LINE account to the code's client. Attempts are rate
// limited per LINE account before the code is looked up.
func (uc *ConnectCodeUseCase) Redeem(ctx context.Context, code, lineUserID string) (*entities.Client, error) {
	now := uc.now().UTC()
	if err := uc.limiter.Allow(lineUserID, now); err != nil {
		return nil, err
	}
	return uc.codes.Redeem(ctx, code, lineUserID, now)
}

func generateCode(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid connect code length %d", n)
	}
	alphabetLen := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("generate connect code: %w", err)
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b), nil
}

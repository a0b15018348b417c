package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dbpkg "lending-admin-api/internal/database"
	"lending-admin-api/internal/domain/entities"
	domainerrors "lending-admin-api/internal/domain/errors"
	"lending-admin-api/internal/domain/repositories"
)

const connectCodeColumns = `code, client_id, expires_at, used_at, used_by, created_at`

type ConnectCodeRepo struct {
	db *sql.DB
}

var _ repositories.ConnectCodeRepository = (*ConnectCodeRepo)(nil)

func NewConnectCodeRepo(db *sql.DB) *ConnectCodeRepo { return &ConnectCodeRepo{db: db} }

func (r *ConnectCodeRepo) Create(ctx context.Context, cc *entities.ConnectCode) error {
	var usedAt sql.NullString
	if cc.UsedAt != nil {
		usedAt = sql.NullString{String: dbpkg.FormatTime(*cc.UsedAt), Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO connect_codes (`+connectCodeColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		cc.Code, cc.ClientID, dbpkg.FormatTime(cc.ExpiresAt), usedAt, nullString(cc.UsedBy),
		dbpkg.FormatTime(cc.CreatedAt),
	)
	if dbpkg.IsUniqueViolation(err) {
		return fmt.Errorf("insert connect code: %w", repositories.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert connect code: %w", err)
	}
	return nil
}

func (r *ConnectCodeRepo) GetByCode(ctx context.Context, code string) (*entities.ConnectCode, error) {
	return getConnectCode(ctx, r.db, code)
}

func (r *ConnectCodeRepo) Redeem(ctx context.Context, code, lineUserID string, now time.Time) (*entities.Client, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin redeem: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cc, err := getConnectCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if err := cc.CheckRedeemable(now); err != nil {
		return nil, err
	}

	var linked int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM clients WHERE line_user_id = ?`, lineUserID).Scan(&linked); err != nil {
		return nil, fmt.Errorf("check line account: %w", err)
	}
	if linked > 0 {
		return nil, domainerrors.DuplicateAssociation("client", "LINE account is already connected to a client")
	}

	client, err := getClient(ctx, tx, cc.ClientID)
	if err != nil {
		return nil, err
	}
	if client.Connected() {
		return nil, domainerrors.DuplicateAssociation("client", "Client is already connected to a LINE account")
	}

	stamp := dbpkg.FormatTime(now)
	res, err := tx.ExecContext(ctx,
		`UPDATE connect_codes SET used_at = ?, used_by = ? WHERE code = ? AND used_at IS NULL`,
		stamp, lineUserID, code)
	if err != nil {
		return nil, fmt.Errorf("mark connect code used: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return nil, domainerrors.AlreadyUsed(entities.ConnectCodeResource, "Connect code has already been used")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE clients SET line_user_id = ?, updated_at = ? WHERE id = ? AND line_user_id IS NULL`,
		lineUserID, stamp, client.ID)
	if dbpkg.IsUniqueViolation(err) {
		return nil, domainerrors.DuplicateAssociation("client", "LINE account is already connected to a client")
	}
	if err != nil {
		return nil, fmt.Errorf("link client %s: %w", client.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit redeem: %w", err)
	}
	client.LineUserID = lineUserID
	client.UpdatedAt = now.UTC()
	return client, nil
}

func getConnectCode(ctx context.Context, q querier, code string) (*entities.ConnectCode, error) {
	var (
		cc                   entities.ConnectCode
		usedAt, usedBy       sql.NullString
		expiresAt, createdAt string
	)
	err := q.QueryRowContext(ctx,
		`SELECT `+connectCodeColumns+` FROM connect_codes WHERE code = ?`, code).
		Scan(&cc.Code, &cc.ClientID, &expiresAt, &usedAt, &usedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domainerrors.ResourceError{
			Kind:     domainerrors.KindResourceNotFound,
			Resource: entities.ConnectCodeResource,
			Message:  "Connect code not found",
			Err:      err,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("scan connect code: %w", err)
	}

	if cc.ExpiresAt, err = dbpkg.ParseTime(expiresAt); err != nil {
		return nil, err
	}
	if cc.CreatedAt, err = dbpkg.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if usedAt.Valid {
		t, err := dbpkg.ParseTime(usedAt.String)
		if err != nil {
			return nil, err
		}
		cc.UsedAt = &t
	}
	cc.UsedBy = usedBy.String
	return &cc, nil
}

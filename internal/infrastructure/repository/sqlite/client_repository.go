package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dbpkg "lending-admin-api/internal/database"
	"lending-admin-api/internal/domain/entities"
	domainerrors "lending-admin-api/internal/domain/errors"
	"lending-admin-api/internal/domain/repositories"
)

const clientColumns = `id, name, phone, line_user_id, created_at, updated_at`

type ClientRepo struct {
	db *sql.DB
}

var _ repositories.ClientRepository = (*ClientRepo)(nil)

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{db: db} }

func (r *ClientRepo) Create(ctx context.Context, c *entities.Client) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Phone, nullString(c.LineUserID),
		dbpkg.FormatTime(c.CreatedAt), dbpkg.FormatTime(c.UpdatedAt),
	)
	if dbpkg.IsUniqueViolation(err) {
		return fmt.Errorf("insert client %s: %w", c.ID, repositories.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert client %s: %w", c.ID, err)
	}
	return nil
}

func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entities.Client, error) {
	return getClient(ctx, r.db, id)
}

func (r *ClientRepo) List(ctx context.Context, limit, offset int) ([]entities.Client, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM clients`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	out := make([]entities.Client, 0, limit)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}
	return out, total, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getClient(ctx context.Context, q querier, id string) (*entities.Client, error) {
	c, err := scanClient(q.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domainerrors.ResourceError{
			Kind:     domainerrors.KindResourceNotFound,
			Resource: "client",
			Message:  "Client not found",
			Err:      err,
		}
	}
	return c, err
}

func scanClient(s scanner) (*entities.Client, error) {
	var (
		c                    entities.Client
		lineUserID           sql.NullString
		createdAt, updatedAt string
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Phone, &lineUserID, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan client: %w", err)
	}
	c.LineUserID = lineUserID.String
	var err error
	if c.CreatedAt, err = dbpkg.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = dbpkg.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

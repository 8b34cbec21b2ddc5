// Package emailcodes provides the PostgreSQL-backed repository for emailed
// one-time recovery codes.
package emailcodes

import (
	"context"
	"fmt"
	"time"

	"github.com/dkovalev/folderlock/internal/common"
	"github.com/dkovalev/folderlock/internal/dbx"
	"github.com/dkovalev/folderlock/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, code *models.EmailCode) error {
	query := `
		INSERT INTO email_codes (id, user_id, code_encrypted, purpose, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		code.ID, code.UserID, code.CodeEncrypted, code.Purpose, code.ExpiresAt).Scan(&code.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListActive(ctx context.Context, userID, purpose string, now time.Time) ([]*models.EmailCode, error) {
	query := `
		SELECT id, user_id, code_encrypted, purpose, expires_at, created_at FROM email_codes
		WHERE user_id = $1 AND purpose = $2 AND expires_at > $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, purpose, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.EmailCode
	for rows.Next() {
		var c models.EmailCode
		if err := rows.Scan(&c.ID, &c.UserID, &c.CodeEncrypted, &c.Purpose, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM email_codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM email_codes WHERE expires_at <= $1`, now)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

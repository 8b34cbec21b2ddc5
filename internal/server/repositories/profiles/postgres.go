// Package profiles provides the PostgreSQL-backed repository for per-user
// recovery material (TOTP secret, backup codes, contact email).
package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `
		SELECT user_id, email, totp_secret, backup_codes, created_at, updated_at
		FROM user_profiles WHERE user_id = $1
	`
	p := &models.UserProfile{}
	var codes []byte
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&p.UserID, &p.Email, &p.TOTPSecret, &codes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal(codes, &p.BackupCodes); err != nil {
		return nil, fmt.Errorf("backup codes decode error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, profile *models.UserProfile) error {
	codes, err := json.Marshal(profile.BackupCodes)
	if err != nil {
		return fmt.Errorf("backup codes encode error: %w", err)
	}
	query := `
		INSERT INTO user_profiles (user_id, email, totp_secret, backup_codes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			email = EXCLUDED.email,
			totp_secret = EXCLUDED.totp_secret,
			backup_codes = EXCLUDED.backup_codes,
			updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, profile.UserID, profile.Email, profile.TOTPSecret, codes); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateBackupCodes(ctx context.Context, userID string, backupCodes []string) error {
	if backupCodes == nil {
		backupCodes = []string{}
	}
	codes, err := json.Marshal(backupCodes)
	if err != nil {
		return fmt.Errorf("backup codes encode error: %w", err)
	}
	query := `UPDATE user_profiles SET backup_codes = $2, updated_at = now() WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, codes)
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

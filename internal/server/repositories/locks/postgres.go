// Package locks provides the PostgreSQL-backed repository for folder lock
// records.
package locks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkovalev/folderlock/internal/common"
	"github.com/dkovalev/folderlock/internal/dbx"
	"github.com/dkovalev/folderlock/internal/server/models"
)

// PostgresRepository implements lock storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, lock *models.FolderLock) error {
	query := `
		INSERT INTO folder_locks
			(id, owner_id, folder_id, lock_type, encrypted_payload, salt,
			 is_locked, failed_attempts, max_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		lock.ID, lock.OwnerID, lock.FolderID, lock.LockType, lock.EncryptedPayload,
		lock.Salt, lock.IsLocked, lock.FailedAttempts, lock.MaxAttempts,
	).Scan(&lock.CreatedAt, &lock.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const selectColumns = `id, owner_id, folder_id, lock_type, encrypted_payload, salt,
	is_locked, failed_attempts, max_attempts, lockout_until, last_unlock_attempt,
	created_at, updated_at`

func (r *PostgresRepository) GetByFolder(ctx context.Context, ownerID, folderID string) (*models.FolderLock, error) {
	query := `SELECT ` + selectColumns + ` FROM folder_locks WHERE owner_id = $1 AND folder_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, ownerID, folderID))
}

func (r *PostgresRepository) GetByFolderForUpdate(ctx context.Context, ownerID, folderID string) (*models.FolderLock, error) {
	query := `SELECT ` + selectColumns + ` FROM folder_locks WHERE owner_id = $1 AND folder_id = $2 FOR UPDATE`
	return r.scanOne(r.db.QueryRowContext(ctx, query, ownerID, folderID))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.FolderLock, error) {
	query := `SELECT ` + selectColumns + ` FROM folder_locks WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// UpdateState persists the mutable unlock state for an existing lock row.
func (r *PostgresRepository) UpdateState(ctx context.Context, lock *models.FolderLock) error {
	query := `
		UPDATE folder_locks
		SET is_locked = $2, failed_attempts = $3, lockout_until = $4,
			last_unlock_attempt = $5, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		lock.ID, lock.IsLocked, lock.FailedAttempts, lock.LockoutUntil, lock.LastUnlockAttempt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := `DELETE FROM folder_locks WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
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

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.FolderLock, error) {
	lock := &models.FolderLock{}
	err := row.Scan(
		&lock.ID, &lock.OwnerID, &lock.FolderID, &lock.LockType, &lock.EncryptedPayload,
		&lock.Salt, &lock.IsLocked, &lock.FailedAttempts, &lock.MaxAttempts,
		&lock.LockoutUntil, &lock.LastUnlockAttempt, &lock.CreatedAt, &lock.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return lock, nil
}

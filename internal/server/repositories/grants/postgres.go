// Package grants provides the PostgreSQL-backed repository for folder
// sharing grants.
package grants

import (
	"context"
	"database/sql"
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

func (r *PostgresRepository) Create(ctx context.Context, grant *models.FolderGrant) error {
	query := `
		INSERT INTO folder_grants (id, folder_id, owner_id, grantee_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		grant.ID, grant.FolderID, grant.OwnerID, grant.GranteeID).Scan(&grant.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, folderID, granteeID string) error {
	query := `DELETE FROM folder_grants WHERE folder_id = $1 AND grantee_id = $2`
	res, err := r.db.ExecContext(ctx, query, folderID, granteeID)
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

func (r *PostgresRepository) ListByFolder(ctx context.Context, folderID string) ([]*models.FolderGrant, error) {
	query := `
		SELECT id, folder_id, owner_id, grantee_id, created_at FROM folder_grants
		WHERE folder_id = $1
	`
	rows, err := r.db.QueryContext(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.FolderGrant
	for rows.Next() {
		var g models.FolderGrant
		if err := rows.Scan(&g.ID, &g.FolderID, &g.OwnerID, &g.GranteeID, &g.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByFolderAndGrantee(ctx context.Context, folderID, granteeID string) (*models.FolderGrant, error) {
	query := `
		SELECT id, folder_id, owner_id, grantee_id, created_at FROM folder_grants
		WHERE folder_id = $1 AND grantee_id = $2
	`
	g := &models.FolderGrant{}
	err := r.db.QueryRowContext(ctx, query, folderID, granteeID).
		Scan(&g.ID, &g.FolderID, &g.OwnerID, &g.GranteeID, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

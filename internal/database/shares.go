package database

import (
	"context"
	"errors"

	"vaultify/internal/models"

	"github.com/jackc/pgx/v5"
)

type UpsertShareParams struct {
	ResourceID string
	GranteeID  string
	Role       string
	CreatedBy  string
}

const shareColumns = `id, resource_id, grantee_id, role, created_by, created_at`

func scanShare(row scanner) (*models.Share, error) {
	var share models.Share
	err := row.Scan(
		&share.ID,
		&share.ResourceID,
		&share.GranteeID,
		&share.Role,
		&share.CreatedBy,
		&share.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func collectShares(rows pgx.Rows, err error) ([]models.Share, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []models.Share
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, *share)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if shares == nil {
		return []models.Share{}, nil
	}

	return shares, nil
}

// UpsertShare grants Role on ResourceID to GranteeID. A grant for the same
// pair is updated in place, so a resource never holds two grants for one
// user.
func (q *Queries) UpsertShare(ctx context.Context, arg UpsertShareParams) (*models.Share, error) {
	query := `
		INSERT INTO shares (resource_id, grantee_id, role, created_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (resource_id, grantee_id)
		DO UPDATE SET role = EXCLUDED.role, created_by = EXCLUDED.created_by
		RETURNING ` + shareColumns
	row := q.db.QueryRow(ctx, query, arg.ResourceID, arg.GranteeID, arg.Role, arg.CreatedBy)

	share, err := scanShare(row)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, ErrForeignKey
		}
		return nil, err
	}

	return share, nil
}

func (q *Queries) GetShare(ctx context.Context, id int64) (*models.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM shares WHERE id = $1`
	share, err := scanShare(q.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return share, nil
}

func (q *Queries) ListSharesByResource(ctx context.Context, resourceID string, createdBy string) ([]models.Share, error) {
	query := `
		SELECT ` + shareColumns + `
		FROM shares
		WHERE resource_id = $1 AND created_by = $2
		ORDER BY created_at, id
	`
	return collectShares(q.db.Query(ctx, query, resourceID, createdBy))
}

func (q *Queries) ListGrants(ctx context.Context, granteeID string, resourceIDs []string) ([]models.Share, error) {
	if len(resourceIDs) == 0 {
		return []models.Share{}, nil
	}
	query := `
		SELECT ` + shareColumns + `
		FROM shares
		WHERE grantee_id = $1 AND resource_id = ANY($2)
		ORDER BY id
	`
	return collectShares(q.db.Query(ctx, query, granteeID, resourceIDs))
}

func (q *Queries) ListSharedWithUser(ctx context.Context, arg ListNodesParams) ([]models.Node, error) {
	query := `
		SELECT
			n.id,
			n.owner_id,
			n.parent_id,
			n.name,
			n.is_folder,
			n.path,
			n.mime_type,
			n.size_bytes,
			n.is_starred,
			n.is_trashed,
			n.created_at,
			n.updated_at
		FROM nodes n
		JOIN shares s ON n.id = s.resource_id
		WHERE s.grantee_id = $1 AND NOT n.is_trashed
		ORDER BY n.is_folder DESC, lower(n.name) COLLATE "C", n.id COLLATE "C"
		LIMIT $2 OFFSET $3
	`
	return collectNodes(q.db.Query(ctx, query, arg.UserID, arg.Limit, arg.Offset))
}

func (q *Queries) DeleteShare(ctx context.Context, id int64) (bool, error) {
	res, err := q.db.Exec(ctx, `DELETE FROM shares WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

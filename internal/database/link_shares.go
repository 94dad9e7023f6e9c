package database

import (
	"context"
	"errors"

	"vaultify/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CreateLinkShareParams struct {
	ID         uuid.UUID
	ResourceID string
	Token      string
	CreatedBy  string
}

const linkShareColumns = `id, resource_id, token, created_by, created_at`

func scanOptionalLinkShare(row pgx.Row) (*models.LinkShare, error) {
	var link models.LinkShare
	err := row.Scan(
		&link.ID,
		&link.ResourceID,
		&link.Token,
		&link.CreatedBy,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (q *Queries) CreateLinkShare(ctx context.Context, arg CreateLinkShareParams) (*models.LinkShare, error) {
	query := `
		INSERT INTO link_shares (id, resource_id, token, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + linkShareColumns
	link, err := scanOptionalLinkShare(q.db.QueryRow(ctx, query, arg.ID, arg.ResourceID, arg.Token, arg.CreatedBy))
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return nil, ErrDuplicateToken
		case pgForeignKeyViolation:
			return nil, ErrForeignKey
		}
		return nil, err
	}
	return link, nil
}

func (q *Queries) GetLinkShare(ctx context.Context, id uuid.UUID) (*models.LinkShare, error) {
	query := `SELECT ` + linkShareColumns + ` FROM link_shares WHERE id = $1`
	return scanOptionalLinkShare(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetLinkShareByResource(ctx context.Context, resourceID string, createdBy string) (*models.LinkShare, error) {
	query := `
		SELECT ` + linkShareColumns + `
		FROM link_shares
		WHERE resource_id = $1 AND created_by = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanOptionalLinkShare(q.db.QueryRow(ctx, query, resourceID, createdBy))
}

func (q *Queries) GetLinkShareByToken(ctx context.Context, token string) (*models.LinkShare, error) {
	query := `SELECT ` + linkShareColumns + ` FROM link_shares WHERE token = $1`
	return scanOptionalLinkShare(q.db.QueryRow(ctx, query, token))
}

func (q *Queries) DeleteLinkShare(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := q.db.Exec(ctx, `DELETE FROM link_shares WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vaultify/internal/models"

	"github.com/jackc/pgx/v5"
)

type SortKey string

const (
	SortByName      SortKey = "name"
	SortByUpdatedAt SortKey = "updated_at"
	SortBySize      SortKey = "size_bytes"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

var sortExpressions = map[SortKey]string{
	SortByName:      `lower(name) COLLATE "C"`,
	SortByUpdatedAt: `updated_at`,
	SortBySize:      `COALESCE(size_bytes, 0)`,
}

func orderByClause(key SortKey, order SortOrder) (string, error) {
	expr, ok := sortExpressions[key]
	if !ok {
		return "", ErrInvalidSort
	}
	switch order {
	case SortAsc:
		return expr + ` ASC, id COLLATE "C" ASC`, nil
	case SortDesc:
		return expr + ` DESC, id COLLATE "C" ASC`, nil
	}
	return "", ErrInvalidSort
}

const nodeColumns = `id, owner_id, parent_id, name, is_folder, path, mime_type, size_bytes, is_starred, is_trashed, created_at, updated_at`

type CreateNodeParams struct {
	ID        string
	OwnerID   string
	ParentID  *string
	Name      string
	IsFolder  bool
	Path      *string
	MimeType  *string
	SizeBytes *int64
}

// ListChildrenParams lists the non-trashed children of ParentID. With a nil
// ParentID it lists OwnerID's root nodes instead.
type ListChildrenParams struct {
	OwnerID   string
	ParentID  *string
	SortKey   SortKey
	SortOrder SortOrder
	Limit     int
	Offset    int
}

type SearchNodesParams struct {
	OwnerID string
	Query   string
	Limit   int
	Offset  int
}

type ListNodesParams struct {
	UserID string
	Limit  int
	Offset int
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*models.Node, error) {
	var node models.Node
	err := row.Scan(
		&node.ID,
		&node.OwnerID,
		&node.ParentID,
		&node.Name,
		&node.IsFolder,
		&node.Path,
		&node.MimeType,
		&node.SizeBytes,
		&node.IsStarred,
		&node.IsTrashed,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func scanOptionalNode(row pgx.Row) (*models.Node, error) {
	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return node, nil
}

func collectNodes(rows pgx.Rows, err error) ([]models.Node, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if nodes == nil {
		return []models.Node{}, nil
	}

	return nodes, nil
}

// visibleNodesQuery keeps only candidates whose whole ancestor chain is
// free of trashed folders. The walk for a candidate stops at the first
// trashed ancestor, so only chains that reach the root produce a row with a
// NULL next_id.
func visibleNodesQuery(candidateWhere, orderBy string, limitArg, offsetArg int) string {
	return fmt.Sprintf(`
		WITH RECURSIVE candidates AS (
			SELECT %[1]s
			FROM nodes
			WHERE NOT is_trashed AND %[2]s
		), ancestry AS (
			SELECT c.id AS origin, c.parent_id AS next_id, 0 AS depth
			FROM candidates c

			UNION ALL

			SELECT a.origin, p.parent_id, a.depth + 1
			FROM ancestry a
			JOIN nodes p ON p.id = a.next_id
			WHERE NOT p.is_trashed AND a.depth < %[3]d
		)
		SELECT %[1]s
		FROM candidates
		WHERE EXISTS (
			SELECT 1 FROM ancestry a WHERE a.origin = candidates.id AND a.next_id IS NULL
		)
		ORDER BY %[4]s
		LIMIT $%[5]d OFFSET $%[6]d
	`, nodeColumns, candidateWhere, MaxTreeDepth, orderBy, limitArg, offsetArg)
}

func (q *Queries) CreateNode(ctx context.Context, arg CreateNodeParams) (*models.Node, error) {
	query := `
		INSERT INTO nodes (id, owner_id, parent_id, name, is_folder, path, mime_type, size_bytes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + nodeColumns
	now := time.Now().UTC()

	row := q.db.QueryRow(ctx, query,
		arg.ID,
		arg.OwnerID,
		arg.ParentID,
		arg.Name,
		arg.IsFolder,
		arg.Path,
		arg.MimeType,
		arg.SizeBytes,
		now,
		now,
	)

	node, err := scanNode(row)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return nil, ErrDuplicateNodeID
		case pgForeignKeyViolation:
			return nil, ErrForeignKey
		}
		return nil, err
	}

	return node, nil
}

func (q *Queries) NodeExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM nodes WHERE id = $1)"
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (q *Queries) GetNode(ctx context.Context, id string) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1`
	return scanOptionalNode(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetNodeForUpdate(ctx context.Context, id string) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1 FOR UPDATE`
	return scanOptionalNode(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) ListChildren(ctx context.Context, arg ListChildrenParams) ([]models.Node, error) {
	orderBy, err := orderByClause(arg.SortKey, arg.SortOrder)
	if err != nil {
		return nil, err
	}

	if arg.ParentID == nil {
		query := `SELECT ` + nodeColumns + `
				 FROM nodes
				 WHERE owner_id = $1 AND parent_id IS NULL AND NOT is_trashed
				 ORDER BY ` + orderBy + `
				 LIMIT $2 OFFSET $3`
		return collectNodes(q.db.Query(ctx, query, arg.OwnerID, arg.Limit, arg.Offset))
	}

	query := `SELECT ` + nodeColumns + `
			 FROM nodes
			 WHERE parent_id = $1 AND NOT is_trashed
			 ORDER BY ` + orderBy + `
			 LIMIT $2 OFFSET $3`
	return collectNodes(q.db.Query(ctx, query, *arg.ParentID, arg.Limit, arg.Offset))
}

func (q *Queries) SearchNodes(ctx context.Context, arg SearchNodesParams) ([]models.Node, error) {
	orderBy, _ := orderByClause(SortByName, SortAsc)
	query := visibleNodesQuery(`owner_id = $1 AND name ILIKE $2 ESCAPE '\'`, orderBy, 3, 4)
	pattern := "%" + EscapeLike(arg.Query) + "%"
	return collectNodes(q.db.Query(ctx, query, arg.OwnerID, pattern, arg.Limit, arg.Offset))
}

func (q *Queries) ListStarred(ctx context.Context, arg ListNodesParams) ([]models.Node, error) {
	orderBy, _ := orderByClause(SortByName, SortAsc)
	query := visibleNodesQuery(`owner_id = $1 AND is_starred`, orderBy, 2, 3)
	return collectNodes(q.db.Query(ctx, query, arg.UserID, arg.Limit, arg.Offset))
}

func (q *Queries) ListRecent(ctx context.Context, arg ListNodesParams) ([]models.Node, error) {
	orderBy, _ := orderByClause(SortByUpdatedAt, SortDesc)
	query := visibleNodesQuery(`owner_id = $1`, orderBy, 2, 3)
	return collectNodes(q.db.Query(ctx, query, arg.UserID, arg.Limit, arg.Offset))
}

func (q *Queries) ListTrash(ctx context.Context, arg ListNodesParams) ([]models.Node, error) {
	orderBy, _ := orderByClause(SortByUpdatedAt, SortDesc)
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE owner_id = $1 AND is_trashed
		ORDER BY ` + orderBy + ` LIMIT $2 OFFSET $3
	`
	return collectNodes(q.db.Query(ctx, query, arg.UserID, arg.Limit, arg.Offset))
}

func (q *Queries) RenameNode(ctx context.Context, id string, name string) (*models.Node, error) {
	query := `
		UPDATE nodes
		SET name = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + nodeColumns
	return scanOptionalNode(q.db.QueryRow(ctx, query, name, time.Now().UTC(), id))
}

func (q *Queries) MoveNode(ctx context.Context, id string, parentID *string) (*models.Node, error) {
	query := `
		UPDATE nodes
		SET parent_id = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + nodeColumns
	node, err := scanOptionalNode(q.db.QueryRow(ctx, query, parentID, time.Now().UTC(), id))
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, ErrForeignKey
		}
		return nil, err
	}
	return node, nil
}

func (q *Queries) SetNodeTrashed(ctx context.Context, id string, trashed bool) (*models.Node, error) {
	query := `
		UPDATE nodes
		SET is_trashed = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + nodeColumns
	return scanOptionalNode(q.db.QueryRow(ctx, query, trashed, time.Now().UTC(), id))
}

// SetNodeStarred leaves updated_at alone; a star is not a change to the node.
func (q *Queries) SetNodeStarred(ctx context.Context, id string, starred bool) (*models.Node, error) {
	query := `
		UPDATE nodes
		SET is_starred = $1
		WHERE id = $2
		RETURNING ` + nodeColumns
	return scanOptionalNode(q.db.QueryRow(ctx, query, starred, id))
}

// ListSubtree returns the node itself followed by all of its descendants,
// trashed or not.
func (q *Queries) ListSubtree(ctx context.Context, id string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT n.id, 0 AS depth
			FROM nodes n
			WHERE n.id = $1

			UNION ALL

			SELECT n.id, s.depth + 1
			FROM nodes n
			INNER JOIN subtree s ON n.parent_id = s.id
			WHERE s.depth < %d
		)
		SELECT %s
		FROM nodes
		JOIN subtree USING (id)
		ORDER BY subtree.depth, id COLLATE "C"
	`, MaxTreeDepth, nodeColumns)
	return collectNodes(q.db.Query(ctx, query, id))
}

func (q *Queries) DeleteNodes(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := q.db.Exec(ctx, `DELETE FROM nodes WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

// LockTree serialises structural changes to one owner's tree until the
// surrounding transaction ends.
func (q *Queries) LockTree(ctx context.Context, ownerID string) error {
	_, err := q.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, ownerID)
	return err
}

package database

import (
	"context"

	"vaultify/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MaxTreeDepth bounds every parent-chain walk. A chain longer than this is
// treated as corrupt.
const MaxTreeDepth = 256

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Querier is the row-level contract every datastore backend fulfils. Getters
// return (nil, nil) when the row does not exist.
type Querier interface {
	CreateNode(ctx context.Context, arg CreateNodeParams) (*models.Node, error)
	NodeExists(ctx context.Context, id string) (bool, error)
	GetNode(ctx context.Context, id string) (*models.Node, error)
	GetNodeForUpdate(ctx context.Context, id string) (*models.Node, error)
	ListChildren(ctx context.Context, arg ListChildrenParams) ([]models.Node, error)
	SearchNodes(ctx context.Context, arg SearchNodesParams) ([]models.Node, error)
	ListStarred(ctx context.Context, arg ListNodesParams) ([]models.Node, error)
	ListRecent(ctx context.Context, arg ListNodesParams) ([]models.Node, error)
	ListTrash(ctx context.Context, arg ListNodesParams) ([]models.Node, error)
	RenameNode(ctx context.Context, id string, name string) (*models.Node, error)
	MoveNode(ctx context.Context, id string, parentID *string) (*models.Node, error)
	SetNodeTrashed(ctx context.Context, id string, trashed bool) (*models.Node, error)
	SetNodeStarred(ctx context.Context, id string, starred bool) (*models.Node, error)
	ListSubtree(ctx context.Context, id string) ([]models.Node, error)
	DeleteNodes(ctx context.Context, ids []string) (int64, error)
	LockTree(ctx context.Context, ownerID string) error

	UpsertShare(ctx context.Context, arg UpsertShareParams) (*models.Share, error)
	GetShare(ctx context.Context, id int64) (*models.Share, error)
	ListSharesByResource(ctx context.Context, resourceID string, createdBy string) ([]models.Share, error)
	ListGrants(ctx context.Context, granteeID string, resourceIDs []string) ([]models.Share, error)
	ListSharedWithUser(ctx context.Context, arg ListNodesParams) ([]models.Node, error)
	DeleteShare(ctx context.Context, id int64) (bool, error)

	CreateLinkShare(ctx context.Context, arg CreateLinkShareParams) (*models.LinkShare, error)
	GetLinkShare(ctx context.Context, id uuid.UUID) (*models.LinkShare, error)
	GetLinkShareByResource(ctx context.Context, resourceID string, createdBy string) (*models.LinkShare, error)
	GetLinkShareByToken(ctx context.Context, token string) (*models.LinkShare, error)
	DeleteLinkShare(ctx context.Context, id uuid.UUID) (bool, error)

	CreateUser(ctx context.Context, arg CreateUserParams) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	CreateSession(ctx context.Context, arg CreateSessionParams) error
	GetUserByRefreshToken(ctx context.Context, refreshToken string) (*models.User, error)
	ListSessionsForUser(ctx context.Context, userID string) ([]models.Session, error)
	DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID string) error
	DeleteAllSessionsForUser(ctx context.Context, userID string) error
	DeleteSessionByRefreshToken(ctx context.Context, refreshToken string) error

	LogEvent(ctx context.Context, userID string, eventType string, payload interface{}) (*models.Event, error)
	GetEventsSince(ctx context.Context, userID string, sinceID int64) ([]models.Event, error)
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

var _ Querier = (*Queries)(nil)

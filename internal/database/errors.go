package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateEmail  = errors.New("a user with this email already exists")
	ErrDuplicateToken  = errors.New("link token already in use")
	ErrDuplicateNodeID = errors.New("node id already in use")
	ErrForeignKey      = errors.New("referenced row does not exist")
	ErrInvalidSort     = errors.New("unsupported sort key or order")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

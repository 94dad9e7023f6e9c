// Package identity resolves users by email or id for the resource graph.
package identity

import (
	"context"
	"strings"
	"time"

	"vaultify/internal/database"
	"vaultify/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Directory struct {
	store database.Store
	byID  *expirable.LRU[string, models.Grantee]
}

func NewDirectory(store database.Store, cacheSize int, cacheTTL time.Duration) *Directory {
	return &Directory{
		store: store,
		byID:  expirable.NewLRU[string, models.Grantee](cacheSize, nil, cacheTTL),
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LookupByEmail returns nil when no user has that email.
func (d *Directory) LookupByEmail(ctx context.Context, email string) (*models.Grantee, error) {
	var user *models.User
	err := d.store.ExecTx(ctx, func(q database.Querier) error {
		var err error
		user, err = q.GetUserByEmail(ctx, NormalizeEmail(email))
		return err
	})
	if err != nil || user == nil {
		return nil, err
	}

	g := models.Grantee{ID: user.ID, Email: user.Email}
	d.byID.Add(g.ID, g)
	return &g, nil
}

// LookupByID returns nil when the user does not exist. Hits are cached; users
// are never renamed or deleted, so a cached entry cannot go stale.
func (d *Directory) LookupByID(ctx context.Context, id string) (*models.Grantee, error) {
	if g, ok := d.byID.Get(id); ok {
		return &g, nil
	}

	var user *models.User
	err := d.store.ExecTx(ctx, func(q database.Querier) error {
		var err error
		user, err = q.GetUserByID(ctx, id)
		return err
	})
	if err != nil || user == nil {
		return nil, err
	}

	g := models.Grantee{ID: user.ID, Email: user.Email}
	d.byID.Add(id, g)
	return &g, nil
}

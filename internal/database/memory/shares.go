package memory

import (
	"context"
	"sort"
	"strings"

	"vaultify/internal/database"
	"vaultify/internal/models"

	"github.com/google/uuid"
)

func (q *queries) UpsertShare(ctx context.Context, arg database.UpsertShareParams) (*models.Share, error) {
	if _, ok := q.st.nodes[arg.ResourceID]; !ok {
		return nil, database.ErrForeignKey
	}
	if _, ok := q.st.users[arg.GranteeID]; !ok {
		return nil, database.ErrForeignKey
	}
	if _, ok := q.st.users[arg.CreatedBy]; !ok {
		return nil, database.ErrForeignKey
	}

	for id, s := range q.st.shares {
		if s.ResourceID == arg.ResourceID && s.GranteeID == arg.GranteeID {
			s.Role = arg.Role
			s.CreatedBy = arg.CreatedBy
			q.st.shares[id] = s
			return &s, nil
		}
	}

	q.st.nextShareID++
	share := models.Share{
		ID:         q.st.nextShareID,
		ResourceID: arg.ResourceID,
		GranteeID:  arg.GranteeID,
		Role:       arg.Role,
		CreatedBy:  arg.CreatedBy,
		CreatedAt:  q.now(),
	}
	q.st.shares[share.ID] = share
	return &share, nil
}

func (q *queries) GetShare(ctx context.Context, id int64) (*models.Share, error) {
	share, ok := q.st.shares[id]
	if !ok {
		return nil, nil
	}
	return &share, nil
}

func (q *queries) filterShares(keep func(models.Share) bool) []models.Share {
	out := []models.Share{}
	for _, s := range q.st.shares {
		if keep(s) {
			out = append(out, s)
		}
	}
	// Share ids grow with creation time, so id order is creation order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (q *queries) ListSharesByResource(ctx context.Context, resourceID string, createdBy string) ([]models.Share, error) {
	return q.filterShares(func(s models.Share) bool {
		return s.ResourceID == resourceID && s.CreatedBy == createdBy
	}), nil
}

func (q *queries) ListGrants(ctx context.Context, granteeID string, resourceIDs []string) ([]models.Share, error) {
	wanted := make(map[string]bool, len(resourceIDs))
	for _, id := range resourceIDs {
		wanted[id] = true
	}
	return q.filterShares(func(s models.Share) bool {
		return s.GranteeID == granteeID && wanted[s.ResourceID]
	}), nil
}

func (q *queries) ListSharedWithUser(ctx context.Context, arg database.ListNodesParams) ([]models.Node, error) {
	nodes := []models.Node{}
	for _, s := range q.filterShares(func(s models.Share) bool { return s.GranteeID == arg.UserID }) {
		n, ok := q.st.nodes[s.ResourceID]
		if ok && !n.IsTrashed {
			nodes = append(nodes, n)
		}
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.IsFolder != b.IsFolder {
			return a.IsFolder
		}
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
	return page(nodes, arg.Limit, arg.Offset), nil
}

func (q *queries) DeleteShare(ctx context.Context, id int64) (bool, error) {
	if _, ok := q.st.shares[id]; !ok {
		return false, nil
	}
	delete(q.st.shares, id)
	return true, nil
}

func (q *queries) CreateLinkShare(ctx context.Context, arg database.CreateLinkShareParams) (*models.LinkShare, error) {
	if _, ok := q.st.nodes[arg.ResourceID]; !ok {
		return nil, database.ErrForeignKey
	}
	if _, ok := q.st.users[arg.CreatedBy]; !ok {
		return nil, database.ErrForeignKey
	}
	for _, l := range q.st.links {
		if l.Token == arg.Token {
			return nil, database.ErrDuplicateToken
		}
	}

	link := models.LinkShare{
		ID:         arg.ID,
		ResourceID: arg.ResourceID,
		Token:      arg.Token,
		CreatedBy:  arg.CreatedBy,
		CreatedAt:  q.now(),
	}
	q.st.links[link.ID] = link
	return &link, nil
}

func (q *queries) GetLinkShare(ctx context.Context, id uuid.UUID) (*models.LinkShare, error) {
	link, ok := q.st.links[id]
	if !ok {
		return nil, nil
	}
	return &link, nil
}

func (q *queries) GetLinkShareByResource(ctx context.Context, resourceID string, createdBy string) (*models.LinkShare, error) {
	var latest *models.LinkShare
	for _, l := range q.st.links {
		if l.ResourceID != resourceID || l.CreatedBy != createdBy {
			continue
		}
		if latest == nil || l.CreatedAt.After(latest.CreatedAt) {
			l := l
			latest = &l
		}
	}
	return latest, nil
}

func (q *queries) GetLinkShareByToken(ctx context.Context, token string) (*models.LinkShare, error) {
	for _, l := range q.st.links {
		if l.Token == token {
			return &l, nil
		}
	}
	return nil, nil
}

func (q *queries) DeleteLinkShare(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := q.st.links[id]; !ok {
		return false, nil
	}
	delete(q.st.links, id)
	return true, nil
}

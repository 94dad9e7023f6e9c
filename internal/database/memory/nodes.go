package memory

import (
	"context"
	"sort"
	"strings"

	"vaultify/internal/database"
	"vaultify/internal/models"
)

func sortNodes(nodes []models.Node, key database.SortKey, order database.SortOrder) error {
	var cmp func(a, b *models.Node) int
	switch key {
	case database.SortByName:
		cmp = func(a, b *models.Node) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case database.SortByUpdatedAt:
		cmp = func(a, b *models.Node) int {
			return a.UpdatedAt.Compare(b.UpdatedAt)
		}
	case database.SortBySize:
		cmp = func(a, b *models.Node) int {
			as, bs := sizeOf(a), sizeOf(b)
			switch {
			case as < bs:
				return -1
			case as > bs:
				return 1
			}
			return 0
		}
	default:
		return database.ErrInvalidSort
	}

	switch order {
	case database.SortAsc:
	case database.SortDesc:
		asc := cmp
		cmp = func(a, b *models.Node) int { return -asc(a, b) }
	default:
		return database.ErrInvalidSort
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		if c := cmp(&nodes[i], &nodes[j]); c != 0 {
			return c < 0
		}
		return nodes[i].ID < nodes[j].ID
	})
	return nil
}

func sizeOf(n *models.Node) int64 {
	if n.SizeBytes == nil {
		return 0
	}
	return *n.SizeBytes
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) || limit <= 0 {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// visible reports whether no ancestor of n is trashed and its parent chain
// reaches the root within database.MaxTreeDepth hops.
func (q *queries) visible(n models.Node) bool {
	parentID := n.ParentID
	for depth := 0; depth <= database.MaxTreeDepth; depth++ {
		if parentID == nil {
			return true
		}
		parent, ok := q.st.nodes[*parentID]
		if !ok || parent.IsTrashed {
			return false
		}
		parentID = parent.ParentID
	}
	return false
}

func (q *queries) filterNodes(keep func(models.Node) bool) []models.Node {
	out := []models.Node{}
	for _, n := range q.st.nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

func (q *queries) CreateNode(ctx context.Context, arg database.CreateNodeParams) (*models.Node, error) {
	if _, ok := q.st.users[arg.OwnerID]; !ok {
		return nil, database.ErrForeignKey
	}
	if arg.ParentID != nil {
		if _, ok := q.st.nodes[*arg.ParentID]; !ok {
			return nil, database.ErrForeignKey
		}
	}
	if _, ok := q.st.nodes[arg.ID]; ok {
		return nil, database.ErrDuplicateNodeID
	}

	now := q.now()
	node := models.Node{
		ID:        arg.ID,
		OwnerID:   arg.OwnerID,
		ParentID:  copyString(arg.ParentID),
		Name:      arg.Name,
		IsFolder:  arg.IsFolder,
		Path:      copyString(arg.Path),
		MimeType:  copyString(arg.MimeType),
		SizeBytes: copyInt64(arg.SizeBytes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.st.nodes[node.ID] = node
	return &node, nil
}

func (q *queries) NodeExists(ctx context.Context, id string) (bool, error) {
	_, ok := q.st.nodes[id]
	return ok, nil
}

func (q *queries) GetNode(ctx context.Context, id string) (*models.Node, error) {
	node, ok := q.st.nodes[id]
	if !ok {
		return nil, nil
	}
	return &node, nil
}

func (q *queries) GetNodeForUpdate(ctx context.Context, id string) (*models.Node, error) {
	return q.GetNode(ctx, id)
}

func (q *queries) ListChildren(ctx context.Context, arg database.ListChildrenParams) ([]models.Node, error) {
	nodes := q.filterNodes(func(n models.Node) bool {
		if n.IsTrashed {
			return false
		}
		if arg.ParentID == nil {
			return n.ParentID == nil && n.OwnerID == arg.OwnerID
		}
		return n.ParentID != nil && *n.ParentID == *arg.ParentID
	})
	if err := sortNodes(nodes, arg.SortKey, arg.SortOrder); err != nil {
		return nil, err
	}
	return page(nodes, arg.Limit, arg.Offset), nil
}

func (q *queries) SearchNodes(ctx context.Context, arg database.SearchNodesParams) ([]models.Node, error) {
	needle := strings.ToLower(arg.Query)
	nodes := q.filterNodes(func(n models.Node) bool {
		return n.OwnerID == arg.OwnerID && !n.IsTrashed &&
			strings.Contains(strings.ToLower(n.Name), needle) && q.visible(n)
	})
	if err := sortNodes(nodes, database.SortByName, database.SortAsc); err != nil {
		return nil, err
	}
	return page(nodes, arg.Limit, arg.Offset), nil
}

func (q *queries) ListStarred(ctx context.Context, arg database.ListNodesParams) ([]models.Node, error) {
	nodes := q.filterNodes(func(n models.Node) bool {
		return n.OwnerID == arg.UserID && !n.IsTrashed && n.IsStarred && q.visible(n)
	})
	if err := sortNodes(nodes, database.SortByName, database.SortAsc); err != nil {
		return nil, err
	}
	return page(nodes, arg.Limit, arg.Offset), nil
}

func (q *queries) ListRecent(ctx context.Context, arg database.ListNodesParams) ([]models.Node, error) {
	nodes := q.filterNodes(func(n models.Node) bool {
		return n.OwnerID == arg.UserID && !n.IsTrashed && q.visible(n)
	})
	if err := sortNodes(nodes, database.SortByUpdatedAt, database.SortDesc); err != nil {
		return nil, err
	}
	return page(nodes, arg.Limit, arg.Offset), nil
}

func (q *queries) ListTrash(ctx context.Context, arg database.ListNodesParams) ([]models.Node, error) {
	nodes := q.filterNodes(func(n models.Node) bool {
		return n.OwnerID == arg.UserID && n.IsTrashed
	})
	if err := sortNodes(nodes, database.SortByUpdatedAt, database.SortDesc); err != nil {
		return nil, err
	}
	return page(nodes, arg.Limit, arg.Offset), nil
}

func (q *queries) update(id string, mutate func(*models.Node)) (*models.Node, error) {
	node, ok := q.st.nodes[id]
	if !ok {
		return nil, nil
	}
	mutate(&node)
	node.UpdatedAt = q.now()
	q.st.nodes[id] = node
	return &node, nil
}

func (q *queries) RenameNode(ctx context.Context, id string, name string) (*models.Node, error) {
	return q.update(id, func(n *models.Node) { n.Name = name })
}

func (q *queries) MoveNode(ctx context.Context, id string, parentID *string) (*models.Node, error) {
	if parentID != nil {
		if _, ok := q.st.nodes[*parentID]; !ok {
			return nil, database.ErrForeignKey
		}
	}
	return q.update(id, func(n *models.Node) { n.ParentID = copyString(parentID) })
}

func (q *queries) SetNodeTrashed(ctx context.Context, id string, trashed bool) (*models.Node, error) {
	return q.update(id, func(n *models.Node) { n.IsTrashed = trashed })
}

// SetNodeStarred leaves updated_at alone; a star is not a change to the node.
func (q *queries) SetNodeStarred(ctx context.Context, id string, starred bool) (*models.Node, error) {
	node, ok := q.st.nodes[id]
	if !ok {
		return nil, nil
	}
	node.IsStarred = starred
	q.st.nodes[id] = node
	return &node, nil
}

func (q *queries) childrenOf(id string) []models.Node {
	children := q.filterNodes(func(n models.Node) bool {
		return n.ParentID != nil && *n.ParentID == id
	})
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })
	return children
}

func (q *queries) ListSubtree(ctx context.Context, id string) ([]models.Node, error) {
	root, ok := q.st.nodes[id]
	if !ok {
		return []models.Node{}, nil
	}

	out := []models.Node{root}
	level := []models.Node{root}
	for depth := 0; depth < database.MaxTreeDepth && len(level) > 0; depth++ {
		var next []models.Node
		for _, n := range level {
			next = append(next, q.childrenOf(n.ID)...)
		}
		sort.Slice(next, func(i, j int) bool { return next[i].ID < next[j].ID })
		out = append(out, next...)
		level = next
	}
	return out, nil
}

// DeleteNodes removes the given nodes and, like the ON DELETE CASCADE
// constraints, everything that references them.
func (q *queries) DeleteNodes(ctx context.Context, ids []string) (int64, error) {
	doomed := make(map[string]bool)
	var deleted int64
	for _, id := range ids {
		if _, ok := q.st.nodes[id]; ok && !doomed[id] {
			doomed[id] = true
			deleted++
		}
	}

	for changed := true; changed; {
		changed = false
		for id, n := range q.st.nodes {
			if !doomed[id] && n.ParentID != nil && doomed[*n.ParentID] {
				doomed[id] = true
				changed = true
			}
		}
	}

	for id := range doomed {
		delete(q.st.nodes, id)
	}
	for id, s := range q.st.shares {
		if doomed[s.ResourceID] {
			delete(q.st.shares, id)
		}
	}
	for id, l := range q.st.links {
		if doomed[l.ResourceID] {
			delete(q.st.links, id)
		}
	}
	return deleted, nil
}

// LockTree is a no-op: ExecTx already serialises every transaction.
func (q *queries) LockTree(ctx context.Context, ownerID string) error {
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt64(i *int64) *int64 {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

package graph

import (
	"context"
	"fmt"

	"vaultify/internal/database"
	"vaultify/internal/models"
)

type accessLevel int

const (
	accessNone accessLevel = iota
	accessViewer
	accessEditor
	accessOwner
)

// ancestors returns the parent chain of node, nearest first.
func ancestors(ctx context.Context, q database.Querier, node *models.Node) ([]models.Node, error) {
	var chain []models.Node
	parentID := node.ParentID
	for parentID != nil {
		if len(chain) >= database.MaxTreeDepth {
			return nil, fmt.Errorf("node %s: parent chain deeper than %d", node.ID, database.MaxTreeDepth)
		}
		parent, err := q.GetNode(ctx, *parentID)
		if err != nil {
			return nil, wrap("load ancestor", err)
		}
		if parent == nil {
			return nil, fmt.Errorf("node %s: dangling parent %s", node.ID, *parentID)
		}
		chain = append(chain, *parent)
		parentID = parent.ParentID
	}
	return chain, nil
}

func anyTrashed(node *models.Node, chain []models.Node) bool {
	if node.IsTrashed {
		return true
	}
	for _, n := range chain {
		if n.IsTrashed {
			return true
		}
	}
	return false
}

// accessFor resolves what callerID may do with node: owners may do anything,
// otherwise the strongest grant on the node or any ancestor applies.
func accessFor(ctx context.Context, q database.Querier, node *models.Node, chain []models.Node, callerID string) (accessLevel, error) {
	if node.OwnerID == callerID {
		return accessOwner, nil
	}

	ids := make([]string, 0, len(chain)+1)
	ids = append(ids, node.ID)
	for _, n := range chain {
		ids = append(ids, n.ID)
	}

	grants, err := q.ListGrants(ctx, callerID, ids)
	if err != nil {
		return accessNone, wrap("list grants", err)
	}

	level := accessNone
	for _, g := range grants {
		switch g.Role {
		case models.RoleEditor:
			level = accessEditor
		case models.RoleViewer:
			if level < accessViewer {
				level = accessViewer
			}
		}
	}
	return level, nil
}

// loadOwned fetches a node the caller must own.
func loadOwned(ctx context.Context, q database.Querier, nodeID, callerID string) (*models.Node, error) {
	node, err := q.GetNode(ctx, nodeID)
	if err != nil {
		return nil, wrap("load node", err)
	}
	if node == nil {
		return nil, errorf(ErrNotFound, "node %s does not exist", nodeID)
	}
	if node.OwnerID != callerID {
		return nil, errorf(ErrForbidden, "node %s belongs to another user", nodeID)
	}
	return node, nil
}

// lockOwned is loadOwned for structural changes: it takes the owner's tree
// lock and re-reads the node under it.
func lockOwned(ctx context.Context, q database.Querier, nodeID, callerID string) (*models.Node, error) {
	if _, err := loadOwned(ctx, q, nodeID, callerID); err != nil {
		return nil, err
	}
	if err := q.LockTree(ctx, callerID); err != nil {
		return nil, wrap("lock tree", err)
	}
	node, err := q.GetNodeForUpdate(ctx, nodeID)
	if err != nil {
		return nil, wrap("load node", err)
	}
	if node == nil {
		return nil, errorf(ErrNotFound, "node %s does not exist", nodeID)
	}
	return node, nil
}

// loadViewable fetches a node the caller may read. Other users never see
// anything that sits in the owner's trash.
func loadViewable(ctx context.Context, q database.Querier, nodeID, callerID string) (*models.Node, []models.Node, error) {
	node, err := q.GetNode(ctx, nodeID)
	if err != nil {
		return nil, nil, wrap("load node", err)
	}
	if node == nil {
		return nil, nil, errorf(ErrNotFound, "node %s does not exist", nodeID)
	}

	chain, err := ancestors(ctx, q, node)
	if err != nil {
		return nil, nil, err
	}
	level, err := accessFor(ctx, q, node, chain, callerID)
	if err != nil {
		return nil, nil, err
	}
	if level == accessNone {
		return nil, nil, errorf(ErrForbidden, "no access to node %s", nodeID)
	}
	if level != accessOwner && anyTrashed(node, chain) {
		return nil, nil, errorf(ErrNotFound, "node %s does not exist", nodeID)
	}
	return node, chain, nil
}

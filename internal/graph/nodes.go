package graph

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"vaultify/internal/database"
	"vaultify/internal/models"
)

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errorf(ErrInvalidName, "name must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", errorf(ErrInvalidName, "name is longer than %d characters", MaxNameLength)
	}
	return name, nil
}

func (s *Service) CreateNode(ctx context.Context, arg CreateNodeParams) (*models.Node, error) {
	name, err := cleanName(arg.Name)
	if err != nil {
		return nil, err
	}

	if arg.IsFolder {
		if arg.Path != nil || arg.MimeType != nil || arg.SizeBytes != nil {
			return nil, errorf(ErrInvalidArgument, "folders cannot carry file metadata")
		}
	} else {
		if arg.Path == nil || !strings.HasPrefix(*arg.Path, arg.OwnerID+"/") || len(*arg.Path) == len(arg.OwnerID)+1 {
			return nil, errorf(ErrInvalidArgument, "file path must be inside the owner's namespace")
		}
		if arg.SizeBytes != nil && *arg.SizeBytes < 0 {
			return nil, errorf(ErrInvalidArgument, "size must not be negative")
		}
	}

	var created *models.Node
	err = s.mutate(ctx, func(q database.Querier, j *journal) error {
		treeOwner := arg.OwnerID
		if arg.ParentID != nil {
			parent, err := q.GetNode(ctx, *arg.ParentID)
			if err != nil {
				return wrap("load parent", err)
			}
			if parent == nil {
				return errorf(ErrInvalidParent, "parent %s does not exist", *arg.ParentID)
			}
			treeOwner = parent.OwnerID
		}

		if err := q.LockTree(ctx, treeOwner); err != nil {
			return wrap("lock tree", err)
		}

		if arg.ParentID != nil {
			parent := *arg.ParentID
			if err := checkParent(ctx, q, parent, arg.OwnerID, accessEditor); err != nil {
				return err
			}
		}

		id, err := s.generateUniqueID(ctx, q)
		if err != nil {
			return err
		}

		created, err = q.CreateNode(ctx, database.CreateNodeParams{
			ID:        id,
			OwnerID:   arg.OwnerID,
			ParentID:  arg.ParentID,
			Name:      name,
			IsFolder:  arg.IsFolder,
			Path:      arg.Path,
			MimeType:  arg.MimeType,
			SizeBytes: arg.SizeBytes,
		})
		if err != nil {
			// The parent was checked under the tree lock, so a foreign key
			// failure here means the owner has no account.
			if errors.Is(err, database.ErrForeignKey) {
				return errorf(ErrForbidden, "user %s does not exist", arg.OwnerID)
			}
			return wrap("create node", err)
		}

		return j.record(ctx, EventNodeCreated, created, created.OwnerID, treeOwner)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "node created", "node_id", created.ID, "owner_id", created.OwnerID, "is_folder", created.IsFolder)
	return created, nil
}

// checkParent verifies parentID names an existing folder outside the trash
// on which callerID holds at least the required access.
func checkParent(ctx context.Context, q database.Querier, parentID, callerID string, required accessLevel) error {
	parent, err := q.GetNodeForUpdate(ctx, parentID)
	if err != nil {
		return wrap("load parent", err)
	}
	if parent == nil {
		return errorf(ErrInvalidParent, "parent %s does not exist", parentID)
	}
	if !parent.IsFolder {
		return errorf(ErrInvalidParent, "parent %s is not a folder", parentID)
	}

	chain, err := ancestors(ctx, q, parent)
	if err != nil {
		return err
	}
	if anyTrashed(parent, chain) {
		return errorf(ErrInvalidParent, "parent %s is in the trash", parentID)
	}

	level, err := accessFor(ctx, q, parent, chain, callerID)
	if err != nil {
		return err
	}
	if level < required {
		return errorf(ErrInvalidParent, "no write access to parent %s", parentID)
	}
	return nil
}

func (s *Service) GetNode(ctx context.Context, ref NodeRef) (*models.Node, error) {
	var node *models.Node
	err := s.read(ctx, func(q database.Querier) error {
		var err error
		node, _, err = loadViewable(ctx, q, ref.NodeID, ref.CallerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (s *Service) ListChildren(ctx context.Context, arg ListChildrenParams) ([]models.Node, error) {
	limit, offset, err := page(arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	key, order := arg.SortKey, arg.SortOrder
	if key == "" {
		key = database.SortByName
	}
	if order == "" {
		order = database.SortAsc
	}

	var nodes []models.Node
	err = s.read(ctx, func(q database.Querier) error {
		if arg.ParentID != nil {
			parent, chain, err := loadViewable(ctx, q, *arg.ParentID, arg.CallerID)
			if err != nil {
				return err
			}
			if !parent.IsFolder {
				return errorf(ErrInvalidParent, "%s is not a folder", parent.ID)
			}
			if anyTrashed(parent, chain) {
				return errorf(ErrInvalidParent, "folder %s is in the trash", parent.ID)
			}
		}

		var err error
		nodes, err = q.ListChildren(ctx, database.ListChildrenParams{
			OwnerID:   arg.CallerID,
			ParentID:  arg.ParentID,
			SortKey:   key,
			SortOrder: order,
			Limit:     limit,
			Offset:    offset,
		})
		if errors.Is(err, database.ErrInvalidSort) {
			return errorf(ErrInvalidArgument, "cannot sort by %q %q", key, order)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *Service) Search(ctx context.Context, arg SearchParams) ([]models.Node, error) {
	limit, offset, err := page(arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	query := strings.TrimSpace(arg.Query)
	if query == "" {
		return []models.Node{}, nil
	}

	var nodes []models.Node
	err = s.read(ctx, func(q database.Querier) error {
		var err error
		nodes, err = q.SearchNodes(ctx, database.SearchNodesParams{
			OwnerID: arg.CallerID,
			Query:   query,
			Limit:   limit,
			Offset:  offset,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

type listFunc func(q database.Querier, ctx context.Context, arg database.ListNodesParams) ([]models.Node, error)

func (s *Service) list(ctx context.Context, arg ListParams, fn listFunc) ([]models.Node, error) {
	limit, offset, err := page(arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}

	var nodes []models.Node
	err = s.read(ctx, func(q database.Querier) error {
		var err error
		nodes, err = fn(q, ctx, database.ListNodesParams{UserID: arg.CallerID, Limit: limit, Offset: offset})
		return err
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *Service) ListStarred(ctx context.Context, arg ListParams) ([]models.Node, error) {
	return s.list(ctx, arg, database.Querier.ListStarred)
}

func (s *Service) ListRecent(ctx context.Context, arg ListParams) ([]models.Node, error) {
	return s.list(ctx, arg, database.Querier.ListRecent)
}

func (s *Service) ListTrash(ctx context.Context, arg ListParams) ([]models.Node, error) {
	return s.list(ctx, arg, database.Querier.ListTrash)
}

func (s *Service) ListSharedWithMe(ctx context.Context, arg ListParams) ([]models.Node, error) {
	return s.list(ctx, arg, database.Querier.ListSharedWithUser)
}

func (s *Service) Rename(ctx context.Context, arg RenameParams) (*models.Node, error) {
	name, err := cleanName(arg.NewName)
	if err != nil {
		return nil, err
	}

	var node *models.Node
	err = s.mutate(ctx, func(q database.Querier, j *journal) error {
		current, err := loadOwned(ctx, q, arg.NodeID, arg.CallerID)
		if err != nil {
			return err
		}
		if current.Name == name {
			node = current
			return nil
		}

		node, err = q.RenameNode(ctx, arg.NodeID, name)
		if err != nil {
			return wrap("rename node", err)
		}
		if node == nil {
			return errorf(ErrNotFound, "node %s does not exist", arg.NodeID)
		}
		return j.record(ctx, EventNodeRenamed, node, node.OwnerID)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// Move reparents a node. The target must be a folder the caller owns, and
// may be neither the node itself nor anything below it.
func (s *Service) Move(ctx context.Context, arg MoveParams) (*models.Node, error) {
	var node *models.Node
	err := s.mutate(ctx, func(q database.Querier, j *journal) error {
		current, err := lockOwned(ctx, q, arg.NodeID, arg.CallerID)
		if err != nil {
			return err
		}

		// Cycles first: every descendant of a trashed node is itself in the trash.
		if arg.NewParentID != nil {
			if err := checkNoCycle(ctx, q, arg.NodeID, *arg.NewParentID); err != nil {
				return err
			}
			if err := checkParent(ctx, q, *arg.NewParentID, arg.CallerID, accessOwner); err != nil {
				return err
			}
		}

		if sameParent(current.ParentID, arg.NewParentID) {
			node = current
			return nil
		}

		node, err = q.MoveNode(ctx, arg.NodeID, arg.NewParentID)
		if err != nil {
			if errors.Is(err, database.ErrForeignKey) {
				return errorf(ErrInvalidParent, "target folder does not exist")
			}
			return wrap("move node", err)
		}
		if node == nil {
			return errorf(ErrNotFound, "node %s does not exist", arg.NodeID)
		}
		return j.record(ctx, EventNodeMoved, node, node.OwnerID)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// checkNoCycle fails if nodeID is targetID or one of its ancestors.
func checkNoCycle(ctx context.Context, q database.Querier, nodeID, targetID string) error {
	target, err := q.GetNode(ctx, targetID)
	if err != nil {
		return wrap("load target", err)
	}
	if target == nil {
		return errorf(ErrInvalidParent, "target folder does not exist")
	}
	if target.ID == nodeID {
		return errorf(ErrCycleDetected, "cannot move %s into itself", nodeID)
	}

	chain, err := ancestors(ctx, q, target)
	if err != nil {
		return err
	}
	for _, n := range chain {
		if n.ID == nodeID {
			return errorf(ErrCycleDetected, "cannot move %s into its own descendant %s", nodeID, targetID)
		}
	}
	return nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Service) setTrashed(ctx context.Context, ref NodeRef, trashed bool, eventType string) (*models.Node, error) {
	var node *models.Node
	err := s.mutate(ctx, func(q database.Querier, j *journal) error {
		current, err := lockOwned(ctx, q, ref.NodeID, ref.CallerID)
		if err != nil {
			return err
		}
		if current.IsTrashed == trashed {
			node = current
			return nil
		}

		node, err = q.SetNodeTrashed(ctx, ref.NodeID, trashed)
		if err != nil {
			return wrap("update trash flag", err)
		}
		if node == nil {
			return errorf(ErrNotFound, "node %s does not exist", ref.NodeID)
		}
		return j.record(ctx, eventType, node, node.OwnerID)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// Trash moves a node to the trash. Descendants keep their own flag but drop
// out of every listing until the node is restored.
func (s *Service) Trash(ctx context.Context, ref NodeRef) (*models.Node, error) {
	return s.setTrashed(ctx, ref, true, EventNodeTrashed)
}

func (s *Service) Restore(ctx context.Context, ref NodeRef) (*models.Node, error) {
	return s.setTrashed(ctx, ref, false, EventNodeRestored)
}

func (s *Service) setStarred(ctx context.Context, ref NodeRef, starred bool, eventType string) (*models.Node, error) {
	var node *models.Node
	err := s.mutate(ctx, func(q database.Querier, j *journal) error {
		current, err := loadOwned(ctx, q, ref.NodeID, ref.CallerID)
		if err != nil {
			return err
		}
		if current.IsStarred == starred {
			node = current
			return nil
		}

		node, err = q.SetNodeStarred(ctx, ref.NodeID, starred)
		if err != nil {
			return wrap("update star flag", err)
		}
		if node == nil {
			return errorf(ErrNotFound, "node %s does not exist", ref.NodeID)
		}
		return j.record(ctx, eventType, node, node.OwnerID)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (s *Service) Star(ctx context.Context, ref NodeRef) (*models.Node, error) {
	return s.setStarred(ctx, ref, true, EventNodeStarred)
}

func (s *Service) Unstar(ctx context.Context, ref NodeRef) (*models.Node, error) {
	return s.setStarred(ctx, ref, false, EventNodeUnstarred)
}

// PurgeForever deletes a trashed node, everything below it and their blobs.
// Blobs are removed before the transaction commits, so a blob store failure
// leaves every row in place; blob deletes are idempotent and a retry
// converges.
func (s *Service) PurgeForever(ctx context.Context, ref NodeRef) error {
	var purged []string
	err := s.mutate(ctx, func(q database.Querier, j *journal) error {
		current, err := lockOwned(ctx, q, ref.NodeID, ref.CallerID)
		if err != nil {
			return err
		}
		if !current.IsTrashed {
			return errorf(ErrNotTrashed, "node %s must be trashed before it can be purged", ref.NodeID)
		}

		subtree, err := q.ListSubtree(ctx, ref.NodeID)
		if err != nil {
			return wrap("list subtree", err)
		}

		ids := make([]string, 0, len(subtree))
		var paths []string
		for _, n := range subtree {
			ids = append(ids, n.ID)
			if !n.IsFolder && n.Path != nil {
				paths = append(paths, *n.Path)
			}
		}

		if _, err := q.DeleteNodes(ctx, ids); err != nil {
			return wrap("delete nodes", err)
		}

		for _, p := range paths {
			if err := s.blobs.Delete(ctx, p); err != nil {
				return wrap("delete blob "+p, err)
			}
		}

		purged = ids
		return j.record(ctx, EventNodePurged, purgedPayload{ID: ref.NodeID, IDs: ids}, ref.CallerID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "node purged", "node_id", ref.NodeID, "owner_id", ref.CallerID, "nodes", len(purged))
	return nil
}

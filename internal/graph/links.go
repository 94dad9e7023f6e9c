package graph

import (
	"context"

	"vaultify/internal/database"
	"vaultify/internal/models"

	"github.com/google/uuid"
)

// CreateLinkShare returns the caller's public link for a resource, creating
// one the first time. Links do not expire; deleting one is the only way to
// revoke it.
func (s *Service) CreateLinkShare(ctx context.Context, ref ResourceRef) (*models.LinkShare, error) {
	var link *models.LinkShare
	err := s.mutate(ctx, func(q database.Querier, j *journal) error {
		if _, err := loadOwned(ctx, q, ref.ResourceID, ref.OwnerID); err != nil {
			return err
		}

		existing, err := q.GetLinkShareByResource(ctx, ref.ResourceID, ref.OwnerID)
		if err != nil {
			return wrap("load link share", err)
		}
		if existing != nil {
			link = existing
			return nil
		}

		link, err = q.CreateLinkShare(ctx, database.CreateLinkShareParams{
			ID:         uuid.New(),
			ResourceID: ref.ResourceID,
			Token:      s.newToken(),
			CreatedBy:  ref.OwnerID,
		})
		if err != nil {
			return wrap("create link share", err)
		}

		return j.record(ctx, EventLinkCreated, link, ref.OwnerID)
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// GetLinkShare returns nil when the resource has no public link.
func (s *Service) GetLinkShare(ctx context.Context, ref ResourceRef) (*models.LinkShare, error) {
	var link *models.LinkShare
	err := s.read(ctx, func(q database.Querier) error {
		if _, err := loadOwned(ctx, q, ref.ResourceID, ref.OwnerID); err != nil {
			return err
		}
		var err error
		link, err = q.GetLinkShareByResource(ctx, ref.ResourceID, ref.OwnerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Service) DeleteLinkShare(ctx context.Context, arg DeleteLinkShareParams) error {
	return s.mutate(ctx, func(q database.Querier, j *journal) error {
		link, err := q.GetLinkShare(ctx, arg.LinkID)
		if err != nil {
			return wrap("load link share", err)
		}
		if link == nil {
			return errorf(ErrNotFound, "link %s does not exist", arg.LinkID)
		}
		if link.CreatedBy != arg.OwnerID {
			return errorf(ErrForbidden, "link %s was created by another user", arg.LinkID)
		}

		if _, err := q.DeleteLinkShare(ctx, arg.LinkID); err != nil {
			return wrap("delete link share", err)
		}
		return j.record(ctx, EventLinkDeleted, link, arg.OwnerID)
	})
}

// ResolvePublicToken returns the node behind a public link. It needs no
// caller: holding the token is the credential.
func (s *Service) ResolvePublicToken(ctx context.Context, token string) (*models.Node, error) {
	var node *models.Node
	err := s.read(ctx, func(q database.Querier) error {
		var err error
		node, err = resolveToken(ctx, q, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func resolveToken(ctx context.Context, q database.Querier, token string) (*models.Node, error) {
	if token == "" {
		return nil, errorf(ErrNotFound, "link not found")
	}

	link, err := q.GetLinkShareByToken(ctx, token)
	if err != nil {
		return nil, wrap("load link share", err)
	}
	if link == nil {
		return nil, errorf(ErrNotFound, "link not found")
	}

	node, err := q.GetNode(ctx, link.ResourceID)
	if err != nil {
		return nil, wrap("load node", err)
	}
	if node == nil {
		return nil, errorf(ErrNotFound, "link not found")
	}

	chain, err := ancestors(ctx, q, node)
	if err != nil {
		return nil, err
	}
	if anyTrashed(node, chain) {
		return nil, errorf(ErrNotFound, "link not found")
	}
	return node, nil
}

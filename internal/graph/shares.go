package graph

import (
	"context"
	"errors"
	"strings"

	"vaultify/internal/database"
	"vaultify/internal/models"
)

type shareEvent struct {
	ShareID    int64  `json:"share_id"`
	ResourceID string `json:"resource_id"`
	GranteeID  string `json:"grantee_id"`
	Role       string `json:"role,omitempty"`
}

// CreateShare grants the user behind GranteeEmail a role on a resource the
// caller owns. Inviting the same user again replaces their role.
func (s *Service) CreateShare(ctx context.Context, arg CreateShareParams) (*models.Share, error) {
	role := strings.ToLower(strings.TrimSpace(arg.Role))
	if role != models.RoleViewer && role != models.RoleEditor {
		return nil, errorf(ErrInvalidArgument, "role must be %q or %q", models.RoleViewer, models.RoleEditor)
	}
	if strings.TrimSpace(arg.GranteeEmail) == "" {
		return nil, errorf(ErrInvalidArgument, "grantee email is required")
	}

	grantee, err := s.identity.LookupByEmail(ctx, arg.GranteeEmail)
	if err != nil {
		return nil, wrap("resolve grantee", err)
	}
	if grantee == nil {
		return nil, errorf(ErrGranteeNotFound, "no user with email %s", arg.GranteeEmail)
	}
	if grantee.ID == arg.OwnerID {
		return nil, errorf(ErrInvalidArgument, "cannot share a resource with yourself")
	}

	var share *models.Share
	err = s.mutate(ctx, func(q database.Querier, j *journal) error {
		if _, err := loadOwned(ctx, q, arg.ResourceID, arg.OwnerID); err != nil {
			return err
		}

		var err error
		share, err = q.UpsertShare(ctx, database.UpsertShareParams{
			ResourceID: arg.ResourceID,
			GranteeID:  grantee.ID,
			Role:       role,
			CreatedBy:  arg.OwnerID,
		})
		if err != nil {
			if errors.Is(err, database.ErrForeignKey) {
				return errorf(ErrGranteeNotFound, "no user with email %s", arg.GranteeEmail)
			}
			return wrap("upsert share", err)
		}

		payload := shareEvent{ShareID: share.ID, ResourceID: share.ResourceID, GranteeID: share.GranteeID, Role: share.Role}
		return j.record(ctx, EventShareCreated, payload, arg.OwnerID, grantee.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "share created", "share_id", share.ID, "resource_id", share.ResourceID, "grantee_id", share.GranteeID, "role", share.Role)
	return share, nil
}

func (s *Service) ListShares(ctx context.Context, ref ResourceRef) ([]models.ShareWithGrantee, error) {
	var shares []models.Share
	err := s.read(ctx, func(q database.Querier) error {
		if _, err := loadOwned(ctx, q, ref.ResourceID, ref.OwnerID); err != nil {
			return err
		}
		var err error
		shares, err = q.ListSharesByResource(ctx, ref.ResourceID, ref.OwnerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.ShareWithGrantee, 0, len(shares))
	for _, share := range shares {
		grantee, err := s.identity.LookupByID(ctx, share.GranteeID)
		if err != nil {
			return nil, wrap("resolve grantee", err)
		}
		if grantee == nil {
			continue
		}
		out = append(out, models.ShareWithGrantee{ID: share.ID, Role: share.Role, Grantee: *grantee})
	}
	return out, nil
}

func (s *Service) RevokeShare(ctx context.Context, arg RevokeShareParams) error {
	return s.mutate(ctx, func(q database.Querier, j *journal) error {
		share, err := q.GetShare(ctx, arg.ShareID)
		if err != nil {
			return wrap("load share", err)
		}
		if share == nil {
			return errorf(ErrNotFound, "share %d does not exist", arg.ShareID)
		}
		if share.CreatedBy != arg.OwnerID {
			return errorf(ErrForbidden, "share %d was created by another user", arg.ShareID)
		}

		if _, err := q.DeleteShare(ctx, arg.ShareID); err != nil {
			return wrap("delete share", err)
		}

		payload := shareEvent{ShareID: share.ID, ResourceID: share.ResourceID, GranteeID: share.GranteeID}
		return j.record(ctx, EventShareRevoked, payload, arg.OwnerID, share.GranteeID)
	})
}

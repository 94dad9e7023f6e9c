package graph

import (
	"context"

	"vaultify/internal/database"
	"vaultify/internal/models"
)

const (
	EventNodeCreated   = "node_created"
	EventNodeRenamed   = "node_renamed"
	EventNodeMoved     = "node_moved"
	EventNodeTrashed   = "node_trashed"
	EventNodeRestored  = "node_restored"
	EventNodePurged    = "node_purged"
	EventNodeStarred   = "node_starred"
	EventNodeUnstarred = "node_unstarred"
	EventShareCreated  = "share_created"
	EventShareRevoked  = "share_revoked"
	EventLinkCreated   = "link_created"
	EventLinkDeleted   = "link_deleted"
)

// Publisher delivers committed journal events to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, event models.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, models.Event) {}

type purgedPayload struct {
	ID  string   `json:"id"`
	IDs []string `json:"ids"`
}

// journal collects the events written by one transaction so they can be
// published once it commits.
type journal struct {
	q      database.Querier
	events []models.Event
}

func (j *journal) record(ctx context.Context, eventType string, payload interface{}, userIDs ...string) error {
	seen := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true

		event, err := j.q.LogEvent(ctx, userID, eventType, payload)
		if err != nil {
			return wrap("log event", err)
		}
		j.events = append(j.events, *event)
	}
	return nil
}

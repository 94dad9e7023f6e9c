package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"vaultify/internal/database"
	"vaultify/internal/models"

	"github.com/google/uuid"
)

const eventPageSize = 100

func (q *queries) CreateUser(ctx context.Context, arg database.CreateUserParams) (*models.User, error) {
	for _, u := range q.st.users {
		if u.Email == arg.Email {
			return nil, database.ErrDuplicateEmail
		}
	}
	if _, ok := q.st.users[arg.ID]; ok {
		return nil, fmt.Errorf("user %s already exists", arg.ID)
	}

	user := models.User{
		ID:           arg.ID,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		CreatedAt:    q.now(),
	}
	q.st.users[user.ID] = user
	return &user, nil
}

func (q *queries) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range q.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (q *queries) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := q.st.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (q *queries) CreateSession(ctx context.Context, arg database.CreateSessionParams) error {
	if _, ok := q.st.users[arg.UserID]; !ok {
		return database.ErrForeignKey
	}
	for _, row := range q.st.sessions {
		if row.refreshToken == arg.RefreshToken {
			return database.ErrDuplicateToken
		}
	}

	q.st.sessions[arg.ID] = sessionRow{
		session: models.Session{
			ID:        arg.ID,
			UserAgent: arg.UserAgent,
			ClientIP:  arg.ClientIP,
			ExpiresAt: arg.ExpiresAt,
			CreatedAt: q.now(),
		},
		userID:       arg.UserID,
		refreshToken: arg.RefreshToken,
	}
	return nil
}

func (q *queries) GetUserByRefreshToken(ctx context.Context, refreshToken string) (*models.User, error) {
	now := time.Now()
	for _, row := range q.st.sessions {
		if row.refreshToken == refreshToken && row.session.ExpiresAt.After(now) {
			return q.GetUserByID(ctx, row.userID)
		}
	}
	return nil, nil
}

func (q *queries) ListSessionsForUser(ctx context.Context, userID string) ([]models.Session, error) {
	now := time.Now()
	sessions := []models.Session{}
	for _, row := range q.st.sessions {
		if row.userID == userID && row.session.ExpiresAt.After(now) {
			sessions = append(sessions, row.session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (q *queries) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID string) error {
	if row, ok := q.st.sessions[sessionID]; ok && row.userID == userID {
		delete(q.st.sessions, sessionID)
	}
	return nil
}

func (q *queries) DeleteAllSessionsForUser(ctx context.Context, userID string) error {
	for id, row := range q.st.sessions {
		if row.userID == userID {
			delete(q.st.sessions, id)
		}
	}
	return nil
}

func (q *queries) DeleteSessionByRefreshToken(ctx context.Context, refreshToken string) error {
	for id, row := range q.st.sessions {
		if row.refreshToken == refreshToken {
			delete(q.st.sessions, id)
		}
	}
	return nil
}

func (q *queries) LogEvent(ctx context.Context, userID string, eventType string, payload interface{}) (*models.Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	if _, ok := q.st.users[userID]; !ok {
		return nil, database.ErrForeignKey
	}

	q.st.nextEventID++
	event := models.Event{
		ID:        q.st.nextEventID,
		UserID:    userID,
		EventType: eventType,
		EventTime: q.now(),
		Payload:   payloadBytes,
	}
	q.st.events = append(q.st.events, event)
	return &event, nil
}

func (q *queries) GetEventsSince(ctx context.Context, userID string, sinceID int64) ([]models.Event, error) {
	events := []models.Event{}
	for _, e := range q.st.events {
		if e.UserID == userID && e.ID > sinceID {
			events = append(events, e)
			if len(events) == eventPageSize {
				break
			}
		}
	}
	return events, nil
}

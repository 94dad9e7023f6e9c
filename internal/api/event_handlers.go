package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"vaultify/internal/database"
	"vaultify/internal/models"
)

type EventResponse struct {
	ID        int64           `json:"id" example:"123"`
	EventType string          `json:"event_type" example:"node_created"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload" swaggertype:"object"`
}

// @Summary      Get new events
// @Description  Retrieves up to 100 events that have occurred since a given event ID. Used for client-side cache synchronization.
// @Tags         events
// @Produce      json
// @Security     BearerAuth
// @Param        since  query     int  false  "The ID of the last event received. Omit or use 0 to get all events."
// @Success      200    {array}   EventResponse
// @Failure      400    {object}  ErrorResponse "Bad Request"
// @Failure      401    {object}  ErrorResponse "Unauthorized"
// @Failure      500    {object}  ErrorResponse
// @Router       /events [get]
func (s *Server) GetEventsHandler(w http.ResponseWriter, r *http.Request) {
	claims := GetUserFromContext(r.Context())

	sinceStr := r.URL.Query().Get("since")
	if sinceStr == "" {
		sinceStr = "0"
	}

	sinceID, err := strconv.ParseInt(sinceStr, 10, 64)
	if err != nil || sinceID < 0 {
		writeError(w, http.StatusBadRequest, "Invalid 'since' parameter, must be a non-negative number")
		return
	}

	var events []models.Event
	err = s.store.ExecTx(r.Context(), func(q database.Querier) error {
		var err error
		events, err = q.GetEventsSince(r.Context(), claims.UserID, sinceID)
		return err
	})
	if err != nil {
		s.logger.Error(r.Context(), "get events", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve events")
		return
	}

	writeJSON(w, http.StatusOK, events)
}

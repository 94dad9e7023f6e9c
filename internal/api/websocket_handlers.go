package api

import (
	"net/http"

	"vaultify/internal/auth"
	"vaultify/internal/websocket"
)

// @Summary      Live event stream
// @Description  Upgrades to a websocket that receives the caller's journal events as they are committed. Browsers cannot set headers on the upgrade, so the access token travels in the query string.
// @Tags         events
// @Param        token  query  string  true  "Access token"
// @Success      101
// @Failure      401    {object}  ErrorResponse
// @Router       /ws [get]
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		writeError(w, http.StatusUnauthorized, "token query parameter required")
		return
	}

	claims, err := auth.VerifyJWT(tokenString, s.config.JWT.Secret)
	if err != nil {
		s.logger.Warn(r.Context(), "ws connection attempt with invalid token", "error", err)
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	conn, err := websocket.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := websocket.NewClient(s.wsHub, conn, claims.UserID)
	s.wsHub.Register <- client

	go client.ReadPump()
	go client.WritePump()
}

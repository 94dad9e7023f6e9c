package api

import (
	"vaultify/internal/config"
	"vaultify/internal/database"
	"vaultify/internal/graph"
	"vaultify/internal/logging"
	"vaultify/internal/storage"
	"vaultify/internal/websocket"
)

type Server struct {
	config *config.Config
	store  database.Store
	graph  *graph.Service
	wsHub  *websocket.Hub
	logger logging.Logger

	// localBlobs is set only when blobs live on local disk; it backs the
	// signed /api/blobs routes.
	localBlobs *storage.LocalBlobStore
}

func NewServer(cfg *config.Config, store database.Store, svc *graph.Service, wsHub *websocket.Hub, localBlobs *storage.LocalBlobStore, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		config:     cfg,
		store:      store,
		graph:      svc,
		wsHub:      wsHub,
		logger:     logger,
		localBlobs: localBlobs,
	}
}

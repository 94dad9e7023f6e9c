package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(s.config.PublicURL+"/swagger/doc.json"),
	))
	r.Get("/health", s.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.ServeWsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.SignupHandler)
		r.Post("/auth/login", s.LoginHandler)
		r.Post("/auth/refresh", s.RefreshTokenHandler)
		r.Post("/auth/logout", s.LogoutHandler)

		r.Get("/shares/public/{token}", s.ResolvePublicLinkHandler)
		r.Get("/shares/public/{token}/download", s.PublicDownloadHandler)

		if s.localBlobs != nil {
			r.Put("/blobs/{token}", s.PutBlobHandler)
			r.Get("/blobs/{token}", s.GetBlobHandler)
		}

		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware)

			r.Get("/me", s.GetCurrentUserHandler)
			r.Get("/sessions", s.ListSessionsHandler)
			r.Delete("/sessions/{sessionId}", s.DeleteSessionHandler)
			r.Post("/sessions/terminate_all", s.TerminateAllSessionsHandler)
			r.Get("/events", s.GetEventsHandler)
			r.Get("/search", s.SearchHandler)

			r.Route("/files", func(r chi.Router) {
				r.Get("/", s.ListNodesHandler)
				r.Post("/", s.CreateFolderHandler)
				r.Post("/signed-url", s.SignedUploadURLHandler)
				r.Post("/metadata", s.CreateFileMetadataHandler)
				r.Get("/{nodeId}", s.GetNodeHandler)
				r.Get("/{nodeId}/download", s.DownloadFileHandler)
				r.Patch("/{nodeId}/rename", s.RenameNodeHandler)
				r.Patch("/{nodeId}/move", s.MoveNodeHandler)
				r.Patch("/{nodeId}/trash", s.TrashNodeHandler)
				r.Patch("/{nodeId}/restore", s.RestoreNodeHandler)
				r.Delete("/{nodeId}", s.PurgeNodeHandler)
			})

			r.Route("/meta", func(r chi.Router) {
				r.Get("/starred", s.ListStarredHandler)
				r.Get("/recent", s.ListRecentHandler)
				r.Get("/shared", s.ListSharedWithMeHandler)
				r.Post("/stars", s.AddStarHandler)
				r.Delete("/stars/{nodeId}", s.RemoveStarHandler)
			})

			r.Route("/shares", func(r chi.Router) {
				r.Post("/", s.CreateShareHandler)
				r.Post("/link", s.CreateLinkShareHandler)
				r.Get("/link/{resourceId}", s.GetLinkShareHandler)
				r.Delete("/link/{linkId}", s.DeleteLinkShareHandler)
				r.Get("/{resourceId}", s.ListSharesHandler)
				r.Delete("/{shareId}", s.RevokeShareHandler)
			})
		})
	})

	return r
}

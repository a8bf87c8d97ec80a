package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes wires the public and authenticated route groups.
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Route("/api", func(r chi.Router) {
		// Public routes; a valid token still identifies the caller so
		// the dashboard can list its own non-published posts.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.identify)
			r.Use(ColoredHTTPLoggingMiddleware)

			r.Get("/posts", handlers.postHandler.listPosts())
			r.Get("/posts/{slug}", handlers.postHandler.getPost())
			r.Get("/profile/{username}", handlers.profileHandler.getProfile())
			r.Get("/users", handlers.userHandler.getUsers())
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.authenticate)
			r.Use(ColoredHTTPLoggingMiddleware)

			r.Post("/posts", handlers.postHandler.createPost())
			r.Put("/posts/{postID}", handlers.postHandler.updatePost())
			r.Post("/posts/{postID}/archive", handlers.postHandler.archivePost())
			r.Post("/posts/{postID}/unarchive", handlers.postHandler.unarchivePost())
			r.Delete("/posts/delete", handlers.postHandler.deletePost())

			r.Post("/posts/{postID}/save", handlers.savedHandler.toggleSave())
			r.Get("/posts/{postID}/saved", handlers.savedHandler.isSaved())
			r.Get("/saved", handlers.savedHandler.listSaved())

			r.Delete("/deleteAccount", handlers.accountHandler.deleteAccount())

			r.Put("/profile", handlers.profileHandler.updateProfile())
			r.Post("/profile/avatar", handlers.profileHandler.uploadAvatar())
		})
	})
}

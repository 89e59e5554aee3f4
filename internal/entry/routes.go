package entry

import "github.com/go-chi/chi/v5"

// RegisterRoutes registra las rutas de sesiones de carga/edición.
func RegisterRoutes(route chi.Router, handler *Handler) {
	route.Route("/entries", func(route chi.Router) {
		route.Post("/", handler.Open)
		route.Get("/{sessionID}", handler.Get)
		route.Patch("/{sessionID}", handler.Update)
		route.Delete("/{sessionID}", handler.Cancel)
		route.Post("/{sessionID}/commit", handler.Commit)
	})
}

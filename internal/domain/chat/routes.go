package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns chat router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// All routes require authentication
	r.Use(authMiddleware)

	// Rooms
	r.Post("/rooms", h.CreateRoom)
	r.Get("/rooms", h.ListRooms)
	r.Get("/rooms/{id}", h.EnterRoom)
	r.Get("/rooms/{id}/members", h.GetMembers)
	r.Get("/rooms/{id}/invite", h.GetInvite)
	r.Post("/join", h.Join)

	// Messages
	r.Get("/rooms/{id}/messages", h.GetMessages)
	r.Post("/rooms/{id}/messages", h.SendMessage)
	r.Get("/rooms/{id}/poll", h.Poll)

	return r
}

package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/polyeduhub/polyeduhub-api/internal/middleware"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/errorhandler"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/logger"
	"github.com/polyeduhub/polyeduhub-api/internal/pkg/response"
)

// Handler handles chat HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates chat handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func roomID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// writeError maps chat errors to responses; anything unknown is a 500
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		response.NotFound(w, "Chat room not found")
	case errors.Is(err, ErrMessageNotFound):
		response.NotFound(w, "Message not found")
	case errors.Is(err, ErrEmptyMessage):
		response.ValidationMessages(w, []string{"message: Message cannot be empty"})
	case errors.Is(err, ErrInvalidInviteCode):
		response.ValidationMessages(w, []string{"code: Invalid invite code"})
	case errors.Is(err, ErrPublicRoomInvite):
		response.BadRequest(w, "Public rooms can be joined directly")
	case errors.Is(err, ErrRateLimited):
		response.TooManyRequests(w)
	default:
		errorhandler.Internal(r.Context(), w, op, err)
	}
}

// CreateRoom handles POST /chat/rooms
// @Summary Create chat room
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRoomRequest true "Room"
// @Success 201 {object} response.Response{data=CreatedResponse}
// @Failure 400,422,500 {object} response.Response
// @Router /chat/rooms [post]
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	id, problems, err := h.service.CreateRoom(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		h.writeError(w, r, "chat.create_room", err)
		return
	}
	if len(problems) > 0 {
		response.ValidationMessages(w, problems)
		return
	}

	response.Created(w, CreatedResponse{ID: id})
}

// ListRooms handles GET /chat/rooms
// @Summary List rooms visible to me
// @Tags Chat
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]RoomSummary}
// @Router /chat/rooms [get]
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.ListVisibleRooms(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, "chat.list_rooms", err)
		return
	}
	response.OK(w, rooms)
}

// EnterRoom handles GET /chat/rooms/{id}
// Visiting a visible room joins it. Invite codes come from GET /chat/rooms/{id}/invite.
// @Summary Open room
// @Tags Chat
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} response.Response{data=RoomDetail}
// @Failure 404 {object} response.Response
// @Router /chat/rooms/{id} [get]
func (h *Handler) EnterRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := roomID(r)
	if !ok {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	room, joined, err := h.service.EnterRoom(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		h.writeError(w, r, "chat.enter_room", err)
		return
	}

	response.OK(w, RoomDetail{Room: room, Joined: joined})
}

// GetMembers handles GET /chat/rooms/{id}/members
// @Summary Room members
// @Tags Chat
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Router /chat/rooms/{id}/members [get]
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := roomID(r)
	if !ok {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	members, err := h.service.RoomMembers(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		h.writeError(w, r, "chat.members", err)
		return
	}
	response.OK(w, members)
}

// GetInvite handles GET /chat/rooms/{id}/invite
// @Summary Invite code for a private or group room
// @Tags Chat
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Success 200 {object} response.Response{data=InviteResponse}
// @Router /chat/rooms/{id}/invite [get]
func (h *Handler) GetInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := roomID(r)
	if !ok {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	code, err := h.service.InviteCode(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		h.writeError(w, r, "chat.invite", err)
		return
	}
	response.OK(w, InviteResponse{Code: code})
}

// Join handles POST /chat/join
// @Summary Join room by invite code
// @Tags Chat
// @Security BearerAuth
// @Param request body JoinRequest true "Invite code"
// @Success 200 {object} response.Response{data=Room}
// @Router /chat/join [post]
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	room, err := h.service.JoinByInviteCode(r.Context(), middleware.GetUserID(r.Context()), req.Code)
	if err != nil {
		h.writeError(w, r, "chat.join", err)
		return
	}
	response.OK(w, room)
}

// GetMessages handles GET /chat/rooms/{id}/messages
// @Summary Room history, newest first
// @Tags Chat
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param page query int false "Page, 50 messages each"
// @Router /chat/rooms/{id}/messages [get]
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := roomID(r)
	if !ok {
		response.BadRequest(w, "Invalid room ID")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	history, err := h.service.FetchHistory(r.Context(), middleware.GetUserID(r.Context()), id, page)
	if err != nil {
		h.writeError(w, r, "chat.history", err)
		return
	}
	response.WithMeta(w, history.Messages, response.NewMeta(history.Total, history.Page, history.PageSize))
}

// SendMessage handles POST /chat/rooms/{id}/messages
// @Summary Post message
// @Tags Chat
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param request body PostMessageRequest true "Message"
// @Success 201 {object} response.Response{data=CreatedResponse}
// @Failure 404,422,429 {object} response.Response
// @Router /chat/rooms/{id}/messages [post]
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := roomID(r)
	if !ok {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req PostMessageRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	msgID, err := h.service.PostMessage(r.Context(), middleware.GetUserID(r.Context()), id, req.Message)
	if err != nil {
		h.writeError(w, r, "chat.send_message", err)
		return
	}
	response.Created(w, CreatedResponse{ID: msgID})
}

// Poll handles GET /chat/rooms/{id}/poll?after=N
// The body is {success, messages, error?} without the usual envelope.
// @Summary New messages since a message id
// @Tags Chat
// @Security BearerAuth
// @Param id path int true "Room ID"
// @Param after query int false "Last message id the client has"
// @Success 200 {object} PollResponse
// @Router /chat/rooms/{id}/poll [get]
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	id, ok := roomID(r)
	if !ok {
		response.Raw(w, http.StatusBadRequest, PollResponse{Messages: []PollMessage{}, Error: "Invalid room ID"})
		return
	}

	var after int64
	if v := r.URL.Query().Get("after"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.Raw(w, http.StatusBadRequest, PollResponse{Messages: []PollMessage{}, Error: "Invalid after parameter"})
			return
		}
		after = parsed
	}

	messages, err := h.service.FetchSince(r.Context(), middleware.GetUserID(r.Context()), id, after)
	switch {
	case errors.Is(err, ErrRoomNotFound):
		response.Raw(w, http.StatusNotFound, PollResponse{Messages: []PollMessage{}, Error: "Chat room not found"})
	case err != nil:
		logger.FromContext(r.Context()).Error().Err(err).Str("op", "chat.poll").Msg("Request failed")
		response.Raw(w, http.StatusInternalServerError, PollResponse{Messages: []PollMessage{}, Error: "An error occurred"})
	default:
		response.Raw(w, http.StatusOK, PollResponse{Success: true, Messages: messages})
	}
}

package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// APIHandlers exposes read-only views of hub state.
type APIHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub: hub,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OnlineResponse lists connected usernames.
type OnlineResponse struct {
	Users []string `json:"users"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
	History int    `json:"history"`
}

// HistoryResponse carries a room's retained messages, oldest first.
type HistoryResponse struct {
	Room     string               `json:"room"`
	Messages []proto.EventMessage `json:"messages"`
}

// Online returns the presence snapshot.
// GET /api/online
func (h *APIHandlers) Online(c *gin.Context) {
	users, err := h.hub.Online(c.Request.Context())
	if err != nil {
		h.unavailable(c, err, "failed to read presence")
		return
	}
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, OnlineResponse{Users: users})
}

// Rooms lists every known room.
// GET /api/rooms
func (h *APIHandlers) Rooms(c *gin.Context) {
	rooms, err := h.hub.Rooms(c.Request.Context())
	if err != nil {
		h.unavailable(c, err, "failed to list rooms")
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, RoomResponse{
			Name:    room.Name,
			Members: room.Members,
			History: room.History,
		})
	}
	c.JSON(http.StatusOK, response)
}

// RoomHistory returns a room's retained history.
// GET /api/rooms/:room/history
func (h *APIHandlers) RoomHistory(c *gin.Context) {
	name := strings.TrimSpace(c.Param("room"))
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room is required"})
		return
	}

	history, ok, err := h.hub.History(c.Request.Context(), name)
	if err != nil {
		h.unavailable(c, err, "failed to read history")
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	messages := make([]proto.EventMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, messageFromCore(msg))
	}
	c.JSON(http.StatusOK, HistoryResponse{Room: name, Messages: messages})
}

func (h *APIHandlers) unavailable(c *gin.Context, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service unavailable"})
}

package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/store"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

// APIHandlers provides the read-only admin endpoints.
type APIHandlers struct {
	hub    *core.Hub
	events store.EventStore
	log    *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, events store.EventStore, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:    hub,
		events: events,
		log:    logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MembersResponse lists registered display names.
type MembersResponse struct {
	Members []string `json:"members"`
	Count   int      `json:"count"`
}

// EventResponse is one presence event.
type EventResponse struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name,omitempty"`
	Addr      string    `json:"addr,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventsResponse lists presence events, most recent first.
type EventsResponse struct {
	Events []EventResponse `json:"events"`
}

// Members returns the current registry snapshot.
// GET /api/members
func (h *APIHandlers) Members(c *gin.Context) {
	members := h.hub.Members()
	c.JSON(http.StatusOK, MembersResponse{Members: members, Count: len(members)})
}

// Events returns recent presence events.
// GET /api/events?limit=N
func (h *APIHandlers) Events(c *gin.Context) {
	if h.events == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "presence audit disabled"})
		return
	}

	limit := defaultEventsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxEventsLimit)
	}

	events, err := h.events.ListEvents(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list presence events")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list events"})
		return
	}

	resp := EventsResponse{Events: make([]EventResponse, 0, len(events))}
	for _, ev := range events {
		resp.Events = append(resp.Events, EventResponse{
			ID:        ev.ID,
			Kind:      ev.Kind,
			SessionID: ev.SessionID,
			Name:      ev.Name,
			Addr:      ev.Addr,
			Detail:    ev.Detail,
			CreatedAt: ev.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

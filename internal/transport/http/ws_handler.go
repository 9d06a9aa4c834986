package http

import (
	"errors"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// wsReadLimit fits one maximal frame plus its header.
const wsReadLimit = proto.MaxPayload + 4

// WSHandler upgrades HTTP connections and hands the resulting byte stream to
// the hub. Frames are carried inside binary WebSocket messages.
type WSHandler struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	conn.SetReadLimit(wsReadLimit)

	nc := websocket.NetConn(r.Context(), conn, websocket.MessageBinary)
	if err := h.hub.ServeConn(nc); err != nil && !errors.Is(err, core.ErrHubClosed) {
		h.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("ws connection ended")
	}
}

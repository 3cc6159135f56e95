package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"liveclass-admin/internal/app"
	"liveclass-admin/internal/domain"
)

// WSHandler streams the live record to dashboards so every open tab sees start/end.
type WSHandler struct {
	live     *app.LiveService
	upgrader websocket.Upgrader
}

func NewWSHandler(live *app.LiveService) *WSHandler {
	return &WSHandler{
		live: live,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and pushes a "live" message for the current state
// and each subsequent change until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.live.Subscribe(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	// Inbound frames are ignored; reading only detects the close.
	closeSignals := make(chan struct{})
	go func() {
		defer close(closeSignals)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case state, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.LiveStreamState]{Type: "live", Payload: state}); err != nil {
				slog.Debug("ws write error", "error", err)
				return
			}
		case <-closeSignals:
			return
		}
	}
}

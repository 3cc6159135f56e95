package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"liveclass-admin/internal/app"
	"liveclass-admin/internal/infra/memory"
)

func TestWebSocketLiveFeed(t *testing.T) {
	live := app.NewLiveService(memory.NewDocumentStore(), app.ServiceConfig{})
	wsHandler := NewWSHandler(live)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/live", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/live"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The current (idle) state arrives first.
	payload := readLive(t, conn)
	if payload["isLive"] != false {
		t.Fatalf("expected idle state, got %v", payload)
	}

	if _, err := live.StartLive(context.Background(), "https://youtu.be/dQw4w9WgXcQ"); err != nil {
		t.Fatalf("start live: %v", err)
	}
	payload = readLive(t, conn)
	if payload["isLive"] != true || payload["url"] != "https://www.youtube.com/embed/dQw4w9WgXcQ" {
		t.Fatalf("expected live state, got %v", payload)
	}

	if _, err := live.EndLive(context.Background()); err != nil {
		t.Fatalf("end live: %v", err)
	}
	payload = readLive(t, conn)
	if payload["isLive"] != false || payload["url"] != "" {
		t.Fatalf("expected cleared state, got %v", payload)
	}
}

func readLive(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "live" {
		t.Fatalf("expected live message, got %s", msg.Type)
	}
	return msg.Payload
}

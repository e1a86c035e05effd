package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gatecrash/internal/config"
	"gatecrash/internal/events"
	"gatecrash/internal/game"
	"gatecrash/internal/wshub"
)

func testServer() *Server {
	return &Server{
		Games: game.NewManager(game.DefaultConfig(), events.NewBus()),
		Hub:   wshub.NewHub(),
		Cfg:   config.Config{PublicBaseURL: "http://localhost:8080"},
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "OK" {
		t.Errorf("body = %q, want OK", got)
	}
}

func TestCreateRoomEndpoint(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rooms", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	code, ok := body["room_id"]
	if !ok || code == "" {
		t.Fatalf("body = %v, want a room_id", body)
	}
	if !srv.Games.RoomExists(code) {
		t.Errorf("room %q not registered", code)
	}
}

func TestRoomQREndpoint(t *testing.T) {
	srv := testServer()
	room, err := srv.Games.MintRoom()
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms/"+room.ID+"/qr", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty QR body")
	}
}

func TestRoomQREndpoint_UnknownRoom(t *testing.T) {
	srv := testServer()
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms/ZZZZZ/qr", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

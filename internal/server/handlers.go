package server

import (
	"encoding/json"
	"log"
	"net/http"

	"gatecrash/internal/config"
	"gatecrash/internal/game"
	"gatecrash/internal/wshub"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

type Server struct {
	Games *game.Manager
	Hub   *wshub.Hub
	Cfg   config.Config
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// handleCreateRoom mints a room under a generated code. Rooms can also be
// created implicitly by joining any code over the socket.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.Games.MintRoom()
	if err != nil {
		log.Println(err)
		http.Error(w, "Failed to create room", http.StatusInternalServerError)
		return
	}
	log.Printf("[Rooms] Minted room %s\n", room.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"room_id": room.ID})
}

// handleRoomQR renders a QR code for the room's join link.
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !s.Games.RoomExists(code) {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}
	png, err := qrcode.Encode(s.Cfg.PublicBaseURL+"/?room="+code, qrcode.Medium, 256)
	if err != nil {
		log.Println(err)
		http.Error(w, "Failed to render QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// handleWS upgrades the connection, mints a session id and pumps commands
// until the client goes away. Disconnecting removes the player from its room.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("[WS] Accept error: %v\n", err)
		return
	}

	sid := uuid.New().String()
	client := &wshub.Client{
		SID:  sid,
		Conn: conn,
		Send: make(chan []byte, 32),
	}
	s.Hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)

	if data, err := wshub.Encode("connection_ack", map[string]string{"sid": sid}); err == nil {
		s.Hub.SendTo(sid, data)
	}

	defer func() {
		s.Hub.Unregister(sid)
		s.Games.RemovePlayer(sid)
		conn.CloseNow()
		log.Printf("[WS] Client disconnected: %s\n", sid)
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg wshub.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(sid, "malformed message")
			continue
		}
		s.dispatch(sid, msg)
	}
}

// sendError reports a failed command to the requester only; nobody else in
// the room hears about it.
func (s *Server) sendError(sid, message string) {
	data, err := wshub.Encode("error", map[string]string{"message": message})
	if err != nil {
		log.Printf("[WS] Encode error: %v\n", err)
		return
	}
	s.Hub.SendTo(sid, data)
}

package server

import (
	"encoding/json"

	"gatecrash/internal/game"
	"gatecrash/internal/gates"
	"gatecrash/internal/wshub"
)

type joinPayload struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

type startRoundPayload struct {
	RoomID   string `json:"room_id"`
	Duration int    `json:"duration"`
}

type votePayload struct {
	Vote int `json:"vote"`
}

type targetPayload struct {
	RoomID    string `json:"room_id"`
	TargetSID string `json:"target_sid"`
}

type modePayload struct {
	RoomID string `json:"room_id"`
	Mode   string `json:"mode"`
}

type targetGatePayload struct {
	RoomID string   `json:"room_id"`
	Gate   string   `json:"gate"`
	Gates  []string `json:"gates"`
}

type countPayload struct {
	RoomID  string `json:"room_id"`
	Count   int    `json:"count"`
	Seconds int    `json:"seconds"`
}

type roomPayload struct {
	RoomID string `json:"room_id"`
}

type teamPayload struct {
	RoomID string `json:"room_id"`
	TeamID string `json:"team_id"`
	Name   string `json:"name"`
}

type chatPayload struct {
	RoomID  string `json:"room_id"`
	Message string `json:"message"`
}

type cardImagePayload struct {
	RoomID    string `json:"room_id"`
	CardType  string `json:"card_type"` // "0" or "1"
	ImageData string `json:"image_data"`
}

// dispatch routes one client command to the engine. Successful mutations are
// broadcast by the engine itself; failures go back to the requester alone.
func (s *Server) dispatch(sid string, msg wshub.ClientMessage) {
	switch msg.Type {
	case "join_game":
		var p joinPayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if p.Avatar == "" {
			p.Avatar = "😀"
		}
		if err := s.Games.Join(sid, p.RoomID, p.Name, p.Role, p.Avatar); err != nil {
			s.sendError(sid, "Join failed: "+err.Error())
			return
		}
		s.Hub.SetRoom(sid, p.RoomID)

	case "start_round":
		var p startRoundPayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if err := s.Games.StartRound(sid, p.RoomID, p.Duration); err != nil {
			s.sendError(sid, err.Error())
		}

	case "player_input":
		var p votePayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if err := s.Games.SetVote(sid, p.Vote == 1); err != nil {
			s.sendError(sid, err.Error())
		}

	case "attempt_open":
		won, err := s.Games.AttemptOpen(sid)
		if err != nil {
			s.sendError(sid, err.Error())
			return
		}
		if !won {
			s.sendError(sid, "System lock active: logic output is still 0.")
		}

	case "apply_not":
		var p targetPayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if err := s.Games.ToggleNot(sid, p.TargetSID, p.RoomID); err != nil {
			s.sendError(sid, "Cannot apply NOT gate: "+err.Error())
		}

	case "kick_player":
		var p targetPayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if err := s.Games.KickPlayer(sid, p.TargetSID, p.RoomID); err != nil {
			s.sendError(sid, err.Error())
			return
		}
		if data, err := wshub.Encode("kicked", map[string]string{"message": "You have been removed from the game"}); err == nil {
			s.Hub.SendTo(p.TargetSID, data)
		}
		s.Hub.CloseClient(p.TargetSID, "kicked")

	case "add_team":
		var p teamPayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if err := s.Games.AddTeam(sid, p.RoomID, p.TeamID, p.Name); err != nil {
			s.sendError(sid, err.Error())
		}

	case "set_game_mode":
		var p modePayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if err := s.Games.SetGameMode(sid, p.RoomID, game.GameMode(p.Mode)); err != nil {
			s.sendError(sid, err.Error())
		}

	case "set_logic_mode":
		var p modePayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if err := s.Games.SetLogicMode(sid, p.RoomID, game.LogicMode(p.Mode)); err != nil {
			s.sendError(sid, err.Error())
		}

	case "set_target_gate":
		var p targetGatePayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		var err error
		if len(p.Gates) > 0 {
			seq := make([]gates.Kind, 0, len(p.Gates))
			for _, g := range p.Gates {
				seq = append(seq, gates.Kind(g))
			}
			err = s.Games.SetTargetGates(sid, p.RoomID, seq)
		} else {
			err = s.Games.SetTargetGate(sid, p.RoomID, gates.Kind(p.Gate))
		}
		if err != nil {
			s.sendError(sid, err.Error())
		}

	case "set_max_players":
		var p countPayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if err := s.Games.SetMaxPlayers(sid, p.RoomID, p.Count); err != nil {
			s.sendError(sid, err.Error())
		}

	case "set_not_lockout":
		var p countPayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if err := s.Games.SetNotLockout(sid, p.RoomID, p.Seconds); err != nil {
			s.sendError(sid, err.Error())
		}

	case "reset_scores":
		var p roomPayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if err := s.Games.ResetScores(sid, p.RoomID); err != nil {
			s.sendError(sid, err.Error())
		}

	case "toggle_chat":
		var p teamPayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		if err := s.Games.ToggleTeamChat(sid, p.RoomID, p.TeamID); err != nil {
			s.sendError(sid, err.Error())
		}

	case "chat_message":
		var p chatPayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		recipients, sender, err := s.Games.ChatRecipients(sid, p.RoomID)
		if err != nil {
			s.sendError(sid, err.Error())
			return
		}
		for _, rsid := range recipients {
			data, err := wshub.Encode("chat_message", map[string]any{
				"sender": sender,
				"text":   p.Message,
				"is_me":  rsid == sid,
			})
			if err != nil {
				continue
			}
			s.Hub.SendTo(rsid, data)
		}

	case "upload_card_image":
		var p cardImagePayload
		if !s.decode(sid, msg.Data, &p) {
			return
		}
		slot := -1
		switch p.CardType {
		case "0":
			slot = 0
		case "1":
			slot = 1
		}
		if err := s.Games.UploadCardArt(sid, p.RoomID, slot, p.ImageData); err != nil {
			s.sendError(sid, err.Error())
		}

	default:
		s.sendError(sid, "unknown command: "+msg.Type)
	}
}

func (s *Server) decode(sid string, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		s.sendError(sid, "missing payload")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.sendError(sid, "malformed payload")
		return false
	}
	return true
}

package game

import "fmt"

// RoomSnapshot is the serialization contract broadcast to clients after every
// successful mutation. Field names follow the wire format the frontend
// consumes; cards and votes travel as 0/1.
type RoomSnapshot struct {
	ID                string                  `json:"id"`
	State             string                  `json:"state"`
	Timer             float64                 `json:"timer"`
	Difficulty        int                     `json:"difficulty"`
	GameMode          string                  `json:"game_mode"`
	RoundNumber       int                     `json:"round_number"`
	CustomCard0       string                  `json:"custom_card_0"`
	CustomCard1       string                  `json:"custom_card_1"`
	LogicMode         string                  `json:"logic_mode"`
	MaxPlayersPerTeam int                     `json:"max_players_per_team"`
	NotLockoutTime    int                     `json:"not_lockout_time"`
	TargetGate        string                  `json:"target_gate"`
	TargetGates       []string                `json:"target_gates"`
	Teams             map[string]TeamSnapshot `json:"teams"`
	Operator          string                  `json:"operator"`
}

type TeamSnapshot struct {
	ID                 string                    `json:"id"`
	Name               string                    `json:"name"`
	Score              float64                   `json:"score"`
	SolvedCurrentRound bool                      `json:"solved_current_round"`
	LastRoundResult    *string                   `json:"last_round_result"`
	NotGatesUsed       int                       `json:"not_gates_used"`
	WasSabotaged       bool                      `json:"was_sabotaged"`
	RoundStats         RoundStats                `json:"round_stats"`
	CurrentGate        string                    `json:"current_gate"`
	ChatEnabled        bool                      `json:"chat_enabled"`
	Players            map[string]PlayerSnapshot `json:"players"`
}

type RoundStats struct {
	Base    float64 `json:"base"`
	Bonus   float64 `json:"bonus"`
	Penalty float64 `json:"penalty"`
}

type PlayerSnapshot struct {
	SID       string `json:"sid"`
	Name      string `json:"name"`
	CardValue int    `json:"card_value"`
	VoteValue *int   `json:"vote_value"`
	HasNot    bool   `json:"has_not_gate"`
	Avatar    string `json:"avatar"`
}

// Snapshot builds the full room state for broadcast.
func (m *Manager) Snapshot(roomID string) (*RoomSnapshot, error) {
	room := m.room(roomID)
	if room == nil {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	snap := &RoomSnapshot{
		ID:                room.ID,
		State:             string(room.State),
		Timer:             room.remaining(m.now()).Seconds(),
		Difficulty:        room.Difficulty,
		GameMode:          string(room.GameMode),
		RoundNumber:       room.RoundNumber,
		CustomCard0:       room.CardArt[0],
		CustomCard1:       room.CardArt[1],
		LogicMode:         string(room.LogicMode),
		MaxPlayersPerTeam: room.MaxPlayersPerTeam,
		NotLockoutTime:    room.NotLockoutSecs,
		TargetGate:        string(room.TargetGate),
		TargetGates:       make([]string, 0, len(room.TargetGates)),
		Teams:             make(map[string]TeamSnapshot, len(room.Teams)),
		Operator:          room.OperatorSID,
	}
	for _, g := range room.TargetGates {
		snap.TargetGates = append(snap.TargetGates, string(g))
	}

	for id, team := range room.Teams {
		ts := TeamSnapshot{
			ID:                 team.ID,
			Name:               team.Name,
			Score:              team.Score,
			SolvedCurrentRound: team.Solved,
			NotGatesUsed:       team.NotGatesUsed,
			WasSabotaged:       team.WasSabotaged,
			RoundStats: RoundStats{
				Base:    team.Pending.Base,
				Bonus:   team.Pending.Bonus,
				Penalty: team.Pending.Penalty,
			},
			CurrentGate: string(team.Gate),
			ChatEnabled: team.ChatEnabled,
			Players:     make(map[string]PlayerSnapshot, len(team.Players)),
		}
		if team.LastResult != ResultNone {
			result := string(team.LastResult)
			ts.LastRoundResult = &result
		}
		for sid, p := range team.Players {
			ps := PlayerSnapshot{
				SID:       p.SID,
				Name:      p.Name,
				CardValue: boolToBit(p.Card),
				HasNot:    p.HasNot,
				Avatar:    p.Avatar,
			}
			if p.Vote != nil {
				v := boolToBit(*p.Vote)
				ps.VoteValue = &v
			}
			ts.Players[sid] = ps
		}
		snap.Teams[id] = ts
	}
	return snap, nil
}

func boolToBit(b bool) int {
	if b {
		return 1
	}
	return 0
}

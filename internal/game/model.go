package game

import (
	"sync"
	"time"

	"gatecrash/internal/gates"
)

type RoomState string

const (
	StateLobby    = RoomState("LOBBY")
	StatePlaying  = RoomState("PLAYING")
	StateFinished = RoomState("FINISHED")
)

type GameMode string

const (
	ModeCompetitive = GameMode("competitive")
	ModeAsymmetric  = GameMode("asymmetric")
	ModeCampaign    = GameMode("campaign")
)

func validGameMode(m GameMode) bool {
	switch m {
	case ModeCompetitive, ModeAsymmetric, ModeCampaign:
		return true
	}
	return false
}

// LogicMode selects the round win condition: predict the gate output, or
// force the output open (1).
type LogicMode string

const (
	LogicPredict = LogicMode("predict")
	LogicOpen    = LogicMode("open")
)

type RoundResult string

const (
	ResultSuccess = RoundResult("success")
	ResultFailed  = RoundResult("failed")
	ResultNone    = RoundResult("")
)

const (
	RoleOperator = "operator"
	RolePlayer   = "player"
)

// Player is one connected participant. Card and NOT flag are owned by the
// engine; the vote is whatever the player last committed.
type Player struct {
	SID    string
	Name   string
	Avatar string
	Card   bool  // dealt each round
	Vote   *bool // nil until the player votes
	HasNot bool  // sabotage flag, inverts the effective input
}

// Input is the player's effective gate input: card XOR NOT flag.
func (p *Player) Input() bool {
	return p.Card != p.HasNot
}

// PendingScore holds the deferred round reward. Win checks fill it in,
// FinalizeRound is the only place it is committed to the team score.
type PendingScore struct {
	Base    float64
	Bonus   float64
	Penalty float64
}

type Team struct {
	ID           string
	Name         string
	Players      map[string]*Player
	Score        float64
	Gate         gates.Kind
	Solved       bool
	LastResult   RoundResult
	NotGatesUsed int
	WasSabotaged bool
	Pending      PendingScore
	ChatEnabled  bool
}

func newTeam(id, name string) *Team {
	return &Team{
		ID:          id,
		Name:        name,
		Players:     make(map[string]*Player),
		Gate:        gates.AND,
		ChatEnabled: true,
	}
}

func (t *Team) resetRound() {
	t.Solved = false
	t.LastResult = ResultNone
	t.NotGatesUsed = 0
	t.WasSabotaged = false
	t.Pending = PendingScore{}
}

// Room is one isolated game session. All mutations hold mu so that client
// commands and the round timer serialize against each other.
type Room struct {
	mu sync.Mutex

	ID          string
	OperatorSID string
	Teams       map[string]*Team
	State       RoomState
	Difficulty  int
	GameMode    GameMode
	LogicMode   LogicMode
	RoundNumber int
	RoundEnd    time.Time

	TargetGate  gates.Kind
	TargetGates []gates.Kind

	MaxPlayersPerTeam int
	NotLockoutSecs    int

	// Uploaded card artwork, opaque to the engine. Index 0 is the "0" card.
	CardArt [2]string

	CreatedAt time.Time
}

// teamOf returns the team holding sid, or nil.
func (r *Room) teamOf(sid string) *Team {
	for _, team := range r.Teams {
		if _, ok := team.Players[sid]; ok {
			return team
		}
	}
	return nil
}

// remaining is the time left in the current round, zero outside PLAYING.
func (r *Room) remaining(now time.Time) time.Duration {
	if r.State != StatePlaying {
		return 0
	}
	d := r.RoundEnd.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

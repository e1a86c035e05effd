package game

import (
	"errors"
	"testing"
	"time"
)

// twoTeamRoom seats one player per team so cross-team sabotage is possible.
func twoTeamRoom(t *testing.T, m *Manager) *Room {
	t.Helper()
	mustJoin(t, m, "op", "R1", "Morgan", RoleOperator)
	if err := m.SetMaxPlayers("op", "R1", 1); err != nil {
		t.Fatal(err)
	}
	mustJoin(t, m, "a1", "R1", "Alice", RolePlayer) // team A
	mustJoin(t, m, "b1", "R1", "Bob", RolePlayer)   // team B
	return m.room("R1")
}

func TestSabotagePolicy(t *testing.T) {
	teamA := newTeam("A", "Team A")
	teamB := newTeam("B", "Team B")

	tests := []struct {
		name       string
		isOperator bool
		requester  *Team
		reqScore   float64
		target     *Team
		mode       LogicMode
		want       sabotageKind
		wantErr    bool
	}{
		{"operator always allowed", true, nil, 0, teamB, LogicPredict, sabotageOperator, false},
		{"no team rejected", false, nil, 0, teamB, LogicPredict, 0, true},
		{"ally in open mode", false, teamA, 0, teamA, LogicOpen, sabotageAlly, false},
		{"ally in predict rejected", false, teamA, 0, teamA, LogicPredict, 0, true},
		{"rival with a point", false, teamA, 1, teamB, LogicPredict, sabotageRival, false},
		{"broke rival rejected", false, teamA, 0, teamB, LogicPredict, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.requester != nil {
				tt.requester.Score = tt.reqScore
			}
			got, err := sabotagePolicy(tt.isOperator, tt.requester, tt.target, tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("kind = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToggleNot_RivalEconomy(t *testing.T) {
	m := testManager()
	room := twoTeamRoom(t, m)
	teamA := room.Teams["A"]
	teamB := room.Teams["B"]
	teamA.Score = 2

	if err := m.ToggleNot("a1", "b1", "R1"); err != nil {
		t.Fatalf("ToggleNot error: %v", err)
	}

	if teamA.Score != 1 {
		t.Errorf("attacker score = %v, want 1 (spent a point)", teamA.Score)
	}
	if teamA.NotGatesUsed != 1 {
		t.Errorf("NotGatesUsed = %d, want 1", teamA.NotGatesUsed)
	}
	if teamA.Pending.Penalty != 1 {
		t.Errorf("attacker Pending.Penalty = %v, want 1", teamA.Pending.Penalty)
	}
	if !teamB.WasSabotaged {
		t.Error("target team must be flagged as sabotaged")
	}
	if !teamB.Players["b1"].HasNot {
		t.Error("target player must carry the NOT flag")
	}
}

func TestToggleNot_BrokeRivalRejected(t *testing.T) {
	m := testManager()
	room := twoTeamRoom(t, m)

	if err := m.ToggleNot("a1", "b1", "R1"); !errors.Is(err, ErrRuleViolation) {
		t.Errorf("broke sabotage error = %v, want ErrRuleViolation", err)
	}
	if room.Teams["B"].Players["b1"].HasNot {
		t.Error("rejected sabotage must not flip the flag")
	}
}

func TestToggleNot_SecondToggleRemoves(t *testing.T) {
	m := testManager()
	room := twoTeamRoom(t, m)
	room.Teams["A"].Score = 5

	if err := m.ToggleNot("a1", "b1", "R1"); err != nil {
		t.Fatal(err)
	}
	if err := m.ToggleNot("a1", "b1", "R1"); err != nil {
		t.Fatal(err)
	}

	if room.Teams["B"].Players["b1"].HasNot {
		t.Error("second toggle should remove the NOT flag")
	}
	if room.Teams["A"].Score != 3 {
		t.Errorf("attacker score = %v, want 3 (each toggle costs a point)", room.Teams["A"].Score)
	}
}

func TestToggleNot_OperatorIsFree(t *testing.T) {
	m := testManager()
	room := twoTeamRoom(t, m)

	if err := m.ToggleNot("op", "b1", "R1"); err != nil {
		t.Fatalf("operator ToggleNot error: %v", err)
	}
	if !room.Teams["B"].Players["b1"].HasNot {
		t.Error("operator toggle must flip the flag")
	}
	if !room.Teams["B"].WasSabotaged {
		t.Error("operator toggle still flags the target team")
	}
}

func TestToggleNot_AllyRequiresOpenMode(t *testing.T) {
	m := testManager()
	mustJoin(t, m, "op", "R1", "Morgan", RoleOperator)
	mustJoin(t, m, "a1", "R1", "Alice", RolePlayer)
	mustJoin(t, m, "a2", "R1", "Amy", RolePlayer)
	room := m.room("R1")

	if err := m.ToggleNot("a1", "a2", "R1"); !errors.Is(err, ErrRuleViolation) {
		t.Errorf("ally toggle in predict error = %v, want ErrRuleViolation", err)
	}

	if err := m.SetLogicMode("op", "R1", LogicOpen); err != nil {
		t.Fatal(err)
	}
	if err := m.ToggleNot("a1", "a2", "R1"); err != nil {
		t.Fatalf("ally toggle in open mode error: %v", err)
	}
	teamA := room.Teams["A"]
	if !teamA.Players["a2"].HasNot {
		t.Error("ally toggle must flip the flag")
	}
	if teamA.WasSabotaged {
		t.Error("self-inflicted NOT is not a sabotage")
	}
	if teamA.Pending.Penalty != 0 {
		t.Errorf("ally toggle is free, Pending.Penalty = %v", teamA.Pending.Penalty)
	}
}

func TestToggleNot_LockoutWindow(t *testing.T) {
	m := testManager()
	room := twoTeamRoom(t, m)
	room.Teams["A"].Score = 5
	if err := m.StartRound("op", "R1", 60); err != nil {
		t.Fatal(err)
	}

	// 3 seconds left, lockout 5: players are frozen, the operator is not
	room.mu.Lock()
	room.RoundEnd = m.now().Add(3 * time.Second)
	room.mu.Unlock()

	if err := m.ToggleNot("a1", "b1", "R1"); !errors.Is(err, ErrTimingViolation) {
		t.Errorf("lockout error = %v, want ErrTimingViolation", err)
	}
	if err := m.ToggleNot("op", "b1", "R1"); err != nil {
		t.Errorf("operator ToggleNot during lockout error: %v", err)
	}
}

func TestToggleNot_ReopensSolvedTarget(t *testing.T) {
	m := testManager()
	room := playingRoom(t, m)
	team := room.Teams["A"]

	forceCards(room, "A", map[string]bool{"p1": true, "p2": true})
	vote(t, m, "p1", true)
	vote(t, m, "p2", true)
	if !team.Solved {
		t.Fatal("expected solved state")
	}

	if err := m.ToggleNot("op", "p1", "R1"); err != nil {
		t.Fatal(err)
	}
	if team.Solved {
		t.Error("sabotage must invalidate the solved state")
	}
	if team.Pending.Base != 0 {
		t.Errorf("Pending.Base = %v, want 0 after invalidation", team.Pending.Base)
	}
}

func TestSabotagedWinEarnsBonus(t *testing.T) {
	m := testManager()
	room := playingRoom(t, m)
	team := room.Teams["A"]

	if err := m.ToggleNot("op", "p1", "R1"); err != nil {
		t.Fatal(err)
	}

	// Cards (1,1), p1 carries NOT: effective inputs (0,1), AND output 0
	forceCards(room, "A", map[string]bool{"p1": true, "p2": true})
	vote(t, m, "p1", false)
	vote(t, m, "p2", false)

	if !team.Solved {
		t.Fatal("correct prediction through a NOT gate should solve")
	}
	if team.Pending.Bonus != 0.5 {
		t.Errorf("Pending.Bonus = %v, want 0.5 for a sabotaged win", team.Pending.Bonus)
	}

	m.finishRound("R1", 1)
	if team.Score != 2.5 {
		t.Errorf("Score = %v, want 2.5 (base 2 plus sabotage bonus)", team.Score)
	}
}

func TestToggleNot_UnknownTarget(t *testing.T) {
	m := testManager()
	twoTeamRoom(t, m)

	if err := m.ToggleNot("op", "ghost", "R1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown target error = %v, want ErrNotFound", err)
	}
}

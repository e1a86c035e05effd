package game

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"time"

	"gatecrash/internal/gates"
)

// StartRound moves the room into PLAYING: bumps the round counter, resets
// per-round scratch state, assigns gates for the mode, deals fresh cards and
// arms the timer. Operator only.
func (m *Manager) StartRound(sid, roomID string, durationSecs int) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	if durationSecs <= 0 {
		durationSecs = m.cfg.RoundDuration
	}

	room.mu.Lock()
	if room.OperatorSID != sid {
		room.mu.Unlock()
		return ErrPermissionDenied
	}

	room.RoundNumber++
	for _, team := range room.Teams {
		team.resetRound()
	}
	assignGates(room)

	room.State = StatePlaying
	room.RoundEnd = m.now().Add(time.Duration(durationSecs) * time.Second)

	for _, team := range room.Teams {
		for _, p := range team.Players {
			p.Card = rand.Intn(2) == 1
			p.Vote = nil
			p.HasNot = false
		}
	}
	round := room.RoundNumber
	room.mu.Unlock()

	go m.runRoundTimer(roomID, round)
	m.publishUpdate(roomID)
	return nil
}

// assignGates applies the per-mode gate policy. Caller holds room.mu.
func assignGates(room *Room) {
	teams := teamsInOrder(room)
	switch room.GameMode {
	case ModeCampaign:
		seq := room.TargetGates
		if len(seq) == 0 {
			seq = []gates.Kind{gates.AND}
		}
		gate := seq[(room.RoundNumber-1)%len(seq)]
		for _, team := range teams {
			team.Gate = gate
		}
	case ModeAsymmetric:
		all := gates.All()
		for i, team := range teams {
			team.Gate = all[(i+room.RoundNumber)%len(all)]
		}
	default: // competitive
		gate := room.TargetGate
		if !gates.Valid(gate) {
			gate = gates.AND
		}
		for _, team := range teams {
			team.Gate = gate
		}
	}
}

func teamsInOrder(room *Room) []*Team {
	ids := make([]string, 0, len(room.Teams))
	for id := range room.Teams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	teams := make([]*Team, 0, len(ids))
	for _, id := range ids {
		teams = append(teams, room.Teams[id])
	}
	return teams
}

// SetVote records a player's vote and re-runs the win check. Changing a vote
// un-solves the team so the new consensus is evaluated fresh.
func (m *Manager) SetVote(sid string, vote bool) error {
	room := m.findPlayerRoom(sid)
	if room == nil {
		return fmt.Errorf("%w: player %s", ErrNotFound, sid)
	}
	room.mu.Lock()
	team := room.teamOf(sid)
	if team == nil {
		room.mu.Unlock()
		return fmt.Errorf("%w: player %s", ErrNotFound, sid)
	}
	v := vote
	team.Players[sid].Vote = &v
	unsolve(team)
	checkLogic(room)
	room.mu.Unlock()

	m.publishUpdate(room.ID)
	return nil
}

// checkLogic runs the opportunistic win check for every team that has not
// solved the round yet. It only stashes the pending reward; the score is
// committed at finalization. Caller holds room.mu.
func checkLogic(room *Room) {
	if room.State != StatePlaying {
		return
	}
	for _, team := range room.Teams {
		if team.Solved || len(team.Players) == 0 {
			continue
		}

		votes := make([]*bool, 0, len(team.Players))
		inputs := make([]bool, 0, len(team.Players))
		for _, p := range team.Players {
			votes = append(votes, p.Vote)
			inputs = append(inputs, p.Input())
		}
		if !allVoted(votes) {
			continue
		}
		output := gates.Evaluate(team.Gate, inputs)

		var won bool
		if room.LogicMode == LogicOpen {
			// force-open: true output and unanimous 1s
			won = output && allVotesEqual(votes, true)
		} else {
			won = allVotesEqual(votes, output)
		}
		if won {
			markSolved(team)
		}
	}
}

// AttemptOpen is the open-mode commit action: once every teammate has voted 1,
// the team asks the gate to open. A wrong attempt records a penalty point and
// the round keeps going.
func (m *Manager) AttemptOpen(sid string) (bool, error) {
	room := m.findPlayerRoom(sid)
	if room == nil {
		return false, fmt.Errorf("%w: player %s", ErrNotFound, sid)
	}
	room.mu.Lock()
	team := room.teamOf(sid)
	if team == nil {
		room.mu.Unlock()
		return false, fmt.Errorf("%w: player %s", ErrNotFound, sid)
	}
	if room.LogicMode != LogicOpen || room.State != StatePlaying {
		room.mu.Unlock()
		return false, fmt.Errorf("%w: no open round to force", ErrRuleViolation)
	}
	if team.Solved {
		room.mu.Unlock()
		return true, nil
	}

	votes := make([]*bool, 0, len(team.Players))
	inputs := make([]bool, 0, len(team.Players))
	for _, p := range team.Players {
		votes = append(votes, p.Vote)
		inputs = append(inputs, p.Input())
	}
	if !allVoted(votes) {
		room.mu.Unlock()
		return false, fmt.Errorf("%w: the whole team must commit first", ErrRuleViolation)
	}
	if !allVotesEqual(votes, true) {
		room.mu.Unlock()
		return false, fmt.Errorf("%w: the whole team must vote 1 to force open", ErrRuleViolation)
	}

	won := gates.Evaluate(team.Gate, inputs)
	if won {
		markSolved(team)
	} else {
		team.Pending.Penalty++
	}
	room.mu.Unlock()

	m.publishUpdate(room.ID)
	return won, nil
}

// markSolved stashes the deferred reward. Caller holds room.mu.
func markSolved(team *Team) {
	team.Solved = true
	team.Pending.Base = gates.Score(team.Gate)
	if team.WasSabotaged {
		team.Pending.Bonus = 0.5
	}
}

// unsolve reopens the round for a team whose solution was invalidated by a
// changed vote or a sabotage. The stashed reward goes with it; accumulated
// penalties stay. Caller holds room.mu.
func unsolve(team *Team) {
	team.Solved = false
	team.Pending.Base = 0
	team.Pending.Bonus = 0
}

// finalizeRound commits every team's pending score:
//
//	score += base + bonus - (penalty + 2 if unsolved)
//
// floored at zero, and freezes the result for the post-round screen.
// Caller holds room.mu.
func finalizeRound(room *Room) {
	for _, team := range room.Teams {
		penalty := team.Pending.Penalty
		if team.Solved {
			team.LastResult = ResultSuccess
		} else {
			team.LastResult = ResultFailed
			penalty += 2
		}
		team.Score += team.Pending.Base + team.Pending.Bonus - penalty
		if team.Score < 0 {
			team.Score = 0
		}
	}
}

// runRoundTimer watches a single round. It captures the round number at spawn
// so a stale timer from a superseded round can never finalize anything.
func (m *Manager) runRoundTimer(roomID string, round int) {
	for {
		time.Sleep(m.tick)
		room := m.room(roomID)
		if room == nil {
			return // room vanished, nothing to do
		}
		room.mu.Lock()
		if room.State != StatePlaying || room.RoundNumber != round {
			room.mu.Unlock()
			return
		}
		expired := !m.now().Before(room.RoundEnd)
		room.mu.Unlock()
		if !expired {
			continue
		}
		m.finishRound(roomID, round)
		return
	}
}

// finishRound is the authoritative PLAYING → FINISHED transition: one last
// win check, then the deferred scores commit. It refuses to run twice for the
// same round and refuses to act for a superseded round, so racing callers
// cannot double-award points.
func (m *Manager) finishRound(roomID string, round int) bool {
	room := m.room(roomID)
	if room == nil {
		return false
	}
	room.mu.Lock()
	if room.State != StatePlaying || room.RoundNumber != round {
		room.mu.Unlock()
		return false
	}
	checkLogic(room)
	finalizeRound(room)
	room.State = StateFinished
	room.mu.Unlock()

	log.Printf("[Timer] Round %d ended in room %s\n", round, roomID)
	m.publishRoundEnd(roomID)
	m.publishUpdate(roomID)
	return true
}

func allVoted(votes []*bool) bool {
	for _, v := range votes {
		if v == nil {
			return false
		}
	}
	return true
}

func allVotesEqual(votes []*bool, want bool) bool {
	for _, v := range votes {
		if v == nil || *v != want {
			return false
		}
	}
	return true
}

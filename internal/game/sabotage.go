package game

import (
	"fmt"
	"time"
)

// sabotageKind tags the permitted NOT-gate interactions so each branch of the
// permission table is testable on its own.
type sabotageKind int

const (
	sabotageOperator sabotageKind = iota // free, flags the target team
	sabotageAlly                         // own team, open mode only, free
	sabotageRival                        // costs a point, flags the target team
)

// sabotagePolicy decides whether requester may toggle a NOT gate on a player
// of targetTeam. requesterTeam is nil for sids that are on no team.
func sabotagePolicy(isOperator bool, requesterTeam, targetTeam *Team, mode LogicMode) (sabotageKind, error) {
	if isOperator {
		return sabotageOperator, nil
	}
	if requesterTeam == nil {
		return 0, fmt.Errorf("%w: not on a team", ErrRuleViolation)
	}
	if requesterTeam.ID == targetTeam.ID {
		if mode != LogicOpen {
			return 0, fmt.Errorf("%w: own inputs can only be flipped in open mode", ErrRuleViolation)
		}
		return sabotageAlly, nil
	}
	if requesterTeam.Score < 1 {
		return 0, fmt.Errorf("%w: sabotage costs a point your team does not have", ErrRuleViolation)
	}
	return sabotageRival, nil
}

// ToggleNot applies the sabotage protocol: resolve the actors, enforce the
// lockout window for non-operators, run the permission table, then flip the
// target's NOT flag and force the target team to re-solve.
func (m *Manager) ToggleNot(requesterSID, targetSID, roomID string) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()

	isOperator := room.OperatorSID == requesterSID
	requesterTeam := room.teamOf(requesterSID)
	targetTeam := room.teamOf(targetSID)
	if targetTeam == nil {
		return fmt.Errorf("%w: target %s", ErrNotFound, targetSID)
	}

	// Non-operators are locked out near the end of a round.
	if !isOperator && room.State == StatePlaying {
		lockout := time.Duration(room.NotLockoutSecs) * time.Second
		if room.remaining(m.now()) <= lockout {
			return fmt.Errorf("%w: NOT gates are locked for the final %ds", ErrTimingViolation, room.NotLockoutSecs)
		}
	}

	kind, err := sabotagePolicy(isOperator, requesterTeam, targetTeam, room.LogicMode)
	if err != nil {
		return err
	}

	switch kind {
	case sabotageRival:
		requesterTeam.Score--
		if requesterTeam.Score < 0 {
			requesterTeam.Score = 0
		}
		requesterTeam.NotGatesUsed++
		requesterTeam.Pending.Penalty++
		targetTeam.WasSabotaged = true
	case sabotageOperator:
		targetTeam.WasSabotaged = true
	}

	target := targetTeam.Players[targetSID]
	target.HasNot = !target.HasNot
	// A sabotage can invalidate an already-solved state.
	unsolve(targetTeam)
	checkLogic(room)

	m.publishUpdate(roomID)
	return nil
}

package game

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"gatecrash/internal/events"
	"gatecrash/internal/gates"
)

const staleTTL = 6 * time.Hour

// Config carries the engine defaults; operators can retune rooms at runtime
// within the allowed ranges.
type Config struct {
	RoundDuration     int // seconds
	MaxPlayersPerTeam int
	NotLockoutSecs    int
}

func DefaultConfig() Config {
	return Config{
		RoundDuration:     60,
		MaxPlayersPerTeam: 3,
		NotLockoutSecs:    5,
	}
}

// ArtStore persists uploaded card artwork across restarts. Match state itself
// is never persisted.
type ArtStore interface {
	SaveCardArt(roomID string, slot int, data string) error
	LoadCardArt(roomID string) ([2]string, error)
}

// Manager owns every room and is the single entry point for state mutations.
// The registry map has its own lock; each room serializes its mutations with
// a per-room mutex, so commands on different rooms never block each other.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	cfg Config
	bus *events.Bus
	art ArtStore // nil when no database is configured

	now  func() time.Time
	tick time.Duration
}

func NewManager(cfg Config, bus *events.Bus) *Manager {
	m := &Manager{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		bus:   bus,
		now:   time.Now,
		tick:  time.Second,
	}
	go m.sweepStale()
	return m
}

// SetArtStore wires the optional artwork persistence.
func (m *Manager) SetArtStore(art ArtStore) {
	m.art = art
}

// CreateRoom returns the room with the given id, creating it if needed.
func (m *Manager) CreateRoom(roomID string) *Room {
	m.mu.Lock()
	if room, ok := m.rooms[roomID]; ok {
		m.mu.Unlock()
		return room
	}
	room := &Room{
		ID:                roomID,
		Teams:             make(map[string]*Team),
		State:             StateLobby,
		Difficulty:        1,
		GameMode:          ModeCompetitive,
		LogicMode:         LogicPredict,
		TargetGate:        gates.AND,
		TargetGates:       []gates.Kind{gates.AND},
		MaxPlayersPerTeam: m.cfg.MaxPlayersPerTeam,
		NotLockoutSecs:    m.cfg.NotLockoutSecs,
		CreatedAt:         m.now(),
	}
	m.rooms[roomID] = room
	m.mu.Unlock()

	if m.art != nil {
		if art, err := m.art.LoadCardArt(roomID); err != nil {
			log.Printf("[DB] LoadCardArt error: %v\n", err)
		} else {
			room.mu.Lock()
			room.CardArt = art
			room.mu.Unlock()
		}
	}
	return room
}

// MintRoom creates a room under a freshly generated code.
func (m *Manager) MintRoom() (*Room, error) {
	// Try up to 10 times to generate an unused code
	for i := 0; i < 10; i++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		if m.room(code) != nil {
			continue
		}
		return m.CreateRoom(code), nil
	}
	return nil, fmt.Errorf("failed to generate unique room code after 10 attempts")
}

func (m *Manager) RoomExists(roomID string) bool {
	return m.room(roomID) != nil
}

func (m *Manager) room(roomID string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[roomID]
}

// findPlayerRoom scans every room for the given sid. Session ids are minted
// per connection, so a sid lives in at most one room.
func (m *Manager) findPlayerRoom(sid string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, room := range m.rooms {
		room.mu.Lock()
		found := room.OperatorSID == sid || room.teamOf(sid) != nil
		room.mu.Unlock()
		if found {
			return room
		}
	}
	return nil
}

// Join adds sid to the room as operator or player. The operator slot is
// first-come-first-served. Players fill the lowest-id team with spare
// capacity; the default "A"/"B" teams are created lazily.
func (m *Manager) Join(sid, roomID, name, role, avatar string) error {
	room := m.CreateRoom(roomID)
	room.mu.Lock()
	defer room.mu.Unlock()

	switch role {
	case RoleOperator:
		if room.OperatorSID != "" {
			return fmt.Errorf("%w: room already has an operator", ErrCapacityExceeded)
		}
		room.OperatorSID = sid
	case RolePlayer:
		if room.teamOf(sid) != nil {
			return fmt.Errorf("%w: already joined", ErrRuleViolation)
		}
		if len(room.Teams) == 0 {
			room.Teams["A"] = newTeam("A", "Team A")
			room.Teams["B"] = newTeam("B", "Team B")
		}
		team := firstOpenTeam(room)
		if team == nil {
			return fmt.Errorf("%w: all teams full", ErrCapacityExceeded)
		}
		team.Players[sid] = &Player{SID: sid, Name: name, Avatar: avatar}
	default:
		return fmt.Errorf("%w: unknown role %q", ErrRuleViolation, role)
	}

	m.publishUpdate(roomID)
	return nil
}

// firstOpenTeam picks the team with spare capacity, filling in ascending
// team-id order.
func firstOpenTeam(room *Room) *Team {
	ids := make([]string, 0, len(room.Teams))
	for id := range room.Teams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if len(room.Teams[id].Players) < room.MaxPlayersPerTeam {
			return room.Teams[id]
		}
	}
	return nil
}

// RemovePlayer drops sid from whichever room holds it. An operator slot is
// simply cleared; emptied teams are kept so their scores survive reconnects.
func (m *Manager) RemovePlayer(sid string) {
	room := m.findPlayerRoom(sid)
	if room == nil {
		return
	}
	room.mu.Lock()
	if room.OperatorSID == sid {
		room.OperatorSID = ""
	} else if team := room.teamOf(sid); team != nil {
		delete(team.Players, sid)
	}
	room.mu.Unlock()
	m.publishUpdate(room.ID)
}

// KickPlayer lets the operator remove a player from the room.
func (m *Manager) KickPlayer(sid, targetSID, roomID string) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.OperatorSID != sid {
		return ErrPermissionDenied
	}
	team := room.teamOf(targetSID)
	if team == nil {
		return fmt.Errorf("%w: player %s", ErrNotFound, targetSID)
	}
	delete(team.Players, targetSID)
	m.publishUpdate(roomID)
	return nil
}

// AddTeam creates an extra empty team (operator only).
func (m *Manager) AddTeam(sid, roomID, teamID, name string) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.OperatorSID != sid {
		return ErrPermissionDenied
	}
	if teamID == "" {
		return fmt.Errorf("%w: empty team id", ErrRuleViolation)
	}
	if _, ok := room.Teams[teamID]; ok {
		return fmt.Errorf("%w: team %s exists", ErrRuleViolation, teamID)
	}
	if name == "" {
		name = "Team " + teamID
	}
	room.Teams[teamID] = newTeam(teamID, name)
	m.publishUpdate(roomID)
	return nil
}

// SetMaxPlayers bounds team size, range 1..5 (operator only).
func (m *Manager) SetMaxPlayers(sid, roomID string, count int) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.OperatorSID != sid {
		return ErrPermissionDenied
	}
	if count < 1 || count > 5 {
		return fmt.Errorf("%w: max players %d out of range [1,5]", ErrRuleViolation, count)
	}
	room.MaxPlayersPerTeam = count
	m.publishUpdate(roomID)
	return nil
}

// SetNotLockout sets the end-of-round sabotage lockout, range 0..30 seconds
// (operator only).
func (m *Manager) SetNotLockout(sid, roomID string, seconds int) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.OperatorSID != sid {
		return ErrPermissionDenied
	}
	if seconds < 0 || seconds > 30 {
		return fmt.Errorf("%w: lockout %d out of range [0,30]", ErrRuleViolation, seconds)
	}
	room.NotLockoutSecs = seconds
	m.publishUpdate(roomID)
	return nil
}

// SetGameMode switches the gate assignment policy and restarts the round
// counter (operator only).
func (m *Manager) SetGameMode(sid, roomID string, mode GameMode) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.OperatorSID != sid {
		return ErrPermissionDenied
	}
	if !validGameMode(mode) {
		return fmt.Errorf("%w: game mode %q", ErrRuleViolation, mode)
	}
	room.GameMode = mode
	room.RoundNumber = 0
	m.publishUpdate(roomID)
	return nil
}

// SetTargetGate selects the single gate competitive rounds use (operator only).
func (m *Manager) SetTargetGate(sid, roomID string, gate gates.Kind) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.OperatorSID != sid {
		return ErrPermissionDenied
	}
	if !gates.Valid(gate) {
		return fmt.Errorf("%w: gate %q", ErrRuleViolation, gate)
	}
	room.TargetGate = gate
	m.publishUpdate(roomID)
	return nil
}

// SetTargetGates selects the repeating campaign sequence (operator only).
func (m *Manager) SetTargetGates(sid, roomID string, seq []gates.Kind) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.OperatorSID != sid {
		return ErrPermissionDenied
	}
	if len(seq) == 0 {
		return fmt.Errorf("%w: empty gate sequence", ErrRuleViolation)
	}
	for _, g := range seq {
		if !gates.Valid(g) {
			return fmt.Errorf("%w: gate %q", ErrRuleViolation, g)
		}
	}
	room.TargetGates = append([]gates.Kind(nil), seq...)
	m.publishUpdate(roomID)
	return nil
}

// SetLogicMode switches between predict and open win conditions (operator only).
func (m *Manager) SetLogicMode(sid, roomID string, mode LogicMode) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.OperatorSID != sid {
		return ErrPermissionDenied
	}
	if mode != LogicPredict && mode != LogicOpen {
		return fmt.Errorf("%w: logic mode %q", ErrRuleViolation, mode)
	}
	room.LogicMode = mode
	m.publishUpdate(roomID)
	return nil
}

// ResetScores zeroes every team's score and pending round state (operator only).
func (m *Manager) ResetScores(sid, roomID string) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.OperatorSID != sid {
		return ErrPermissionDenied
	}
	for _, team := range room.Teams {
		team.Score = 0
		team.resetRound()
	}
	m.publishUpdate(roomID)
	return nil
}

// ToggleTeamChat flips a team's chat permission (operator only).
func (m *Manager) ToggleTeamChat(sid, roomID, teamID string) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.OperatorSID != sid {
		return ErrPermissionDenied
	}
	team, ok := room.Teams[teamID]
	if !ok {
		return fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}
	team.ChatEnabled = !team.ChatEnabled
	m.publishUpdate(roomID)
	return nil
}

// ChatRecipients resolves a team chat message: it returns the member sids the
// message may be fanned out to (the sender's own team, nobody else) and the
// sender's display name.
func (m *Manager) ChatRecipients(sid, roomID string) ([]string, string, error) {
	room := m.room(roomID)
	if room == nil {
		return nil, "", fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	team := room.teamOf(sid)
	if team == nil {
		return nil, "", fmt.Errorf("%w: sender not on a team", ErrNotFound)
	}
	if !team.ChatEnabled {
		return nil, "", fmt.Errorf("%w: chat is disabled for your team", ErrPermissionDenied)
	}
	sids := make([]string, 0, len(team.Players))
	for id := range team.Players {
		sids = append(sids, id)
	}
	sort.Strings(sids)
	return sids, team.Players[sid].Name, nil
}

// UploadCardArt stores custom artwork for the 0 or 1 card. Any room member
// (or the operator) may upload; the blob is opaque to the engine.
func (m *Manager) UploadCardArt(sid, roomID string, slot int, data string) error {
	room := m.room(roomID)
	if room == nil {
		return fmt.Errorf("%w: room %s", ErrNotFound, roomID)
	}
	room.mu.Lock()
	if slot != 0 && slot != 1 {
		room.mu.Unlock()
		return fmt.Errorf("%w: card slot %d", ErrRuleViolation, slot)
	}
	if room.OperatorSID != sid && room.teamOf(sid) == nil {
		room.mu.Unlock()
		return fmt.Errorf("%w: not in room", ErrPermissionDenied)
	}
	room.CardArt[slot] = data
	room.mu.Unlock()

	if m.art != nil {
		if err := m.art.SaveCardArt(roomID, slot, data); err != nil {
			log.Printf("[DB] SaveCardArt error: %v\n", err)
		}
	}
	m.publishUpdate(roomID)
	return nil
}

func (m *Manager) publishUpdate(roomID string) {
	if m.bus == nil {
		return
	}
	select {
	case m.bus.RoomUpdates <- events.RoomUpdate{RoomID: roomID}:
	default:
		// drop when the consumer is behind; a later update supersedes it
	}
}

func (m *Manager) publishRoundEnd(roomID string) {
	if m.bus == nil {
		return
	}
	select {
	case m.bus.RoundEnds <- events.RoundEnd{RoomID: roomID}:
	default:
	}
}

// sweepStale drops rooms nobody has used for a long time.
func (m *Manager) sweepStale() {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		m.mu.Lock()
		now := m.now()
		for id, room := range m.rooms {
			room.mu.Lock()
			abandoned := room.OperatorSID == "" && now.Sub(room.CreatedAt) > staleTTL
			for _, team := range room.Teams {
				if len(team.Players) > 0 {
					abandoned = false
				}
			}
			room.mu.Unlock()
			if abandoned {
				delete(m.rooms, id)
				log.Printf("[Rooms] Swept stale room %s\n", id)
			}
		}
		m.mu.Unlock()
	}
}

package events

// RoomUpdate signals that a room's state changed and a fresh snapshot should
// be fanned out.
type RoomUpdate struct {
	RoomID string
}

// RoundEnd signals that the round timer closed a round.
type RoundEnd struct {
	RoomID string
}

type Bus struct {
	RoomUpdates chan RoomUpdate
	RoundEnds   chan RoundEnd
}

func NewBus() *Bus {
	return &Bus{
		RoomUpdates: make(chan RoomUpdate, 64),
		RoundEnds:   make(chan RoundEnd, 16),
	}
}

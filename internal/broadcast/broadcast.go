package broadcast

import (
	"log"

	"gatecrash/internal/events"
	"gatecrash/internal/game"
	"gatecrash/internal/wshub"
)

// Snapshotter is the slice of the game engine the broadcaster needs.
type Snapshotter interface {
	Snapshot(roomID string) (*game.RoomSnapshot, error)
}

// Broadcaster consumes engine events and fans fresh room snapshots out to the
// room's connections. It is the only consumer of the bus.
type Broadcaster struct {
	hub   *wshub.Hub
	games Snapshotter
}

func New(hub *wshub.Hub, games Snapshotter) *Broadcaster {
	return &Broadcaster{hub: hub, games: games}
}

// Run loops over the bus until both channels are closed. Meant to run as a
// goroutine for the process lifetime.
func (b *Broadcaster) Run(bus *events.Bus) {
	for {
		select {
		case ev, ok := <-bus.RoomUpdates:
			if !ok {
				return
			}
			b.sendState(ev.RoomID)
		case ev, ok := <-bus.RoundEnds:
			if !ok {
				return
			}
			data, err := wshub.Encode("round_end", map[string]string{"message": "Time up!"})
			if err != nil {
				log.Printf("[Broadcast] Encode error: %v\n", err)
				continue
			}
			b.hub.BroadcastRoom(ev.RoomID, data)
			b.sendState(ev.RoomID)
		}
	}
}

func (b *Broadcaster) sendState(roomID string) {
	snap, err := b.games.Snapshot(roomID)
	if err != nil {
		// Room may have been swept between the event and now; not an error.
		return
	}
	data, err := wshub.Encode("game_state", snap)
	if err != nil {
		log.Printf("[Broadcast] Encode error: %v\n", err)
		return
	}
	b.hub.BroadcastRoom(roomID, data)
}

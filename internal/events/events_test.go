package events

import (
	"testing"
	"time"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus() returned nil")
	}
	if bus.RoomUpdates == nil {
		t.Fatal("RoomUpdates channel is nil")
	}
	if bus.RoundEnds == nil {
		t.Fatal("RoundEnds channel is nil")
	}
}

func TestBus_SendReceive(t *testing.T) {
	bus := NewBus()

	go func() {
		bus.RoomUpdates <- RoomUpdate{RoomID: "GAMMA"}
	}()

	select {
	case received := <-bus.RoomUpdates:
		if received.RoomID != "GAMMA" {
			t.Errorf("received RoomID = %q, want %q", received.RoomID, "GAMMA")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_Buffered(t *testing.T) {
	bus := NewBus()

	// Should be able to queue a burst without blocking
	for i := 0; i < 16; i++ {
		bus.RoundEnds <- RoundEnd{RoomID: "X"}
	}
	for i := 0; i < 16; i++ {
		<-bus.RoundEnds
	}
}

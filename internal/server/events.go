package server

import (
	"sync"
	"time"

	"board-tracker/internal/board"
)

type EventPayload struct {
	PlayerID int          `json:"player_id,omitempty"`
	X        *float64     `json:"x,omitempty"`
	Y        *float64     `json:"y,omitempty"`
	Fields   *board.Patch `json:"fields,omitempty"`
	Username string       `json:"username,omitempty"`
	Role     string       `json:"role,omitempty"`
}

type Event struct {
	ID        int64        `json:"id"`
	PlayerID  *int         `json:"playerId,omitempty"`
	Type      string       `json:"type"`
	Payload   EventPayload `json:"payload"`
	CreatedAt time.Time    `json:"createdAt"`
}

const eventLogCapacity = 512

// eventLog keeps the most recent events in memory, newest last.
type eventLog struct {
	mu     sync.Mutex
	nextID int64
	events []Event
}

func (l *eventLog) append(playerID *int, eventType string, payload EventPayload, at time.Time) Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	event := Event{ID: l.nextID, Type: eventType, Payload: payload, CreatedAt: at}
	if playerID != nil {
		id := *playerID
		event.PlayerID = &id
	}
	l.events = append(l.events, event)
	if len(l.events) > eventLogCapacity {
		l.events = append([]Event(nil), l.events[len(l.events)-eventLogCapacity:]...)
	}
	return event
}

// page returns events newest first, optionally filtered to one player.
func (l *eventLog) page(playerID int, offset, limit int) ([]Event, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	matched := make([]Event, 0, len(l.events))
	for i := len(l.events) - 1; i >= 0; i-- {
		event := l.events[i]
		if playerID > 0 && (event.PlayerID == nil || *event.PlayerID != playerID) {
			continue
		}
		matched = append(matched, event)
	}
	total := len(matched)
	if offset >= total {
		return []Event{}, total
	}
	end := min(offset+limit, total)
	return matched[offset:end], total
}

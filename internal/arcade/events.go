package arcade

import "sync"

// EventType identifies an engine event
type EventType int

const (
	// EventShot fires when the cannon shoots at the correct target
	EventShot EventType = iota
	// EventTargetHit fires once per correct target destroyed
	EventTargetHit
	// EventWrongTarget fires as soon as a wrong target is picked
	EventWrongTarget
	// EventRoundComplete fires when the next round is about to load
	EventRoundComplete
	// EventGameOver fires when the last life is lost
	EventGameOver
)

func (t EventType) String() string {
	switch t {
	case EventShot:
		return "shot"
	case EventTargetHit:
		return "target_hit"
	case EventWrongTarget:
		return "wrong_target"
	case EventRoundComplete:
		return "round_complete"
	case EventGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Event is a message from the engine to its observers
type Event struct {
	Type   EventType
	Target Target    // the picked or hit target, zero for round and game events
	Answer Card      // the correct card of the round the event belongs to
	Round  int       // round number the event belongs to
	Stats  GameStats // stats after the event was applied
}

// Handler receives engine events
type Handler interface {
	HandleEvent(ev Event)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ev Event)

func (f HandlerFunc) HandleEvent(ev Event) { f(ev) }

const eventQueueSize = 64

// EventQueue is a bounded FIFO ring. When full the oldest event is dropped.
type EventQueue struct {
	mu     sync.Mutex
	events [eventQueueSize]Event
	head   int
	size   int
}

// NewEventQueue creates an empty queue
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Push appends ev
func (q *EventQueue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	tail := (q.head + q.size) % eventQueueSize
	q.events[tail] = ev
	if q.size == eventQueueSize {
		q.head = (q.head + 1) % eventQueueSize
		return
	}
	q.size++
}

// Consume removes and returns all pending events in FIFO order
func (q *EventQueue) Consume() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return nil
	}
	out := make([]Event, 0, q.size)
	for i := 0; i < q.size; i++ {
		idx := (q.head + i) % eventQueueSize
		out = append(out, q.events[idx])
		q.events[idx] = Event{}
	}
	q.head, q.size = 0, 0
	return out
}

// Len returns the number of pending events
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

package pipeline

import "sync"

type EventKind string

const (
	EventProgress EventKind = "progress-note"
	EventState    EventKind = "state-snapshot"
	EventToken    EventKind = "stream-token"
	EventError    EventKind = "error"
	EventFinish   EventKind = "finish"
)

// Event is one item written to a Sink. Which fields are set depends on Kind:
// Note for progress, State for snapshots, Token for stream tokens (nil marks a
// chunk without text), Err for errors and MessageID for finish.
type Event struct {
	Kind      EventKind
	Note      string
	State     *State
	Token     *string
	Err       error
	MessageID string
}

// Sink receives events in the order the orchestrator produces them.
// WriteEvent is only ever called from the goroutine running the pipeline.
type Sink interface {
	WriteEvent(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) WriteEvent(e Event) { f(e) }

// Recorder is a Sink that keeps every event. It is safe to read while a run
// is writing to it.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) WriteEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Notes returns the progress notes in order.
func (r *Recorder) Notes() []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == EventProgress {
			out = append(out, e.Note)
		}
	}
	return out
}

// Tokens returns the stream tokens in order; keepalives are reported as "".
func (r *Recorder) Tokens() []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind != EventToken {
			continue
		}
		if e.Token == nil {
			out = append(out, "")
			continue
		}
		out = append(out, *e.Token)
	}
	return out
}

// Snapshots returns the state snapshots in order.
func (r *Recorder) Snapshots() []State {
	var out []State
	for _, e := range r.Events() {
		if e.Kind == EventState && e.State != nil {
			out = append(out, *e.State)
		}
	}
	return out
}

package manager

import "time"

// PullStatus is the status carried by a progress event.
type PullStatus string

const (
	PullStarted     PullStatus = "started"
	PullDownloading PullStatus = "downloading"
	PullCompleted   PullStatus = "completed"
	PullError       PullStatus = "error"
	PullExists      PullStatus = "exists"
)

// Event is a progress event emitted during reconciliation.
// Progress is nil when the status carries no percentage.
type Event struct {
	Status   PullStatus `json:"status"`
	Progress *int       `json:"progress,omitempty"`
	Details  string     `json:"details,omitempty"`
	Image    string     `json:"image"`
	Error    string     `json:"error,omitempty"`
	OpID     string     `json:"op_id,omitempty"`
	Time     time.Time  `json:"time"`
}

// Terminal reports whether the event ends a pull session.
func (e Event) Terminal() bool {
	return e.Status == PullCompleted || e.Status == PullError || e.Status == PullExists
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

func intPtr(v int) *int { return &v }

// internal/registry/events.go
package registry

import "time"

type EventKind string

const (
	EventProductRegistered  EventKind = "product.registered"
	EventProductTransferred EventKind = "product.transferred"
	EventFreshnessUpdated   EventKind = "freshness.updated"
)

// Event describes one successful mutation. Exactly one event is emitted per
// mutation; unused fields stay zero for kinds that do not carry them.
type Event struct {
	Kind      EventKind `json:"kind"`
	ProductID uint64    `json:"product_id"`
	Producer  Identity  `json:"producer,omitempty"`
	Name      string    `json:"name,omitempty"`
	From      Identity  `json:"from,omitempty"`
	To        Identity  `json:"to,omitempty"`
	Score     int       `json:"score,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives events after the mutation has been applied. Consumers
// needing freshness history must rely on this stream; the registry keeps only
// the latest score.
type EventSink interface {
	Publish(event Event)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event)

func (f SinkFunc) Publish(event Event) { f(event) }

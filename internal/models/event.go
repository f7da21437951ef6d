// internal/models/event.go
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshtrace/registry-backend/internal/registry"
)

// RegistryEvent is one persisted notification record. The event stream is the
// only place freshness history survives; the product row keeps just the
// latest score.
type RegistryEvent struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Kind      string    `json:"kind" gorm:"size:50;not null;index"`
	ProductID uint64    `json:"product_id" gorm:"not null;index"`
	Payload   JSONB     `json:"payload" gorm:"type:jsonb"`
	EmittedAt time.Time `json:"emitted_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

func EventFromRegistry(e registry.Event) RegistryEvent {
	payload := JSONB{}
	switch e.Kind {
	case registry.EventProductRegistered:
		payload["producer"] = string(e.Producer)
		payload["name"] = e.Name
	case registry.EventProductTransferred:
		payload["from"] = string(e.From)
		payload["to"] = string(e.To)
	case registry.EventFreshnessUpdated:
		payload["score"] = e.Score
	}

	return RegistryEvent{
		ID:        uuid.New(),
		Kind:      string(e.Kind),
		ProductID: e.ProductID,
		Payload:   payload,
		EmittedAt: e.Timestamp,
	}
}

// internal/models/transfer.go
package models

import (
	"time"

	"github.com/freshtrace/registry-backend/internal/registry"
)

// Transfer is one immutable custody record. Seq is the zero-based position in
// the product's log; insertion order is chronological order.
type Transfer struct {
	ID            uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID     uint64    `json:"product_id" gorm:"not null;index:idx_transfers_product_seq,priority:1"`
	Seq           int       `json:"seq" gorm:"not null;index:idx_transfers_product_seq,priority:2"`
	FromOwner     string    `json:"from" gorm:"size:255;not null"`
	ToOwner       string    `json:"to" gorm:"size:255;not null"`
	TransferredAt time.Time `json:"timestamp" gorm:"not null"`
	Location      string    `json:"location" gorm:"size:255;not null"`
	CreatedAt     time.Time `json:"created_at"`
}

func TransferFromRegistry(productID uint64, seq int, t registry.Transfer) Transfer {
	return Transfer{
		ProductID:     productID,
		Seq:           seq,
		FromOwner:     string(t.From),
		ToOwner:       string(t.To),
		TransferredAt: t.Timestamp,
		Location:      t.Location,
	}
}

func (t Transfer) ToRegistry() registry.Transfer {
	return registry.Transfer{
		From:      registry.Identity(t.FromOwner),
		To:        registry.Identity(t.ToOwner),
		Timestamp: t.TransferredAt,
		Location:  t.Location,
	}
}

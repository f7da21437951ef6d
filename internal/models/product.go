// internal/models/product.go
package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/freshtrace/registry-backend/internal/registry"
)

// Product is the durable row behind a registry product. The primary key is
// the dense registry-assigned ID, never an autoincrement.
type Product struct {
	ID             uint64         `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name           string         `json:"name" gorm:"size:255;not null"`
	Category       string         `json:"category" gorm:"size:100;not null;index"`
	Producer       string         `json:"producer" gorm:"size:255;not null;index"`
	CurrentOwner   string         `json:"current_owner" gorm:"size:255;not null;index"`
	ProductionDate time.Time      `json:"production_date" gorm:"not null"`
	ExpiryDate     time.Time      `json:"expiry_date" gorm:"not null;index"`
	FreshnessScore int            `json:"freshness_score" gorm:"not null"`
	IsActive       bool           `json:"is_active" gorm:"not null;default:true"`
	Locations      pq.StringArray `json:"locations" gorm:"type:text[];not null"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func ProductFromRegistry(p registry.Product) Product {
	return Product{
		ID:             p.ID,
		Name:           p.Name,
		Category:       p.Category,
		Producer:       string(p.Producer),
		CurrentOwner:   string(p.CurrentOwner),
		ProductionDate: p.ProductionDate,
		ExpiryDate:     p.ExpiryDate,
		FreshnessScore: p.FreshnessScore,
		IsActive:       p.IsActive,
		Locations:      pq.StringArray(p.Locations),
	}
}

func (p Product) ToRegistry() registry.Product {
	return registry.Product{
		ID:             p.ID,
		Name:           p.Name,
		Category:       p.Category,
		Producer:       registry.Identity(p.Producer),
		CurrentOwner:   registry.Identity(p.CurrentOwner),
		ProductionDate: p.ProductionDate,
		ExpiryDate:     p.ExpiryDate,
		FreshnessScore: p.FreshnessScore,
		IsActive:       p.IsActive,
		Locations:      []string(p.Locations),
	}
}

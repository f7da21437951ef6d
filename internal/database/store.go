// internal/database/store.go
package database

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/freshtrace/registry-backend/internal/models"
	"github.com/freshtrace/registry-backend/internal/registry"
)

// Store journals registry mutations to Postgres. Each Persist* call writes
// all rows of one mutation in a single transaction so the durable image can
// never hold a partial mutation.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Load reads the full durable state for registry restore at startup.
func (s *Store) Load() (registry.Snapshot, error) {
	var snapshot registry.Snapshot

	var products []models.Product
	if err := s.db.Order("id").Find(&products).Error; err != nil {
		return snapshot, fmt.Errorf("failed to load products: %w", err)
	}
	for _, p := range products {
		snapshot.Products = append(snapshot.Products, p.ToRegistry())
	}

	var transfers []models.Transfer
	if err := s.db.Order("product_id, seq").Find(&transfers).Error; err != nil {
		return snapshot, fmt.Errorf("failed to load transfers: %w", err)
	}
	snapshot.Transfers = make(map[uint64][]registry.Transfer)
	for _, t := range transfers {
		snapshot.Transfers[t.ProductID] = append(snapshot.Transfers[t.ProductID], t.ToRegistry())
	}

	var updaters []models.AuthorizedUpdater
	if err := s.db.Find(&updaters).Error; err != nil {
		return snapshot, fmt.Errorf("failed to load authorized updaters: %w", err)
	}
	for _, u := range updaters {
		snapshot.Updaters = append(snapshot.Updaters, registry.Identity(u.Identity))
	}

	return snapshot, nil
}

func (s *Store) PersistRegistration(product registry.Product, event registry.Event) error {
	return WithTransaction(s.db, func(tx *gorm.DB) error {
		row := models.ProductFromRegistry(product)
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to persist product %d: %w", product.ID, err)
		}
		return persistEvent(tx, event)
	})
}

func (s *Store) PersistTransfer(product registry.Product, transfer registry.Transfer, seq int, event registry.Event) error {
	return WithTransaction(s.db, func(tx *gorm.DB) error {
		row := models.ProductFromRegistry(product)
		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
			Updates(map[string]interface{}{
				"current_owner": row.CurrentOwner,
				"locations":     row.Locations,
			}).Error; err != nil {
			return fmt.Errorf("failed to persist ownership of product %d: %w", product.ID, err)
		}

		record := models.TransferFromRegistry(product.ID, seq, transfer)
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to persist transfer for product %d: %w", product.ID, err)
		}
		return persistEvent(tx, event)
	})
}

func (s *Store) PersistFreshness(product registry.Product, event registry.Event) error {
	return WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
			Update("freshness_score", product.FreshnessScore).Error; err != nil {
			return fmt.Errorf("failed to persist freshness of product %d: %w", product.ID, err)
		}
		return persistEvent(tx, event)
	})
}

// PersistUpdaterGrant upserts so a repeated grant stays idempotent.
func (s *Store) PersistUpdaterGrant(identity registry.Identity) error {
	row := models.AuthorizedUpdater{Identity: string(identity)}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to persist updater grant for %s: %w", identity, err)
	}
	return nil
}

func (s *Store) PersistUpdaterRevoke(identity registry.Identity) error {
	if err := s.db.Delete(&models.AuthorizedUpdater{}, "identity = ?", string(identity)).Error; err != nil {
		return fmt.Errorf("failed to persist updater revoke for %s: %w", identity, err)
	}
	return nil
}

func persistEvent(tx *gorm.DB, event registry.Event) error {
	row := models.EventFromRegistry(event)
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to persist %s event: %w", event.Kind, err)
	}
	return nil
}

// internal/services/event_service.go
package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/freshtrace/registry-backend/internal/models"
	"github.com/freshtrace/registry-backend/internal/utils"
)

// EventService reads the persisted notification stream. Freshness history is
// reconstructable only from here.
type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

func (s *EventService) ListEvents(kind string, params utils.PaginationParams) ([]models.RegistryEvent, int64, error) {
	query := s.db.Model(&models.RegistryEvent{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	return s.list(query, params)
}

func (s *EventService) ListProductEvents(productID uint64, params utils.PaginationParams) ([]models.RegistryEvent, int64, error) {
	query := s.db.Model(&models.RegistryEvent{}).Where("product_id = ?", productID)
	return s.list(query, params)
}

func (s *EventService) list(query *gorm.DB, params utils.PaginationParams) ([]models.RegistryEvent, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	query = utils.ApplyOrder(query, params)
	query = utils.ApplyPagination(query, params)

	var events []models.RegistryEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch events: %w", err)
	}

	return events, total, nil
}

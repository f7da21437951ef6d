// internal/services/registry_service.go
package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/freshtrace/registry-backend/internal/registry"
	"github.com/freshtrace/registry-backend/internal/utils"
)

// Store journals registry mutations durably. The gorm implementation lives in
// internal/database; tests substitute an in-memory one.
type Store interface {
	Load() (registry.Snapshot, error)
	PersistRegistration(product registry.Product, event registry.Event) error
	PersistTransfer(product registry.Product, transfer registry.Transfer, seq int, event registry.Event) error
	PersistFreshness(product registry.Product, event registry.Event) error
	PersistUpdaterGrant(identity registry.Identity) error
	PersistUpdaterRevoke(identity registry.Identity) error
}

// RegistryService is the execution substrate around the registry contract: it
// serializes every operation under one mutex, supplies the current time, and
// journals each mutation to the store before acknowledging it.
type RegistryService struct {
	mu        sync.Mutex
	reg       *registry.Registry
	store     Store
	now       func() time.Time
	lastEvent registry.Event
}

type RegisterProductRequest struct {
	Name            string    `json:"name" validate:"required,max=255"`
	Category        string    `json:"category" validate:"required,max=100"`
	ProductionDate  time.Time `json:"production_date" validate:"required"`
	ExpiryDate      time.Time `json:"expiry_date" validate:"required"`
	InitialLocation string    `json:"initial_location" validate:"required,max=255"`
}

type TransferProductRequest struct {
	NewOwner    string `json:"new_owner" validate:"required,max=255"`
	NewLocation string `json:"new_location" validate:"required,max=255"`
}

// Score carries no validate tag: the contract owns the range check and its
// error kind.
type UpdateFreshnessRequest struct {
	Score int `json:"score"`
}

type RegistryServiceOption func(*RegistryService)

// WithClock overrides the time source. Tests use it to pin "now".
func WithClock(now func() time.Time) RegistryServiceOption {
	return func(s *RegistryService) {
		s.now = now
	}
}

func NewRegistryService(owner registry.Identity, store Store, opts ...RegistryServiceOption) (*RegistryService, error) {
	s := &RegistryService{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.reg = registry.New(owner)
	s.reg.SetEventSink(registry.SinkFunc(func(e registry.Event) {
		// Runs inside the operation, under s.mu.
		s.lastEvent = e
	}))

	snapshot, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load registry state: %w", err)
	}
	s.reg.Restore(snapshot)

	logrus.WithFields(logrus.Fields{
		"owner":    string(owner),
		"products": s.reg.TotalProducts(),
	}).Info("Registry state restored")

	return s, nil
}

func (s *RegistryService) RegisterProduct(caller registry.Identity, req *RegisterProductRequest) (uint64, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.reg.RegisterProduct(req.Name, req.Category, req.ProductionDate, req.ExpiryDate, req.InitialLocation, caller, s.now())
	if err != nil {
		return 0, err
	}

	product, err := s.reg.GetProductInfo(id)
	if err != nil {
		return 0, err
	}
	if err := s.store.PersistRegistration(product, s.lastEvent); err != nil {
		s.journalFailure(err)
		return 0, fmt.Errorf("failed to journal registration: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": id,
		"producer":   string(caller),
		"name":       req.Name,
	}).Info("Product registered")
	return id, nil
}

func (s *RegistryService) TransferProduct(id uint64, caller registry.Identity, req *TransferProductRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reg.TransferProduct(id, registry.Identity(req.NewOwner), req.NewLocation, caller, s.now()); err != nil {
		return err
	}

	product, err := s.reg.GetProductInfo(id)
	if err != nil {
		return err
	}
	history, err := s.reg.GetTransferHistory(id)
	if err != nil {
		return err
	}
	seq := len(history) - 1
	if err := s.store.PersistTransfer(product, history[seq], seq, s.lastEvent); err != nil {
		s.journalFailure(err)
		return fmt.Errorf("failed to journal transfer: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": id,
		"from":       string(caller),
		"to":         req.NewOwner,
	}).Info("Product transferred")
	return nil
}

func (s *RegistryService) UpdateFreshness(id uint64, caller registry.Identity, req *UpdateFreshnessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reg.UpdateFreshness(id, req.Score, caller, s.now()); err != nil {
		return err
	}

	product, err := s.reg.GetProductInfo(id)
	if err != nil {
		return err
	}
	if err := s.store.PersistFreshness(product, s.lastEvent); err != nil {
		s.journalFailure(err)
		return fmt.Errorf("failed to journal freshness update: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": id,
		"score":      req.Score,
	}).Info("Freshness updated")
	return nil
}

func (s *RegistryService) GetProductInfo(id uint64) (registry.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.GetProductInfo(id)
}

func (s *RegistryService) GetTransferHistory(id uint64) ([]registry.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.GetTransferHistory(id)
}

func (s *RegistryService) IsProductExpired(id uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.IsProductExpired(id, s.now())
}

func (s *RegistryService) TotalProducts() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.TotalProducts()
}

func (s *RegistryService) AddAuthorizedUpdater(identity, caller registry.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reg.AddAuthorizedUpdater(identity, caller); err != nil {
		return err
	}
	if err := s.store.PersistUpdaterGrant(identity); err != nil {
		s.journalFailure(err)
		return fmt.Errorf("failed to journal updater grant: %w", err)
	}

	logrus.WithField("identity", string(identity)).Info("Updater authorized")
	return nil
}

func (s *RegistryService) RemoveAuthorizedUpdater(identity, caller registry.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reg.RemoveAuthorizedUpdater(identity, caller); err != nil {
		return err
	}
	if err := s.store.PersistUpdaterRevoke(identity); err != nil {
		s.journalFailure(err)
		return fmt.Errorf("failed to journal updater revoke: %w", err)
	}

	logrus.WithField("identity", string(identity)).Info("Updater authorization revoked")
	return nil
}

func (s *RegistryService) IsAuthorizedUpdater(identity registry.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.IsAuthorizedUpdater(identity)
}

func (s *RegistryService) Owner() registry.Identity {
	return s.reg.Owner()
}

// journalFailure marks the durable journal as behind the in-memory state. The
// mutation already happened; the process must be restarted (and state
// reloaded) before the journal can be trusted again.
func (s *RegistryService) journalFailure(err error) {
	logrus.WithError(err).Error("Journal write failed; restart required to resync durable state")
}

// internal/registry/registry.go

// Package registry implements the custody ledger contract: product
// registration, ownership transfer, and freshness scoring, guarded by the
// state invariants that make the records trustworthy. The package holds pure
// state only; atomicity, ordering and durability are the caller's job.
package registry

import (
	"fmt"
	"strings"
	"time"
)

// Identity is an externally authenticated caller reference. The empty (or
// blank) string is the zero identity and is never a valid owner or caller.
type Identity string

func (id Identity) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// Product is one tracked physical item. Producer, dates, name and category
// are immutable after registration; CurrentOwner changes only via transfer,
// FreshnessScore only via UpdateFreshness. Locations is the append-only
// journey of the item, seeded with the registration location.
type Product struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Producer       Identity  `json:"producer"`
	CurrentOwner   Identity  `json:"current_owner"`
	ProductionDate time.Time `json:"production_date"`
	ExpiryDate     time.Time `json:"expiry_date"`
	FreshnessScore int       `json:"freshness_score"`
	IsActive       bool      `json:"is_active"`
	Locations      []string  `json:"locations"`
}

// Transfer is one immutable custody change record.
type Transfer struct {
	From      Identity  `json:"from"`
	To        Identity  `json:"to"`
	Timestamp time.Time `json:"timestamp"`
	Location  string    `json:"location"`
}

const (
	MinFreshnessScore     = 1
	MaxFreshnessScore     = 100
	InitialFreshnessScore = 100
)

// Registry is the single stateful component. One value per deployment; the
// caller serializes access. All mutating operations take the caller identity
// and current time explicitly so the contract is testable without any
// execution substrate.
type Registry struct {
	owner     Identity
	nextID    uint64
	products  map[uint64]*Product
	transfers map[uint64][]Transfer
	updaters  map[Identity]bool
	sink      EventSink
}

// New creates an empty registry owned by the given identity. The owner is
// fixed for the registry's lifetime and is implicitly authorized for
// freshness updates and administrative operations.
func New(owner Identity) *Registry {
	return &Registry{
		owner:     owner,
		nextID:    1,
		products:  make(map[uint64]*Product),
		transfers: make(map[uint64][]Transfer),
		updaters:  make(map[Identity]bool),
	}
}

// SetEventSink installs the sink receiving one event per successful mutation.
// A nil sink disables emission.
func (r *Registry) SetEventSink(sink EventSink) {
	r.sink = sink
}

func (r *Registry) Owner() Identity {
	return r.owner
}

// RegisterProduct allocates the next sequential ID and creates the product
// with the caller as both producer and current owner, a full freshness score,
// and the initial location as the first journey entry.
func (r *Registry) RegisterProduct(name, category string, productionDate, expiryDate time.Time, initialLocation string, caller Identity, now time.Time) (uint64, error) {
	if caller.IsZero() {
		return 0, fmt.Errorf("%w: caller identity is required", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(category) == "" {
		return 0, fmt.Errorf("%w: product category is required", ErrInvalidInput)
	}
	if strings.TrimSpace(initialLocation) == "" {
		return 0, fmt.Errorf("%w: initial location is required", ErrInvalidInput)
	}
	if productionDate.After(now) {
		return 0, fmt.Errorf("%w: production date is in the future", ErrInvalidTiming)
	}
	if !expiryDate.After(productionDate) {
		return 0, fmt.Errorf("%w: expiry date must be after production date", ErrInvalidTiming)
	}

	id := r.nextID
	r.nextID++
	r.products[id] = &Product{
		ID:             id,
		Name:           name,
		Category:       category,
		Producer:       caller,
		CurrentOwner:   caller,
		ProductionDate: productionDate,
		ExpiryDate:     expiryDate,
		FreshnessScore: InitialFreshnessScore,
		IsActive:       true,
		Locations:      []string{initialLocation},
	}

	r.emit(Event{
		Kind:      EventProductRegistered,
		ProductID: id,
		Producer:  caller,
		Name:      name,
		Timestamp: now,
	})
	return id, nil
}

// TransferProduct moves custody to newOwner. Only the current owner may
// initiate a transfer; the producer and registry owner get no special rights
// here. The new location is appended to the journey and one Transfer record
// is added to the product's log.
func (r *Registry) TransferProduct(id uint64, newOwner Identity, newLocation string, caller Identity, now time.Time) error {
	product, err := r.activeProduct(id)
	if err != nil {
		return err
	}
	if caller != product.CurrentOwner {
		return fmt.Errorf("%w: only the current owner may transfer product %d", ErrUnauthorized, id)
	}
	if newOwner.IsZero() {
		return fmt.Errorf("%w: new owner identity is required", ErrInvalidInput)
	}
	if newOwner == product.CurrentOwner {
		return fmt.Errorf("%w: product %d is already owned by %s", ErrInvalidInput, id, newOwner)
	}
	if strings.TrimSpace(newLocation) == "" {
		return fmt.Errorf("%w: new location is required", ErrInvalidInput)
	}

	previous := product.CurrentOwner
	product.CurrentOwner = newOwner
	product.Locations = append(product.Locations, newLocation)
	r.transfers[id] = append(r.transfers[id], Transfer{
		From:      previous,
		To:        newOwner,
		Timestamp: now,
		Location:  newLocation,
	})

	r.emit(Event{
		Kind:      EventProductTransferred,
		ProductID: id,
		From:      previous,
		To:        newOwner,
		Timestamp: now,
	})
	return nil
}

// UpdateFreshness sets the current score. Authorization is global, not
// per-product: the caller must be the registry owner or an authorized
// updater. An update at exactly the expiry date still succeeds; anything
// later is rejected. Only the latest score is retained.
func (r *Registry) UpdateFreshness(id uint64, score int, caller Identity, now time.Time) error {
	product, err := r.activeProduct(id)
	if err != nil {
		return err
	}
	if caller != r.owner && !r.updaters[caller] {
		return fmt.Errorf("%w: %s may not update freshness scores", ErrUnauthorized, caller)
	}
	if score < MinFreshnessScore || score > MaxFreshnessScore {
		return fmt.Errorf("%w: freshness score %d is out of range [%d,%d]", ErrInvalidInput, score, MinFreshnessScore, MaxFreshnessScore)
	}
	if now.After(product.ExpiryDate) {
		return fmt.Errorf("%w: product %d expired at %s", ErrExpired, id, product.ExpiryDate.UTC().Format(time.RFC3339))
	}

	product.FreshnessScore = score

	r.emit(Event{
		Kind:      EventFreshnessUpdated,
		ProductID: id,
		Score:     score,
		Timestamp: now,
	})
	return nil
}

// GetProductInfo returns a snapshot of the product, excluding the transfer
// log. The snapshot is a copy; mutating it does not touch registry state.
func (r *Registry) GetProductInfo(id uint64) (Product, error) {
	product, err := r.activeProduct(id)
	if err != nil {
		return Product{}, err
	}
	snapshot := *product
	snapshot.Locations = append([]string(nil), product.Locations...)
	return snapshot, nil
}

// GetTransferHistory returns the product's transfer records in chronological
// order. The slice is a copy.
func (r *Registry) GetTransferHistory(id uint64) ([]Transfer, error) {
	if _, err := r.activeProduct(id); err != nil {
		return nil, err
	}
	return append([]Transfer(nil), r.transfers[id]...), nil
}

// IsProductExpired reports whether the product's expiry date has passed.
func (r *Registry) IsProductExpired(id uint64, now time.Time) (bool, error) {
	product, err := r.activeProduct(id)
	if err != nil {
		return false, err
	}
	return now.After(product.ExpiryDate), nil
}

// TotalProducts returns the count of products ever registered.
func (r *Registry) TotalProducts() uint64 {
	return r.nextID - 1
}

// AddAuthorizedUpdater grants the identity the right to update freshness
// scores on any product. Owner-only; idempotent.
func (r *Registry) AddAuthorizedUpdater(identity, caller Identity) error {
	if caller != r.owner {
		return fmt.Errorf("%w: only the registry owner manages updaters", ErrUnauthorized)
	}
	if identity.IsZero() {
		return fmt.Errorf("%w: updater identity is required", ErrInvalidInput)
	}
	r.updaters[identity] = true
	return nil
}

// RemoveAuthorizedUpdater revokes the grant. Owner-only; removing an identity
// that was never added is a no-op, not an error. The owner's own implicit
// authority is not stored in the set and cannot be revoked.
func (r *Registry) RemoveAuthorizedUpdater(identity, caller Identity) error {
	if caller != r.owner {
		return fmt.Errorf("%w: only the registry owner manages updaters", ErrUnauthorized)
	}
	if identity.IsZero() {
		return fmt.Errorf("%w: updater identity is required", ErrInvalidInput)
	}
	delete(r.updaters, identity)
	return nil
}

// IsAuthorizedUpdater reports whether the identity may update freshness
// scores, either through the updater set or as the registry owner.
func (r *Registry) IsAuthorizedUpdater(identity Identity) bool {
	return identity == r.owner || r.updaters[identity]
}

// activeProduct resolves an existing, active product. The inactive state is
// reserved: nothing ever clears IsActive today, but every lookup honors it.
func (r *Registry) activeProduct(id uint64) (*Product, error) {
	product, ok := r.products[id]
	if !ok || !product.IsActive {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return product, nil
}

func (r *Registry) emit(event Event) {
	if r.sink != nil {
		r.sink.Publish(event)
	}
}

// Snapshot is the durable image of registry state, used to reload the
// in-memory registry at startup.
type Snapshot struct {
	Products  []Product
	Transfers map[uint64][]Transfer
	Updaters  []Identity
}

// Restore re-seeds registry state from durable storage. Records must be
// consistent with the contract invariants; Restore does not re-validate them.
// No events are emitted. Used at startup only.
func (r *Registry) Restore(snapshot Snapshot) {
	var maxID uint64
	for i := range snapshot.Products {
		p := snapshot.Products[i]
		p.Locations = append([]string(nil), p.Locations...)
		r.products[p.ID] = &p
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	for id, records := range snapshot.Transfers {
		r.transfers[id] = append([]Transfer(nil), records...)
	}
	for _, identity := range snapshot.Updaters {
		r.updaters[identity] = true
	}
	if maxID >= r.nextID {
		r.nextID = maxID + 1
	}
}

// internal/services/registry_service_test.go
package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/freshtrace/registry-backend/internal/registry"
)

const (
	testOwner    = registry.Identity("addr-owner")
	testProducer = registry.Identity("addr-producer")
	testBuyer    = registry.Identity("addr-buyer")
)

// fakeStore is an in-memory journal for tests.
type fakeStore struct {
	snapshot  registry.Snapshot
	products  map[uint64]registry.Product
	transfers []registry.Transfer
	seqs      []int
	events    []registry.Event
	updaters  map[registry.Identity]bool
	failWith  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[uint64]registry.Product),
		updaters: make(map[registry.Identity]bool),
	}
}

func (f *fakeStore) Load() (registry.Snapshot, error) {
	return f.snapshot, f.failWith
}

func (f *fakeStore) PersistRegistration(product registry.Product, event registry.Event) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.products[product.ID] = product
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) PersistTransfer(product registry.Product, transfer registry.Transfer, seq int, event registry.Event) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.products[product.ID] = product
	f.transfers = append(f.transfers, transfer)
	f.seqs = append(f.seqs, seq)
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) PersistFreshness(product registry.Product, event registry.Event) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.products[product.ID] = product
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) PersistUpdaterGrant(identity registry.Identity) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.updaters[identity] = true
	return nil
}

func (f *fakeStore) PersistUpdaterRevoke(identity registry.Identity) error {
	if f.failWith != nil {
		return f.failWith
	}
	delete(f.updaters, identity)
	return nil
}

type RegistryServiceTestSuite struct {
	suite.Suite
	store   *fakeStore
	service *RegistryService
	clock   time.Time
}

func (suite *RegistryServiceTestSuite) SetupTest() {
	suite.store = newFakeStore()
	service, err := NewRegistryService(testOwner, suite.store)
	suite.Require().NoError(err)
	suite.service = service
	suite.clock = time.Unix(500, 0).UTC()
	suite.service.now = func() time.Time { return suite.clock }
}

func (suite *RegistryServiceTestSuite) registerMilk() uint64 {
	id, err := suite.service.RegisterProduct(testProducer, &RegisterProductRequest{
		Name:            "Milk",
		Category:        "Dairy",
		ProductionDate:  time.Unix(100, 0).UTC(),
		ExpiryDate:      time.Unix(1000, 0).UTC(),
		InitialLocation: "Farm",
	})
	suite.Require().NoError(err)
	return id
}

func (suite *RegistryServiceTestSuite) TestRegisterJournalsRowAndEvent() {
	id := suite.registerMilk()

	suite.Equal(uint64(1), id)
	row, ok := suite.store.products[id]
	suite.Require().True(ok)
	suite.Equal("Milk", row.Name)
	suite.Equal(testProducer, row.Producer)

	suite.Require().Len(suite.store.events, 1)
	suite.Equal(registry.EventProductRegistered, suite.store.events[0].Kind)
	suite.Equal(suite.clock, suite.store.events[0].Timestamp)
}

func (suite *RegistryServiceTestSuite) TestRegisterValidatesRequest() {
	_, err := suite.service.RegisterProduct(testProducer, &RegisterProductRequest{
		Category:        "Dairy",
		ProductionDate:  time.Unix(100, 0).UTC(),
		ExpiryDate:      time.Unix(1000, 0).UTC(),
		InitialLocation: "Farm",
	})
	suite.Require().Error(err)
	suite.Contains(err.Error(), "validation failed")
	suite.Equal(uint64(0), suite.service.TotalProducts())
	suite.Empty(suite.store.events)
}

func (suite *RegistryServiceTestSuite) TestTransferJournalsSequence() {
	id := suite.registerMilk()

	suite.Require().NoError(suite.service.TransferProduct(id, testProducer, &TransferProductRequest{
		NewOwner:    string(testBuyer),
		NewLocation: "Warehouse",
	}))
	suite.Require().NoError(suite.service.TransferProduct(id, testBuyer, &TransferProductRequest{
		NewOwner:    string(testProducer),
		NewLocation: "Returns",
	}))

	suite.Equal([]int{0, 1}, suite.store.seqs)
	suite.Equal(testBuyer, suite.store.transfers[0].To)
	suite.Equal("Returns", suite.store.transfers[1].Location)
	suite.Equal(testProducer, suite.store.products[id].CurrentOwner)
}

func (suite *RegistryServiceTestSuite) TestContractErrorsPassThrough() {
	id := suite.registerMilk()

	err := suite.service.TransferProduct(id, testBuyer, &TransferProductRequest{
		NewOwner:    string(testProducer),
		NewLocation: "Warehouse",
	})
	suite.ErrorIs(err, registry.ErrUnauthorized)

	err = suite.service.UpdateFreshness(id, testOwner, &UpdateFreshnessRequest{Score: 0})
	suite.ErrorIs(err, registry.ErrInvalidInput)

	_, err = suite.service.GetProductInfo(42)
	suite.ErrorIs(err, registry.ErrNotFound)
}

func (suite *RegistryServiceTestSuite) TestFreshnessUsesServiceClock() {
	id := suite.registerMilk()

	suite.clock = time.Unix(1000, 0).UTC()
	suite.Require().NoError(suite.service.UpdateFreshness(id, testOwner, &UpdateFreshnessRequest{Score: 40}))

	suite.clock = time.Unix(1001, 0).UTC()
	suite.ErrorIs(suite.service.UpdateFreshness(id, testOwner, &UpdateFreshnessRequest{Score: 30}), registry.ErrExpired)

	expired, err := suite.service.IsProductExpired(id)
	suite.Require().NoError(err)
	suite.True(expired)
}

func (suite *RegistryServiceTestSuite) TestJournalFailureIsSurfaced() {
	id := suite.registerMilk()

	suite.store.failWith = errors.New("connection reset")
	err := suite.service.UpdateFreshness(id, testOwner, &UpdateFreshnessRequest{Score: 40})
	suite.Require().Error(err)
	suite.Contains(err.Error(), "journal")
}

func (suite *RegistryServiceTestSuite) TestUpdaterGrantAndRevokeJournaled() {
	inspector := registry.Identity("addr-inspector")

	suite.Require().NoError(suite.service.AddAuthorizedUpdater(inspector, testOwner))
	suite.True(suite.store.updaters[inspector])
	suite.True(suite.service.IsAuthorizedUpdater(inspector))

	suite.Require().NoError(suite.service.RemoveAuthorizedUpdater(inspector, testOwner))
	suite.False(suite.store.updaters[inspector])
	suite.False(suite.service.IsAuthorizedUpdater(inspector))

	suite.ErrorIs(suite.service.AddAuthorizedUpdater(inspector, testProducer), registry.ErrUnauthorized)
}

func (suite *RegistryServiceTestSuite) TestRestoreFromStoreSnapshot() {
	store := newFakeStore()
	store.snapshot = registry.Snapshot{
		Products: []registry.Product{{
			ID:             2,
			Name:           "Cheese",
			Category:       "Dairy",
			Producer:       testProducer,
			CurrentOwner:   testBuyer,
			ProductionDate: time.Unix(100, 0).UTC(),
			ExpiryDate:     time.Unix(5000, 0).UTC(),
			FreshnessScore: 80,
			IsActive:       true,
			Locations:      []string{"Farm", "Store"},
		}},
		Transfers: map[uint64][]registry.Transfer{
			2: {{From: testProducer, To: testBuyer, Timestamp: time.Unix(200, 0).UTC(), Location: "Store"}},
		},
		Updaters: []registry.Identity{"addr-inspector"},
	}

	service, err := NewRegistryService(testOwner, store)
	suite.Require().NoError(err)
	service.now = func() time.Time { return time.Unix(500, 0).UTC() }

	suite.Equal(uint64(2), service.TotalProducts())
	suite.True(service.IsAuthorizedUpdater("addr-inspector"))

	id, err := service.RegisterProduct(testProducer, &RegisterProductRequest{
		Name:            "Butter",
		Category:        "Dairy",
		ProductionDate:  time.Unix(100, 0).UTC(),
		ExpiryDate:      time.Unix(1000, 0).UTC(),
		InitialLocation: "Farm",
	})
	suite.Require().NoError(err)
	suite.Equal(uint64(3), id)
}

func TestRegistryServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistryServiceTestSuite))
}

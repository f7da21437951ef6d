// internal/registry/registry_test.go
package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const (
	ownerID     = Identity("addr-owner")
	producerID  = Identity("addr-producer")
	buyerID     = Identity("addr-buyer")
	inspectorID = Identity("addr-inspector")
)

type RegistryTestSuite struct {
	suite.Suite
	registry *Registry
	events   []Event
}

func (suite *RegistryTestSuite) SetupTest() {
	suite.registry = New(ownerID)
	suite.events = nil
	suite.registry.SetEventSink(SinkFunc(func(e Event) {
		suite.events = append(suite.events, e)
	}))
}

func at(unix int64) time.Time {
	return time.Unix(unix, 0).UTC()
}

func (suite *RegistryTestSuite) registerMilk() uint64 {
	id, err := suite.registry.RegisterProduct("Milk", "Dairy", at(100), at(1000), "Farm", producerID, at(100))
	suite.Require().NoError(err)
	return id
}

func (suite *RegistryTestSuite) TestRegisterAssignsSequentialIDs() {
	for i := uint64(1); i <= 5; i++ {
		id, err := suite.registry.RegisterProduct("Milk", "Dairy", at(100), at(1000), "Farm", producerID, at(200))
		suite.Require().NoError(err)
		suite.Equal(i, id)
	}
	suite.Equal(uint64(5), suite.registry.TotalProducts())
}

func (suite *RegistryTestSuite) TestRegisterRoundTrip() {
	id := suite.registerMilk()

	product, err := suite.registry.GetProductInfo(id)
	suite.Require().NoError(err)
	suite.Equal("Milk", product.Name)
	suite.Equal("Dairy", product.Category)
	suite.Equal(producerID, product.Producer)
	suite.Equal(producerID, product.CurrentOwner)
	suite.Equal(at(100), product.ProductionDate)
	suite.Equal(at(1000), product.ExpiryDate)
	suite.Equal(InitialFreshnessScore, product.FreshnessScore)
	suite.True(product.IsActive)
	suite.Equal([]string{"Farm"}, product.Locations)

	history, err := suite.registry.GetTransferHistory(id)
	suite.Require().NoError(err)
	suite.Empty(history)
}

func (suite *RegistryTestSuite) TestRegisterEmitsEvent() {
	id := suite.registerMilk()

	suite.Require().Len(suite.events, 1)
	suite.Equal(EventProductRegistered, suite.events[0].Kind)
	suite.Equal(id, suite.events[0].ProductID)
	suite.Equal(producerID, suite.events[0].Producer)
	suite.Equal("Milk", suite.events[0].Name)
}

func (suite *RegistryTestSuite) TestRegisterRejectsBadInput() {
	cases := []struct {
		name     string
		register func() (uint64, error)
		want     error
	}{
		{"empty name", func() (uint64, error) {
			return suite.registry.RegisterProduct("", "Dairy", at(100), at(1000), "Farm", producerID, at(200))
		}, ErrInvalidInput},
		{"empty category", func() (uint64, error) {
			return suite.registry.RegisterProduct("Milk", "  ", at(100), at(1000), "Farm", producerID, at(200))
		}, ErrInvalidInput},
		{"empty location", func() (uint64, error) {
			return suite.registry.RegisterProduct("Milk", "Dairy", at(100), at(1000), "", producerID, at(200))
		}, ErrInvalidInput},
		{"zero caller", func() (uint64, error) {
			return suite.registry.RegisterProduct("Milk", "Dairy", at(100), at(1000), "Farm", Identity(""), at(200))
		}, ErrInvalidInput},
		{"future production date", func() (uint64, error) {
			return suite.registry.RegisterProduct("Milk", "Dairy", at(300), at(1000), "Farm", producerID, at(200))
		}, ErrInvalidTiming},
		{"expiry before production", func() (uint64, error) {
			return suite.registry.RegisterProduct("Milk", "Dairy", at(100), at(50), "Farm", producerID, at(200))
		}, ErrInvalidTiming},
		{"expiry equals production", func() (uint64, error) {
			return suite.registry.RegisterProduct("Milk", "Dairy", at(100), at(100), "Farm", producerID, at(200))
		}, ErrInvalidTiming},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			_, err := tc.register()
			suite.ErrorIs(err, tc.want)
		})
	}

	// No partial state from rejected registrations.
	suite.Equal(uint64(0), suite.registry.TotalProducts())
	suite.Empty(suite.events)
}

func (suite *RegistryTestSuite) TestTransferScenario() {
	id := suite.registerMilk()

	err := suite.registry.TransferProduct(id, buyerID, "Warehouse", producerID, at(200))
	suite.Require().NoError(err)

	product, err := suite.registry.GetProductInfo(id)
	suite.Require().NoError(err)
	suite.Equal(buyerID, product.CurrentOwner)
	suite.Equal(producerID, product.Producer)
	suite.Equal([]string{"Farm", "Warehouse"}, product.Locations)

	history, err := suite.registry.GetTransferHistory(id)
	suite.Require().NoError(err)
	suite.Require().Len(history, 1)
	suite.Equal(Transfer{From: producerID, To: buyerID, Timestamp: at(200), Location: "Warehouse"}, history[0])

	suite.Require().Len(suite.events, 2)
	suite.Equal(EventProductTransferred, suite.events[1].Kind)
	suite.Equal(producerID, suite.events[1].From)
	suite.Equal(buyerID, suite.events[1].To)
	suite.Equal(at(200), suite.events[1].Timestamp)
}

func (suite *RegistryTestSuite) TestTransferChainKeepsHistoryOrdered() {
	id := suite.registerMilk()

	suite.Require().NoError(suite.registry.TransferProduct(id, buyerID, "Warehouse", producerID, at(200)))
	suite.Require().NoError(suite.registry.TransferProduct(id, inspectorID, "Store", buyerID, at(300)))
	suite.Require().NoError(suite.registry.TransferProduct(id, producerID, "Returns", inspectorID, at(400)))

	product, err := suite.registry.GetProductInfo(id)
	suite.Require().NoError(err)
	history, err := suite.registry.GetTransferHistory(id)
	suite.Require().NoError(err)

	suite.Equal(len(product.Locations)-1, len(history))
	suite.Equal(producerID, product.CurrentOwner)
	suite.Equal([]string{"Farm", "Warehouse", "Store", "Returns"}, product.Locations)
	for i, transfer := range history {
		suite.Equal(product.Locations[i+1], transfer.Location)
		if i > 0 {
			suite.Equal(history[i-1].To, transfer.From)
		}
	}
	suite.Equal(history[len(history)-1].To, product.CurrentOwner)
}

func (suite *RegistryTestSuite) TestTransferRejections() {
	id := suite.registerMilk()

	cases := []struct {
		name string
		err  error
		call func() error
	}{
		{"unknown product", ErrNotFound, func() error {
			return suite.registry.TransferProduct(99, buyerID, "Warehouse", producerID, at(200))
		}},
		{"non-owner caller", ErrUnauthorized, func() error {
			return suite.registry.TransferProduct(id, inspectorID, "Warehouse", buyerID, at(200))
		}},
		{"registry owner is not product owner", ErrUnauthorized, func() error {
			return suite.registry.TransferProduct(id, buyerID, "Warehouse", ownerID, at(200))
		}},
		{"zero new owner", ErrInvalidInput, func() error {
			return suite.registry.TransferProduct(id, Identity("  "), "Warehouse", producerID, at(200))
		}},
		{"self transfer", ErrInvalidInput, func() error {
			return suite.registry.TransferProduct(id, producerID, "Warehouse", producerID, at(200))
		}},
		{"empty location", ErrInvalidInput, func() error {
			return suite.registry.TransferProduct(id, buyerID, "", producerID, at(200))
		}},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			before, err := suite.registry.GetProductInfo(id)
			suite.Require().NoError(err)

			suite.ErrorIs(tc.call(), tc.err)

			after, err := suite.registry.GetProductInfo(id)
			suite.Require().NoError(err)
			suite.Equal(before, after)
			history, err := suite.registry.GetTransferHistory(id)
			suite.Require().NoError(err)
			suite.Empty(history)
		})
	}
}

func (suite *RegistryTestSuite) TestUpdateFreshnessAuthorization() {
	id := suite.registerMilk()

	// Unauthorized identity rejects, state unchanged.
	err := suite.registry.UpdateFreshness(id, 50, inspectorID, at(200))
	suite.ErrorIs(err, ErrUnauthorized)
	product, _ := suite.registry.GetProductInfo(id)
	suite.Equal(InitialFreshnessScore, product.FreshnessScore)

	// The product owner has no freshness authority either.
	suite.ErrorIs(suite.registry.UpdateFreshness(id, 50, producerID, at(200)), ErrUnauthorized)

	// The registry owner succeeds without ever being added to the set.
	suite.Require().NoError(suite.registry.UpdateFreshness(id, 50, ownerID, at(200)))
	product, _ = suite.registry.GetProductInfo(id)
	suite.Equal(50, product.FreshnessScore)

	// Granted updaters succeed on any product, and lose the right on removal.
	suite.Require().NoError(suite.registry.AddAuthorizedUpdater(inspectorID, ownerID))
	suite.Require().NoError(suite.registry.UpdateFreshness(id, 70, inspectorID, at(300)))
	suite.Require().NoError(suite.registry.RemoveAuthorizedUpdater(inspectorID, ownerID))
	suite.ErrorIs(suite.registry.UpdateFreshness(id, 90, inspectorID, at(400)), ErrUnauthorized)
}

func (suite *RegistryTestSuite) TestUpdateFreshnessScoreBounds() {
	id := suite.registerMilk()

	suite.ErrorIs(suite.registry.UpdateFreshness(id, 0, ownerID, at(200)), ErrInvalidInput)
	suite.ErrorIs(suite.registry.UpdateFreshness(id, 101, ownerID, at(200)), ErrInvalidInput)
	suite.NoError(suite.registry.UpdateFreshness(id, 1, ownerID, at(200)))
	suite.NoError(suite.registry.UpdateFreshness(id, 100, ownerID, at(200)))
}

func (suite *RegistryTestSuite) TestUpdateFreshnessExpiryBoundary() {
	id := suite.registerMilk()

	// Exactly at expiry still succeeds.
	suite.NoError(suite.registry.UpdateFreshness(id, 10, ownerID, at(1000)))

	// One tick past expiry rejects and keeps the last score.
	err := suite.registry.UpdateFreshness(id, 5, ownerID, at(1001))
	suite.ErrorIs(err, ErrExpired)
	product, _ := suite.registry.GetProductInfo(id)
	suite.Equal(10, product.FreshnessScore)
}

func (suite *RegistryTestSuite) TestFreshnessKeepsOnlyLatestScore() {
	id := suite.registerMilk()

	for _, score := range []int{90, 75, 40} {
		suite.Require().NoError(suite.registry.UpdateFreshness(id, score, ownerID, at(300)))
	}

	product, _ := suite.registry.GetProductInfo(id)
	suite.Equal(40, product.FreshnessScore)

	// History lives only in the event stream.
	var scores []int
	for _, event := range suite.events {
		if event.Kind == EventFreshnessUpdated {
			scores = append(scores, event.Score)
		}
	}
	suite.Equal([]int{90, 75, 40}, scores)
}

func (suite *RegistryTestSuite) TestUpdaterIdempotence() {
	suite.Require().NoError(suite.registry.AddAuthorizedUpdater(inspectorID, ownerID))
	suite.Require().NoError(suite.registry.AddAuthorizedUpdater(inspectorID, ownerID))
	suite.True(suite.registry.IsAuthorizedUpdater(inspectorID))

	suite.Require().NoError(suite.registry.RemoveAuthorizedUpdater(inspectorID, ownerID))
	suite.Require().NoError(suite.registry.RemoveAuthorizedUpdater(inspectorID, ownerID))
	suite.False(suite.registry.IsAuthorizedUpdater(inspectorID))

	// Removing a never-added identity is a no-op.
	suite.NoError(suite.registry.RemoveAuthorizedUpdater(buyerID, ownerID))
}

func (suite *RegistryTestSuite) TestUpdaterOpsAreOwnerOnly() {
	suite.ErrorIs(suite.registry.AddAuthorizedUpdater(inspectorID, producerID), ErrUnauthorized)
	suite.ErrorIs(suite.registry.RemoveAuthorizedUpdater(inspectorID, producerID), ErrUnauthorized)
	suite.False(suite.registry.IsAuthorizedUpdater(inspectorID))

	// The owner itself is always authorized, without set membership.
	suite.True(suite.registry.IsAuthorizedUpdater(ownerID))
}

func (suite *RegistryTestSuite) TestQueriesOnUnknownProduct() {
	_, err := suite.registry.GetProductInfo(1)
	suite.ErrorIs(err, ErrNotFound)
	_, err = suite.registry.GetTransferHistory(1)
	suite.ErrorIs(err, ErrNotFound)
	_, err = suite.registry.IsProductExpired(1, at(100))
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *RegistryTestSuite) TestIsProductExpired() {
	id := suite.registerMilk()

	expired, err := suite.registry.IsProductExpired(id, at(1000))
	suite.Require().NoError(err)
	suite.False(expired)

	expired, err = suite.registry.IsProductExpired(id, at(1001))
	suite.Require().NoError(err)
	suite.True(expired)
}

func (suite *RegistryTestSuite) TestSnapshotsAreCopies() {
	id := suite.registerMilk()

	product, err := suite.registry.GetProductInfo(id)
	suite.Require().NoError(err)
	product.Locations[0] = "tampered"
	product.FreshnessScore = 1

	fresh, err := suite.registry.GetProductInfo(id)
	suite.Require().NoError(err)
	suite.Equal([]string{"Farm"}, fresh.Locations)
	suite.Equal(InitialFreshnessScore, fresh.FreshnessScore)
}

func (suite *RegistryTestSuite) TestRestoreResumesIDSequence() {
	seed := Product{
		ID:             3,
		Name:           "Cheese",
		Category:       "Dairy",
		Producer:       producerID,
		CurrentOwner:   buyerID,
		ProductionDate: at(100),
		ExpiryDate:     at(5000),
		FreshnessScore: 80,
		IsActive:       true,
		Locations:      []string{"Farm", "Store"},
	}
	transfers := map[uint64][]Transfer{
		3: {{From: producerID, To: buyerID, Timestamp: at(200), Location: "Store"}},
	}

	restored := New(ownerID)
	restored.Restore(Snapshot{
		Products:  []Product{seed},
		Transfers: transfers,
		Updaters:  []Identity{inspectorID},
	})

	suite.Equal(uint64(3), restored.TotalProducts())
	suite.True(restored.IsAuthorizedUpdater(inspectorID))

	product, err := restored.GetProductInfo(3)
	suite.Require().NoError(err)
	suite.Equal(buyerID, product.CurrentOwner)

	id, err := restored.RegisterProduct("Butter", "Dairy", at(100), at(1000), "Farm", producerID, at(200))
	suite.Require().NoError(err)
	suite.Equal(uint64(4), id)
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func TestIdentityIsZero(t *testing.T) {
	assert.True(t, Identity("").IsZero())
	assert.True(t, Identity("   ").IsZero())
	assert.False(t, Identity("addr-1").IsZero())
}

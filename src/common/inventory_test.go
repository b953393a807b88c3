package common

import (
	"errors"
	"math"
	"testing"
	"wurst/src/db"
	"wurst/src/models"
	"wurst/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(s *suite.Suite) *gorm.DB {
	d, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		s.FailNow("could not open test database", err.Error())
	}
	sqldb, err := d.DB()
	if err != nil {
		s.FailNow("could not access test database pool", err.Error())
	}
	sqldb.SetMaxOpenConns(1)

	if err := d.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Reservation{},
		&models.Pickup{},
		&models.Poll{},
		&models.PollDemand{},
		&models.FCMToken{},
	); err != nil {
		s.FailNow("could not migrate test database", err.Error())
	}
	db.NewDB(d)
	return d
}

type InventoryTestSuite struct {
	suite.Suite
	DB *gorm.DB
}

func (s *InventoryTestSuite) SetupTest() {
	s.DB = newTestDB(&s.Suite)
}

func (s *InventoryTestSuite) createProduct(totalPacks int) string {
	product := models.Product{
		Name:            "Bratwurst",
		TotalPacks:      totalPacks,
		PricePerPack:    7.5,
		CreatedBy:       "admin-1",
		Active:          true,
		SausagesPerPack: 4,
	}
	s.Require().NoError(s.DB.Create(&product).Error)
	return product.ID
}

func (s *InventoryTestSuite) getProduct(id string) models.Product {
	var product models.Product
	s.Require().NoError(s.DB.Where(&models.Product{ID: id}).First(&product).Error)
	return product
}

func (s *InventoryTestSuite) TestReservePickupUndoFlow() {
	productID := s.createProduct(10)

	s.Require().NoError(SetReservation(productID, "user-a", 3))
	s.Require().NoError(SetReservation(productID, "user-b", 2))

	product := s.getProduct(productID)
	s.Equal(5, product.ReservedPacks)
	s.Equal(0, product.PickedUpPacks)

	pickupID, err := MarkReservationPickedUp(productID, "user-a", "admin-1")
	s.Require().NoError(err)
	s.NotEmpty(pickupID)

	product = s.getProduct(productID)
	s.Equal(2, product.ReservedPacks)
	s.Equal(3, product.PickedUpPacks)

	var reservation models.Reservation
	err = s.DB.Where("product_id = ? AND uid = ?", productID, "user-a").First(&reservation).Error
	s.True(errors.Is(err, gorm.ErrRecordNotFound))

	var pickup models.Pickup
	s.Require().NoError(s.DB.Where("id = ?", pickupID).First(&pickup).Error)
	s.Equal(types.PICKUP_PICKEDUP, pickup.State)
	s.Equal(3, pickup.Quantity)
	s.Equal("admin-1", pickup.PickedUpBy)
	s.NotNil(pickup.ReservationUpdatedAt)

	s.Require().NoError(UndoPickupToReservation(productID, pickupID, "admin-1"))

	// The undo restores the reservation but only rolls back pickedUpPacks;
	// reservedPacks stays until the next recompute.
	product = s.getProduct(productID)
	s.Equal(2, product.ReservedPacks)
	s.Equal(0, product.PickedUpPacks)

	s.Require().NoError(s.DB.Where("product_id = ? AND uid = ?", productID, "user-a").First(&reservation).Error)
	s.Equal(3, reservation.Quantity)
	s.Contains(reservation.MergedFromPickupIDs, pickupID)

	s.Require().NoError(s.DB.Where("id = ?", pickupID).First(&pickup).Error)
	s.Equal(types.PICKUP_REVERTED, pickup.State)
	s.NotNil(pickup.RevertedAt)

	totals, err := RecomputeProductAggregates(productID)
	s.Require().NoError(err)
	s.Equal(5, totals.Reserved)
	s.Equal(0, totals.PickedUp)

	product = s.getProduct(productID)
	s.Equal(5, product.ReservedPacks)
	s.NotNil(product.AggregatesUpdatedAt)
}

func (s *InventoryTestSuite) TestSetReservationZeroDeletesRow() {
	productID := s.createProduct(10)

	s.Require().NoError(SetReservation(productID, "user-a", 3))
	s.Require().NoError(SetReservation(productID, "user-a", 0))

	var count int64
	s.Require().NoError(s.DB.Model(&models.Reservation{}).Where("product_id = ?", productID).Count(&count).Error)
	s.EqualValues(0, count)

	product := s.getProduct(productID)
	s.Equal(0, product.ReservedPacks)
}

func (s *InventoryTestSuite) TestSetReservationUpdatesByDelta() {
	productID := s.createProduct(10)

	s.Require().NoError(SetReservation(productID, "user-a", 3))
	s.Require().NoError(SetReservation(productID, "user-a", 1))

	product := s.getProduct(productID)
	s.Equal(1, product.ReservedPacks)

	var reservation models.Reservation
	s.Require().NoError(s.DB.Where("product_id = ? AND uid = ?", productID, "user-a").First(&reservation).Error)
	s.Equal(1, reservation.Quantity)
}

func (s *InventoryTestSuite) TestSetReservationUnknownProduct() {
	err := SetReservation("no-such-product", "user-a", 1)
	s.True(errors.Is(err, types.ErrNotFound))
}

func (s *InventoryTestSuite) TestSetReservationMissingArgs() {
	err := SetReservation("", "user-a", 1)
	s.True(errors.Is(err, types.ErrInvalidArgument))
	err = SetReservation("p", "", 1)
	s.True(errors.Is(err, types.ErrInvalidArgument))
}

func (s *InventoryTestSuite) TestPickupWithoutReservation() {
	productID := s.createProduct(10)

	_, err := MarkReservationPickedUp(productID, "user-a", "admin-1")
	s.True(errors.Is(err, types.ErrNotFound))
}

func (s *InventoryTestSuite) TestUndoIsSingleShot() {
	productID := s.createProduct(10)

	s.Require().NoError(SetReservation(productID, "user-a", 2))
	pickupID, err := MarkReservationPickedUp(productID, "user-a", "admin-1")
	s.Require().NoError(err)

	s.Require().NoError(UndoPickupToReservation(productID, pickupID, "admin-1"))

	err = UndoPickupToReservation(productID, pickupID, "admin-2")
	s.True(errors.Is(err, types.ErrInvalidState))

	// The second undo must not double the quantity.
	var reservation models.Reservation
	s.Require().NoError(s.DB.Where("product_id = ? AND uid = ?", productID, "user-a").First(&reservation).Error)
	s.Equal(2, reservation.Quantity)

	product := s.getProduct(productID)
	s.Equal(0, product.PickedUpPacks)
}

func (s *InventoryTestSuite) TestUndoMergesIntoNewReservation() {
	productID := s.createProduct(10)

	s.Require().NoError(SetReservation(productID, "user-a", 3))
	pickupID, err := MarkReservationPickedUp(productID, "user-a", "admin-1")
	s.Require().NoError(err)

	// User reserved again while the pickup stood.
	s.Require().NoError(SetReservation(productID, "user-a", 2))

	s.Require().NoError(UndoPickupToReservation(productID, pickupID, "admin-1"))

	var reservation models.Reservation
	s.Require().NoError(s.DB.Where("product_id = ? AND uid = ?", productID, "user-a").First(&reservation).Error)
	s.Equal(5, reservation.Quantity)
	s.Contains(reservation.MergedFromPickupIDs, pickupID)
}

func (s *InventoryTestSuite) TestUndoUnknownPickup() {
	productID := s.createProduct(10)

	err := UndoPickupToReservation(productID, "no-such-pickup", "admin-1")
	s.True(errors.Is(err, types.ErrNotFound))
}

func (s *InventoryTestSuite) TestAggregatesNeverGoNegative() {
	productID := s.createProduct(10)

	s.Require().NoError(SetReservation(productID, "user-a", 2))

	// Simulate drift: someone zeroed the aggregate out from under us.
	s.Require().NoError(s.DB.Model(&models.Product{}).Where("id = ?", productID).Update("reserved_packs", 0).Error)

	_, err := MarkReservationPickedUp(productID, "user-a", "admin-1")
	s.Require().NoError(err)

	product := s.getProduct(productID)
	s.Equal(0, product.ReservedPacks)
	s.Equal(2, product.PickedUpPacks)
}

func (s *InventoryTestSuite) TestRecomputeRepairsDrift() {
	productID := s.createProduct(10)

	s.Require().NoError(SetReservation(productID, "user-a", 3))
	s.Require().NoError(SetReservation(productID, "user-b", 4))

	s.Require().NoError(s.DB.Model(&models.Product{}).Where("id = ?", productID).Updates(map[string]any{
		"reserved_packs":  99,
		"picked_up_packs": 42,
	}).Error)

	totals, err := RecomputeProductAggregates(productID)
	s.Require().NoError(err)
	s.Equal(7, totals.Reserved)
	s.Equal(0, totals.PickedUp)

	product := s.getProduct(productID)
	s.Equal(7, product.ReservedPacks)
	s.Equal(0, product.PickedUpPacks)
}

func (s *InventoryTestSuite) TestRecomputeIgnoresRevertedPickups() {
	productID := s.createProduct(10)

	s.Require().NoError(SetReservation(productID, "user-a", 3))
	pickupID, err := MarkReservationPickedUp(productID, "user-a", "admin-1")
	s.Require().NoError(err)
	s.Require().NoError(UndoPickupToReservation(productID, pickupID, "admin-1"))

	totals, err := RecomputeProductAggregates(productID)
	s.Require().NoError(err)
	s.Equal(3, totals.Reserved)
	s.Equal(0, totals.PickedUp)
}

func (s *InventoryTestSuite) TestRecomputeAllReportsProgress() {
	p1 := s.createProduct(5)
	p2 := s.createProduct(8)

	s.Require().NoError(SetReservation(p1, "user-a", 1))
	s.Require().NoError(SetReservation(p2, "user-b", 2))

	var calls int
	done, total, err := RecomputeAllProductAggregates(func(done, total int) {
		calls++
		s.Equal(2, total)
	})
	s.Require().NoError(err)
	s.Equal(2, done)
	s.Equal(2, total)
	s.Equal(2, calls)
}

func TestInventoryTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryTestSuite))
}

func TestNormalizeQuantity(t *testing.T) {
	assert.Equal(t, 3, NormalizeQuantity(3))
	assert.Equal(t, 2, NormalizeQuantity(2.9))
	assert.Equal(t, 0, NormalizeQuantity(0))
	assert.Equal(t, 0, NormalizeQuantity(-1))
	assert.Equal(t, 0, NormalizeQuantity(math.NaN()))
}

package boot

import (
	"testing"
	"time"
	"wurst/src/db"
	"wurst/src/models"
	"wurst/src/types"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type CleanupTestSuite struct {
	suite.Suite
	DB *gorm.DB
}

func (s *CleanupTestSuite) SetupTest() {
	d, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	sqldb, err := d.DB()
	s.Require().NoError(err)
	sqldb.SetMaxOpenConns(1)
	s.Require().NoError(d.AutoMigrate(&models.Pickup{}))
	db.NewDB(d)
	s.DB = d
}

func (s *CleanupTestSuite) createPickup(id string, uid string, state types.PickupState, age time.Duration) {
	s.Require().NoError(s.DB.Create(&models.Pickup{
		ID:         id,
		ProductID:  "p1",
		UID:        uid,
		Quantity:   1,
		State:      state,
		PickedUpAt: time.Now().Add(-age),
	}).Error)
}

func (s *CleanupTestSuite) remaining() []string {
	var ids []string
	s.Require().NoError(s.DB.Model(&models.Pickup{}).Order("id").Pluck("id", &ids).Error)
	return ids
}

func (s *CleanupTestSuite) TestDeletesOldPickedUpRecords() {
	s.createPickup("old", "user-a", types.PICKUP_PICKEDUP, 30*time.Hour)
	s.createPickup("fresh", "user-b", types.PICKUP_PICKEDUP, time.Hour)

	s.Require().NoError(CleanupPickedUpPickups())

	s.Equal([]string{"fresh"}, s.remaining())
}

func (s *CleanupTestSuite) TestKeepsUsersWithRevertedPickups() {
	s.createPickup("old-a", "user-a", types.PICKUP_PICKEDUP, 30*time.Hour)
	s.createPickup("reverted-a", "user-a", types.PICKUP_REVERTED, 48*time.Hour)
	s.createPickup("old-b", "user-b", types.PICKUP_PICKEDUP, 30*time.Hour)

	s.Require().NoError(CleanupPickedUpPickups())

	// user-a still has a reverted pickup, so their history is kept
	s.Equal([]string{"old-a", "reverted-a"}, s.remaining())
}

func (s *CleanupTestSuite) TestEmptyTable() {
	s.Require().NoError(CleanupPickedUpPickups())
	s.Empty(s.remaining())
}

func TestCleanupTestSuite(t *testing.T) {
	suite.Run(t, new(CleanupTestSuite))
}

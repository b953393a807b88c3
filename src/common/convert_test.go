package common

import (
	"context"
	"errors"
	"testing"
	"wurst/src/models"
	"wurst/src/types"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ConvertTestSuite struct {
	suite.Suite
	DB *gorm.DB
}

func (s *ConvertTestSuite) SetupTest() {
	s.DB = newTestDB(&s.Suite)
}

func (s *ConvertTestSuite) createPollWithDemand(demand map[string]int) string {
	pollID, err := CreatePoll("Krakauer", "admin-1")
	s.Require().NoError(err)
	for uid, qty := range demand {
		s.Require().NoError(SetPollDemand(pollID, uid, qty))
	}
	return pollID
}

func (s *ConvertTestSuite) TestConvertCopiesDemandToReservations() {
	pollID := s.createPollWithDemand(map[string]int{
		"user-a": 3,
		"user-b": 2,
		"user-c": 0,
	})

	total := 12
	result, err := ConvertPollToProduct(pollID, ConvertPollOverrides{TotalPacks: &total}, "admin-1")
	s.Require().NoError(err)
	s.False(result.AlreadyConverted)
	s.NotEmpty(result.ProductID)
	// admin-1's creator entry of 1 plus user-a and user-b; user-c has 0
	s.Equal(3, result.CopiedReservations)

	var product models.Product
	s.Require().NoError(s.DB.Where(&models.Product{ID: result.ProductID}).First(&product).Error)
	s.Equal("Krakauer", product.Name)
	s.Equal(12, product.TotalPacks)
	s.Equal(6, product.ReservedPacks)
	s.Require().NotNil(product.CreatedFromPollID)
	s.Equal(pollID, *product.CreatedFromPollID)

	var poll models.Poll
	s.Require().NoError(s.DB.Where(&models.Poll{ID: pollID}).First(&poll).Error)
	s.Equal(types.POLL_CONVERTED, poll.Status)
	s.Require().NotNil(poll.ConvertedProductID)
	s.Equal(result.ProductID, *poll.ConvertedProductID)
	s.NotNil(poll.ConvertedAt)

	var reservation models.Reservation
	s.Require().NoError(s.DB.Where("product_id = ? AND uid = ?", result.ProductID, "user-a").First(&reservation).Error)
	s.Equal(3, reservation.Quantity)

	err = s.DB.Where("product_id = ? AND uid = ?", result.ProductID, "user-c").First(&reservation).Error
	s.True(errors.Is(err, gorm.ErrRecordNotFound))
}

func (s *ConvertTestSuite) TestConvertIsIdempotent() {
	pollID := s.createPollWithDemand(map[string]int{"user-a": 4})

	first, err := ConvertPollToProduct(pollID, ConvertPollOverrides{}, "admin-1")
	s.Require().NoError(err)

	second, err := ConvertPollToProduct(pollID, ConvertPollOverrides{}, "admin-2")
	s.Require().NoError(err)
	s.True(second.AlreadyConverted)
	s.Equal(first.ProductID, second.ProductID)
	s.Equal(0, second.CopiedReservations)

	var count int64
	s.Require().NoError(s.DB.Model(&models.Product{}).Count(&count).Error)
	s.EqualValues(1, count)
}

func (s *ConvertTestSuite) TestConvertResumesCrashedRun() {
	pollID := s.createPollWithDemand(map[string]int{"user-a": 4})

	// A previous run created the product and died before copying.
	product := models.Product{Name: "Krakauer", CreatedBy: "admin-1"}
	s.Require().NoError(s.DB.Create(&product).Error)
	s.Require().NoError(s.DB.Model(&models.Poll{}).Where("id = ?", pollID).Updates(map[string]any{
		"status":               types.POLL_CONVERTING,
		"converted_product_id": product.ID,
	}).Error)

	result, err := ConvertPollToProduct(pollID, ConvertPollOverrides{}, "admin-1")
	s.Require().NoError(err)
	s.Equal(product.ID, result.ProductID)

	var count int64
	s.Require().NoError(s.DB.Model(&models.Product{}).Count(&count).Error)
	s.EqualValues(1, count)

	var reservation models.Reservation
	s.Require().NoError(s.DB.Where("product_id = ? AND uid = ?", product.ID, "user-a").First(&reservation).Error)
	s.Equal(4, reservation.Quantity)
}

func (s *ConvertTestSuite) TestConvertAppliesOverridesAndDefaults() {
	pollID := s.createPollWithDemand(nil)

	name := "  Wiener  "
	price := 9.999
	sausages := 0
	result, err := ConvertPollToProduct(pollID, ConvertPollOverrides{
		Name:            &name,
		PricePerPack:    &price,
		SausagesPerPack: &sausages,
	}, "admin-1")
	s.Require().NoError(err)

	var product models.Product
	s.Require().NoError(s.DB.Where(&models.Product{ID: result.ProductID}).First(&product).Error)
	s.Equal("Wiener", product.Name)
	s.Equal(10.0, product.PricePerPack)
	s.Equal(1, product.SausagesPerPack)
	s.Equal("Würstchen", product.Category)
}

func (s *ConvertTestSuite) TestConvertUnknownPoll() {
	_, err := ConvertPollToProduct("no-such-poll", ConvertPollOverrides{}, "admin-1")
	s.True(errors.Is(err, types.ErrNotFound))
}

func (s *ConvertTestSuite) TestPollDemandReads() {
	pollID := s.createPollWithDemand(map[string]int{
		"user-a": 5,
		"user-b": 2,
	})

	sum, err := GetPollDemandSum(pollID)
	s.Require().NoError(err)
	// creator entry of 1 included
	s.Equal(8, sum)

	qty, err := GetUserPollDemand(pollID, "user-a")
	s.Require().NoError(err)
	s.Equal(5, qty)

	qty, err = GetUserPollDemand(pollID, "user-z")
	s.Require().NoError(err)
	s.Equal(0, qty)

	rows, err := ListPollDemand(context.Background(), pollID)
	s.Require().NoError(err)
	s.Require().Len(rows, 3)
	s.Equal("user-a", rows[0].UID)
	s.Equal(5, rows[0].Quantity)
}

func (s *ConvertTestSuite) TestSetPollDemandUnknownPoll() {
	err := SetPollDemand("no-such-poll", "user-a", 1)
	s.True(errors.Is(err, types.ErrNotFound))
}

func TestConvertTestSuite(t *testing.T) {
	suite.Run(t, new(ConvertTestSuite))
}

package common

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"wurst/src/config"
	"wurst/src/db"
	"wurst/src/models"
	"wurst/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConvertPollOverrides struct {
	Name            *string
	Category        *string
	SausagesPerPack *int
	TotalPacks      *int
	PricePerPack    *float64
}

type ConvertPollResult struct {
	ProductID          string `json:"product_id"`
	CopiedReservations int    `json:"copied_reservations"`
	AlreadyConverted   bool   `json:"already_converted,omitempty"`
}

// ConvertPollToProduct turns a demand poll into a sellable product and copies
// its demand entries into reservations. Field resolution is
// override ?? pollValue ?? default.
//
// The operation is idempotent: a converted poll returns the existing product
// id without writes. The product id is created once and recorded on the poll
// (status "converting") before any demand is copied, so a re-run after a
// mid-copy crash resumes against the same product instead of creating a
// second one; the copy itself upserts by (product, uid) and is safe to
// repeat. Demand is copied in pages so each commit stays under the backend's
// write-batch limit; a failure between pages leaves well-defined partial
// progress, which the returned count reports.
func ConvertPollToProduct(pollID string, o ConvertPollOverrides, actorUID string) (*ConvertPollResult, error) {
	if pollID == "" {
		return nil, fmt.Errorf("%w: poll id required", types.ErrInvalidArgument)
	}
	d := db.GetDb()

	var poll models.Poll
	if err := d.Where(&models.Poll{ID: pollID}).First(&poll).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: poll %s", types.ErrNotFound, pollID)
		}
		return nil, err
	}

	if poll.Status == types.POLL_CONVERTED && poll.ConvertedProductID != nil {
		return &ConvertPollResult{ProductID: *poll.ConvertedProductID, AlreadyConverted: true}, nil
	}

	finalName := strings.TrimSpace(coalesce(o.Name, poll.Name))
	if finalName == "" {
		return nil, fmt.Errorf("%w: name required", types.ErrInvalidArgument)
	}
	finalCategory := strings.TrimSpace(coalesce(o.Category, poll.Category))
	if finalCategory == "" {
		finalCategory = config.DEFAULT_CATEGORY
	}
	finalSausages := max(1, coalesceInt(o.SausagesPerPack, poll.SausagesPerPack))
	finalTotal := max(0, coalesceInt(o.TotalPacks, poll.TotalPacks))
	finalPrice := math.Round(math.Max(0, coalesceFloat(o.PricePerPack, poll.PricePerPack))*100) / 100

	var productID string
	if poll.Status == types.POLL_CONVERTING && poll.ConvertedProductID != nil {
		// Retry of a crashed run: reuse the product created last time.
		productID = *poll.ConvertedProductID
	} else {
		productID = uuid.NewString()
		product := models.Product{
			ID:                productID,
			Name:              finalName,
			Category:          finalCategory,
			SausagesPerPack:   finalSausages,
			TotalPacks:        finalTotal,
			PricePerPack:      finalPrice,
			ReservedPacks:     0,
			PickedUpPacks:     0,
			Active:            true,
			Unit:              config.DEFAULT_UNIT,
			CreatedBy:         actorUID,
			CreatedFromPollID: &pollID,
		}
		if err := d.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&product).Error; err != nil {
				return err
			}
			return tx.
				Model(&models.Poll{}).
				Where("id = ?", pollID).
				Updates(map[string]any{
					"status":               types.POLL_CONVERTING,
					"converted_product_id": productID,
				}).
				Error
		}); err != nil {
			return nil, err
		}
	}

	result := &ConvertPollResult{ProductID: productID}

	var demands []models.PollDemand
	res := d.
		Where("poll_id = ? AND quantity > 0", pollID).
		FindInBatches(&demands, config.CONVERT_BATCH_SIZE, func(tx *gorm.DB, batch int) error {
			rows := make([]models.Reservation, 0, len(demands))
			for _, dm := range demands {
				q := max(0, dm.Quantity)
				if dm.UID == "" || q <= 0 {
					continue
				}
				rows = append(rows, models.Reservation{
					ProductID: productID,
					UID:       dm.UID,
					Quantity:  q,
				})
			}
			if len(rows) == 0 {
				return nil
			}
			if err := d.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "product_id"}, {Name: "uid"}},
				DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
			}).Create(&rows).Error; err != nil {
				return err
			}
			result.CopiedReservations += len(rows)
			return nil
		})
	if res.Error != nil {
		return result, res.Error
	}

	// The copy bypasses SetReservation, so derive the aggregates once from
	// what actually landed.
	if _, err := RecomputeProductAggregates(productID); err != nil {
		return result, err
	}

	now := time.Now()
	if err := d.
		Model(&models.Poll{}).
		Where("id = ?", pollID).
		Updates(map[string]any{
			"status":       types.POLL_CONVERTED,
			"converted_at": now,
		}).
		Error; err != nil {
		return result, err
	}

	go produceInventoryEvent("poll_converted", map[string]any{
		"poll_id":    pollID,
		"product_id": productID,
	})
	return result, nil
}

func coalesce(override *string, fallback string) string {
	if override != nil {
		return *override
	}
	return fallback
}

func coalesceInt(override *int, fallback int) int {
	if override != nil {
		return *override
	}
	return fallback
}

func coalesceFloat(override *float64, fallback float64) float64 {
	if override != nil {
		return *override
	}
	return fallback
}

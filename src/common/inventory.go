package common

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"
	"wurst/src/db"
	"wurst/src/lib"
	"wurst/src/models"
	"wurst/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The transition engine. Every mutation of a product's aggregate fields runs
// inside a serializable transaction that also reads the product row, so two
// users reserving against the same product serialize instead of losing an
// update. Losers of a serialization conflict are retried with backoff before
// the failure reaches the caller.

const (
	txMaxRetries  = 5
	txBackoffBase = 25 * time.Millisecond
)

func isRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "40001") ||
		strings.Contains(msg, "40P01") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

func runSerializable(fn func(tx *gorm.DB) error) error {
	d := db.GetDb()
	backoff := txBackoffBase
	var err error
	for attempt := 0; attempt < txMaxRetries; attempt++ {
		err = d.Transaction(fn, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err == nil || !isRetryableTxError(err) {
			return err
		}
		log.Printf("Retrying transaction after conflict (attempt %d): %s\n", attempt+1, err.Error())
		time.Sleep(backoff)
		backoff *= 2
	}
	return fmt.Errorf("%w: %s", types.ErrConflict, err.Error())
}

// NormalizeQuantity floors fractional input and clamps it to >= 0.
func NormalizeQuantity(q float64) int {
	if math.IsNaN(q) || q < 0 {
		return 0
	}
	return int(math.Floor(q))
}

func produceInventoryEvent(action string, payload map[string]any) {
	payload["action"] = action
	if err := lib.KafkaProduceMessage("inventory_producer", "inventory-events", payload); err != nil {
		log.Printf("Error producing inventory event [%s]: %s\n", action, err.Error())
	}
}

// SetReservation upserts the caller's reservation to quantity, deleting the
// row when quantity is 0, and shifts the product's reservedPacks by the
// delta. Stock is not checked against remaining packs; over-reservation is
// reconciled by the admin (see recompute).
func SetReservation(productID string, uid string, quantity int) error {
	if productID == "" || uid == "" {
		return fmt.Errorf("%w: product and uid required", types.ErrInvalidArgument)
	}
	nextQty := max(0, quantity)

	err := runSerializable(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where(&models.Product{ID: productID}).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %s", types.ErrNotFound, productID)
			}
			return err
		}

		prevQty := 0
		var reservation models.Reservation
		err := tx.
			Where("product_id = ? AND uid = ?", productID, uid).
			First(&reservation).
			Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if exists {
			prevQty = reservation.Quantity
		}

		delta := nextQty - prevQty

		if nextQty <= 0 {
			if exists {
				if err := tx.
					Where("product_id = ? AND uid = ?", productID, uid).
					Delete(&models.Reservation{}).
					Error; err != nil {
					return err
				}
			}
		} else {
			row := models.Reservation{ProductID: productID, UID: uid, Quantity: nextQty}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "product_id"}, {Name: "uid"}},
				DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return err
			}
		}

		if delta != 0 {
			newReserved := max(0, product.ReservedPacks+delta)
			if err := tx.
				Model(&models.Product{}).
				Where("id = ?", productID).
				Update("reserved_packs", newReserved).
				Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	PublishProductEvent(productID)
	return nil
}

// MarkReservationPickedUp consumes the user's reservation into a new pickup
// and moves the quantity from reservedPacks to pickedUpPacks. Returns the new
// pickup's id.
func MarkReservationPickedUp(productID string, uid string, actorUID string) (string, error) {
	if productID == "" || uid == "" {
		return "", fmt.Errorf("%w: product and uid required", types.ErrInvalidArgument)
	}
	pickupID := uuid.NewString()

	err := runSerializable(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where(&models.Product{ID: productID}).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %s", types.ErrNotFound, productID)
			}
			return err
		}

		var reservation models.Reservation
		if err := tx.
			Where("product_id = ? AND uid = ?", productID, uid).
			First(&reservation).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no active reservation for %s", types.ErrNotFound, uid)
			}
			return err
		}

		qty := reservation.Quantity
		if qty <= 0 {
			return fmt.Errorf("%w: reservation quantity is 0, nothing to pick up", types.ErrInvalidState)
		}

		resUpdatedAt := reservation.UpdatedAt
		pickup := models.Pickup{
			ID:                   pickupID,
			ProductID:            productID,
			UID:                  uid,
			Quantity:             qty,
			State:                types.PICKUP_PICKEDUP,
			PickedUpAt:           time.Now(),
			PickedUpBy:           actorUID,
			ReservationUpdatedAt: &resUpdatedAt,
		}
		if err := tx.Create(&pickup).Error; err != nil {
			return err
		}

		if err := tx.
			Where("product_id = ? AND uid = ?", productID, uid).
			Delete(&models.Reservation{}).
			Error; err != nil {
			return err
		}

		return tx.
			Model(&models.Product{}).
			Where("id = ?", productID).
			Updates(map[string]any{
				"reserved_packs":  max(0, product.ReservedPacks-qty),
				"picked_up_packs": max(0, product.PickedUpPacks+qty),
			}).
			Error
	})
	if err != nil {
		return "", err
	}

	go produceInventoryEvent("pickup", map[string]any{
		"product_id": productID,
		"pickup_id":  pickupID,
		"uid":        uid,
	})
	PublishProductEvent(productID)
	return pickupID, nil
}

// UndoPickupToReservation reverts a pickup exactly once and merges its
// quantity back into the user's reservation additively, since the user may
// have reserved again in the meantime. pickedUpPacks is decremented;
// reservedPacks is deliberately left alone; admins reconcile the aggregate
// via recompute.
func UndoPickupToReservation(productID string, pickupID string, actorUID string) error {
	if productID == "" || pickupID == "" {
		return fmt.Errorf("%w: product and pickup required", types.ErrInvalidArgument)
	}

	err := runSerializable(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where(&models.Product{ID: productID}).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %s", types.ErrNotFound, productID)
			}
			return err
		}

		var pickup models.Pickup
		if err := tx.
			Where("id = ? AND product_id = ?", pickupID, productID).
			First(&pickup).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: pickup %s", types.ErrNotFound, pickupID)
			}
			return err
		}
		if pickup.State != types.PICKUP_PICKEDUP {
			return fmt.Errorf("%w: pickup already reverted", types.ErrInvalidState)
		}
		if pickup.UID == "" || pickup.Quantity <= 0 {
			return fmt.Errorf("%w: pickup record is unusable", types.ErrInvalidState)
		}

		var reservation models.Reservation
		err := tx.
			Where("product_id = ? AND uid = ?", productID, pickup.UID).
			First(&reservation).
			Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if exists {
			merged := append(reservation.MergedFromPickupIDs, pickupID)
			if err := tx.
				Model(&models.Reservation{}).
				Where("product_id = ? AND uid = ?", productID, pickup.UID).
				Updates(map[string]any{
					"quantity":               reservation.Quantity + pickup.Quantity,
					"merged_from_pickup_ids": merged,
				}).
				Error; err != nil {
				return err
			}
		} else {
			row := models.Reservation{
				ProductID:           productID,
				UID:                 pickup.UID,
				Quantity:            pickup.Quantity,
				MergedFromPickupIDs: types.JSONBArray{pickupID},
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		if err := tx.
			Model(&models.Pickup{}).
			Where("id = ?", pickupID).
			Updates(map[string]any{
				"state":       types.PICKUP_REVERTED,
				"reverted_at": now,
				"reverted_by": actorUID,
			}).
			Error; err != nil {
			return err
		}

		return tx.
			Model(&models.Product{}).
			Where("id = ?", productID).
			Update("picked_up_packs", max(0, product.PickedUpPacks-pickup.Quantity)).
			Error
	})
	if err != nil {
		return err
	}

	go produceInventoryEvent("undo", map[string]any{
		"product_id": productID,
		"pickup_id":  pickupID,
	})
	PublishProductEvent(productID)
	return nil
}

type AggregateTotals struct {
	Reserved int `json:"reserved"`
	PickedUp int `json:"picked_up"`
}

// RecomputeProductAggregates rebuilds both aggregate fields from the
// reservations and pickups tables. This is the repair path for drift caused
// by partial failures or manual data edits; it overwrites, so no transaction
// is needed.
func RecomputeProductAggregates(productID string) (*AggregateTotals, error) {
	d := db.GetDb()

	var product models.Product
	if err := d.Where(&models.Product{ID: productID}).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", types.ErrNotFound, productID)
		}
		return nil, err
	}

	var reserved int
	if err := d.
		Model(&models.Reservation{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&reserved).
		Error; err != nil {
		return nil, err
	}

	var pickedUp int
	if err := d.
		Model(&models.Pickup{}).
		Where("product_id = ? AND state = ?", productID, types.PICKUP_PICKEDUP).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&pickedUp).
		Error; err != nil {
		return nil, err
	}

	if err := d.
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"reserved_packs":        reserved,
			"picked_up_packs":       pickedUp,
			"aggregates_updated_at": time.Now(),
		}).
		Error; err != nil {
		return nil, err
	}

	PublishProductEvent(productID)
	return &AggregateTotals{Reserved: reserved, PickedUp: pickedUp}, nil
}

// RecomputeAllProductAggregates repairs every product sequentially. Progress
// is reported after each product; on failure the done count tells the caller
// how far it got.
func RecomputeAllProductAggregates(onProgress func(done int, total int)) (int, int, error) {
	d := db.GetDb()

	var ids []string
	if err := d.
		Model(&models.Product{}).
		Order("created_at").
		Pluck("id", &ids).
		Error; err != nil {
		return 0, 0, err
	}

	total := len(ids)
	done := 0
	for _, id := range ids {
		if _, err := RecomputeProductAggregates(id); err != nil {
			return done, total, err
		}
		done++
		if onProgress != nil {
			onProgress(done, total)
		}
	}
	return done, total, nil
}

package models

import (
	"time"
	"wurst/src/types"
)

// Pickup records a fulfillment event. Rows are never updated after creation
// except for the single pickedUp -> reverted transition; reverted pickups
// stay around for audit and are inert for aggregate purposes.
type Pickup struct {
	ID        string            `gorm:"primarykey" json:"id"`
	ProductID string            `gorm:"index" json:"product_id"`
	UID       string            `gorm:"column:uid" json:"uid"`
	Quantity  int               `json:"quantity"`
	State     types.PickupState `gorm:"default:'pickedUp'" json:"state"`

	PickedUpAt time.Time  `json:"picked_up_at"`
	PickedUpBy string     `json:"picked_up_by,omitempty"`
	RevertedAt *time.Time `json:"reverted_at,omitempty"`
	RevertedBy *string    `json:"reverted_by,omitempty"`

	// Last-update marker of the reservation this pickup consumed.
	ReservationUpdatedAt *time.Time `json:"reservation_updated_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
}

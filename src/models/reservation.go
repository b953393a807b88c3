package models

import (
	"time"
	"wurst/src/types"
)

// Reservation holds one user's standing claim on a product, at most one row
// per (product, user). A quantity of 0 is never stored; the engine deletes
// the row instead. No soft delete here: a consumed reservation must be
// recreatable under the same key.
type Reservation struct {
	ProductID string `gorm:"primarykey" json:"product_id"`
	UID       string `gorm:"primarykey;column:uid" json:"uid"`
	Quantity  int    `json:"quantity"`

	// Pickup ids whose quantity was merged back into this row by an undo,
	// kept for audit.
	MergedFromPickupIDs types.JSONBArray `gorm:"type:jsonb" json:"merged_from_pickup_ids,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
}

package models

import (
	"time"
	"wurst/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a reservable pack-based item ("Wurst"). ReservedPacks and
// PickedUpPacks are denormalized totals over the reservations and pickups
// tables; the inventory engine keeps them in step and
// RecomputeProductAggregates rebuilds them from scratch.
type Product struct {
	ID              string  `gorm:"primarykey" json:"id"`
	Name            string  `json:"name"`
	Category        string  `gorm:"default:'Würstchen'" json:"category,omitempty"`
	SausagesPerPack int     `json:"sausages_per_pack"`
	TotalPacks      int     `json:"total_packs"`
	PricePerPack    float64 `json:"price_per_pack"`
	ReservedPacks   int     `json:"reserved_packs"`
	PickedUpPacks   int     `json:"picked_up_packs"`
	ImageURL        string  `json:"image_url,omitempty"`
	ImagePath       string  `json:"image_path,omitempty"`
	Active          bool    `gorm:"default:true" json:"active"`
	Unit            string  `gorm:"default:'Kg'" json:"unit,omitempty"`
	CreatedBy       string  `json:"created_by,omitempty"`

	CreatedFromPollID   *string    `json:"created_from_poll_id,omitempty"`
	AggregatesUpdatedAt *time.Time `json:"aggregates_updated_at,omitempty"`

	RemainingPacks int `gorm:"-" json:"remaining_packs"`

	types.Timestamps
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Product) FillRemaining() {
	p.RemainingPacks = max(0, p.TotalPacks-p.ReservedPacks-p.PickedUpPacks)
}

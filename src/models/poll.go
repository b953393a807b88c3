package models

import (
	"time"
	"wurst/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Poll ("Umfrage") collects demand signals before a product exists. Once
// converted it carries a back-reference to the product it became.
type Poll struct {
	ID              string           `gorm:"primarykey" json:"id"`
	Name            string           `json:"name"`
	Category        string           `json:"category,omitempty"`
	SausagesPerPack int              `json:"sausages_per_pack,omitempty"`
	TotalPacks      int              `json:"total_packs,omitempty"`
	PricePerPack    float64          `json:"price_per_pack,omitempty"`
	ImageURL        string           `json:"image_url,omitempty"`
	ImagePath       string           `json:"image_path,omitempty"`
	Status          types.PollStatus `gorm:"default:'open'" json:"status"`
	CreatedBy       string           `json:"created_by,omitempty"`

	ConvertedProductID *string    `json:"converted_product_id,omitempty"`
	ConvertedAt        *time.Time `json:"converted_at,omitempty"`

	Demand []PollDemand `gorm:"foreignKey:PollID" json:"demand,omitempty"`

	types.Timestamps
}

func (p *Poll) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PollDemand is one user's "will haben" entry, keyed like a reservation.
// Unlike reservations, a zero quantity stays stored; readers filter it out.
type PollDemand struct {
	PollID   string `gorm:"primarykey" json:"poll_id"`
	UID      string `gorm:"primarykey;column:uid" json:"uid"`
	Quantity int    `json:"quantity"`

	CreatedAt time.Time `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
}

package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any
type JSONBArray []any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("type assertion to []byte failed")
		}
		b = []byte(s)
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a JSONBArray) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONBArray) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("type assertion to []byte failed")
		}
		b = []byte(s)
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type PickupState string

const (
	PICKUP_PICKEDUP PickupState = "pickedUp"
	PICKUP_REVERTED PickupState = "reverted"
)

type PollStatus string

const (
	POLL_OPEN       PollStatus = "open"
	POLL_CONVERTING PollStatus = "converting"
	POLL_CONVERTED  PollStatus = "converted"
)

const (
	ROLE_ADMIN = "admin"
	ROLE_USER  = "user"
)

const (
	USER_PENDING  = "pending"
	USER_APPROVED = "approved"
	USER_BLOCKED  = "blocked"
)

type SimpleRequestParams struct {
	ID string `uri:"id" binding:"required"`
}

type CreateProductRequestBody struct {
	Name            string  `json:"name" form:"name" binding:"required,notblank"`
	Category        string  `json:"category" form:"category"`
	SausagesPerPack int     `json:"sausages_per_pack" form:"sausages_per_pack" binding:"required,gte=1"`
	TotalPacks      int     `json:"total_packs" form:"total_packs" binding:"gte=0"`
	PricePerPack    float64 `json:"price_per_pack" form:"price_per_pack" binding:"gte=0"`
	Unit            string  `json:"unit" form:"unit"`
}

type UpdateProductRequestBody struct {
	Name            *string  `json:"name,omitempty" binding:"omitempty,notblank"`
	Category        *string  `json:"category,omitempty"`
	SausagesPerPack *int     `json:"sausages_per_pack,omitempty" binding:"omitempty,gte=1"`
	TotalPacks      *int     `json:"total_packs,omitempty" binding:"omitempty,gte=0"`
	PricePerPack    *float64 `json:"price_per_pack,omitempty" binding:"omitempty,gte=0"`
	Unit            *string  `json:"unit,omitempty"`
}

// Quantity arrives as a float on purpose. Clients send whatever the input
// field holds; the engine floors and clamps it to >= 0 instead of rejecting.
type SetQuantityRequestBody struct {
	Quantity float64 `json:"quantity"`
}

type CreatePollRequestBody struct {
	Name string `json:"name" binding:"required,notblank"`
}

type UpdatePollRequestBody struct {
	Name *string `json:"name,omitempty" binding:"omitempty,notblank"`
}

type ConvertPollRequestBody struct {
	Name            *string  `json:"name,omitempty"`
	Category        *string  `json:"category,omitempty"`
	SausagesPerPack *int     `json:"sausages_per_pack,omitempty"`
	TotalPacks      *int     `json:"total_packs,omitempty"`
	PricePerPack    *float64 `json:"price_per_pack,omitempty"`
}

type PushBroadcastRequestBody struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

type PushToUsersRequestBody struct {
	UIDs  []string `json:"uids" binding:"required,min=1,max=2000"`
	Title string   `json:"title" binding:"required"`
	Body  string   `json:"body"`
	URL   string   `json:"url"`
}

type SaveTokenRequestBody struct {
	Token string `json:"token" binding:"required,min=20"`
}

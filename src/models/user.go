package models

import (
	"wurst/src/types"
)

type User struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	UID         string `gorm:"uniqueIndex" json:"uid,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `gorm:"default:'user'" json:"role,omitempty"`
	Status      string `gorm:"default:'pending'" json:"status,omitempty"`

	Tokens []FCMToken `gorm:"foreignKey:UID;references:UID" json:"-"`

	types.Timestamps
}

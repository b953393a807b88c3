package models

import (
	"time"
)

// FCMToken is a push recipient endpoint. Tokens reported as permanently
// invalid by FCM are pruned after each multicast.
type FCMToken struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UID        string    `gorm:"index;column:uid" json:"uid"`
	Token      string    `gorm:"uniqueIndex" json:"token"`
	LastSeenAt time.Time `json:"last_seen_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
}

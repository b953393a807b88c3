package common

import (
	"context"
	"fmt"
	"time"
	"wurst/src/db"
	"wurst/src/lib"
	"wurst/src/models"
)

const displayNameTTL = 12 * time.Hour

// GetUserDisplayName resolves a uid to something printable, preferring
// display name, then email, then the uid itself. Results are cached in redis
// because admin demand lists resolve the same handful of users repeatedly.
func GetUserDisplayName(ctx context.Context, uid string) string {
	if uid == "" {
		return "Unbekannt"
	}

	key := fmt.Sprintf("displayname:%s", uid)
	rdb := lib.GetRedisClient()
	if rdb != nil {
		if v, err := rdb.Get(ctx, key).Result(); err == nil && v != "" {
			return v
		}
	}

	name := uid
	var user models.User
	if err := db.GetDb().Where(&models.User{UID: uid}).First(&user).Error; err == nil {
		if user.DisplayName != "" {
			name = user.DisplayName
		} else if user.Email != "" {
			name = user.Email
		}
	}

	if rdb != nil {
		// cache miss fill is best-effort
		rdb.Set(ctx, key, name, displayNameTTL)
	}
	return name
}

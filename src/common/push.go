package common

import (
	"context"
	"fmt"
	"log"
	"time"
	"wurst/src/config"
	"wurst/src/db"
	"wurst/src/lib"
	"wurst/src/models"
	"wurst/src/types"

	"firebase.google.com/go/v4/messaging"
	"gorm.io/gorm/clause"
)

type PushReport struct {
	UIDCount            int `json:"uid_count,omitempty"`
	TokenCount          int `json:"token_count"`
	SuccessCount        int `json:"success_count"`
	FailureCount        int `json:"failure_count"`
	DeletedInvalidCount int `json:"deleted_invalid_count"`
}

// SendPushToAllUsers broadcasts a message to every registered token.
func SendPushToAllUsers(ctx context.Context, title string, body string, url string) (*PushReport, error) {
	d := db.GetDb()
	var tokens []models.FCMToken
	if err := d.Find(&tokens).Error; err != nil {
		return nil, err
	}
	return sendMulticast(ctx, tokens, title, body, url)
}

// SendPushToUsers delivers a message to the tokens of the given uids only.
func SendPushToUsers(ctx context.Context, uids []string, title string, body string, url string) (*PushReport, error) {
	if len(uids) == 0 {
		return nil, fmt.Errorf("%w: uids missing", types.ErrInvalidArgument)
	}
	if len(uids) > config.PUSH_MAX_UIDS {
		return nil, fmt.Errorf("%w: too many uids (max %d)", types.ErrInvalidArgument, config.PUSH_MAX_UIDS)
	}
	d := db.GetDb()
	var tokens []models.FCMToken
	if err := d.Where("uid IN ?", uids).Find(&tokens).Error; err != nil {
		return nil, err
	}
	report, err := sendMulticast(ctx, tokens, title, body, url)
	if report != nil {
		report.UIDCount = len(uids)
	}
	return report, err
}

func sendMulticast(ctx context.Context, tokens []models.FCMToken, title string, body string, url string) (*PushReport, error) {
	if url == "" {
		url = "/"
	}

	// dedupe; the same device token can be registered by several sessions
	seen := make(map[string]bool, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Token == "" || seen[t.Token] {
			continue
		}
		seen[t.Token] = true
		unique = append(unique, t.Token)
	}

	report := &PushReport{TokenCount: len(unique)}
	if len(unique) == 0 {
		return report, nil
	}

	client, err := lib.GetFirebaseMessaging()
	if err != nil {
		return report, err
	}

	invalid := []string{}
	for start := 0; start < len(unique); start += config.PUSH_CHUNK_SIZE {
		end := min(start+config.PUSH_CHUNK_SIZE, len(unique))
		chunk := unique[start:end]

		msg := &messaging.MulticastMessage{
			Tokens: chunk,
			Data: map[string]string{
				"title": title,
				"body":  body,
				"url":   url,
			},
			Notification: &messaging.Notification{Title: title, Body: body},
			Webpush: &messaging.WebpushConfig{
				FCMOptions: &messaging.WebpushFCMOptions{Link: url},
			},
		}

		resp, err := client.SendEachForMulticast(ctx, msg)
		if err != nil {
			return report, err
		}
		report.SuccessCount += resp.SuccessCount
		report.FailureCount += resp.FailureCount

		for idx, r := range resp.Responses {
			if r.Error != nil && messaging.IsUnregistered(r.Error) {
				invalid = append(invalid, chunk[idx])
			}
		}
	}

	// pruning is cleanup, not correctness; failures only log
	if len(invalid) > 0 {
		d := db.GetDb()
		if err := d.Where("token IN ?", invalid).Delete(&models.FCMToken{}).Error; err != nil {
			log.Printf("Error pruning invalid tokens: %s\n", err.Error())
		} else {
			report.DeletedInvalidCount = len(invalid)
		}
	}
	return report, nil
}

// SaveFCMToken registers (or refreshes) a push endpoint for a user.
func SaveFCMToken(uid string, token string) error {
	if uid == "" {
		return types.ErrUnauthenticated
	}
	if len(token) < 20 {
		return fmt.Errorf("%w: token invalid", types.ErrInvalidArgument)
	}
	d := db.GetDb()
	row := models.FCMToken{UID: uid, Token: token, LastSeenAt: time.Now()}
	return d.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"uid", "last_seen_at", "updated_at"}),
	}).Create(&row).Error
}

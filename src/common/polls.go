package common

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"wurst/src/db"
	"wurst/src/models"
	"wurst/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatePoll opens a new demand poll. The creator's own demand entry starts
// at 1, in the same transaction the poll is created in.
func CreatePoll(name string, creatorUID string) (string, error) {
	if creatorUID == "" {
		return "", types.ErrUnauthenticated
	}
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "", fmt.Errorf("%w: name required", types.ErrInvalidArgument)
	}

	poll := models.Poll{
		Name:      clean,
		Status:    types.POLL_OPEN,
		CreatedBy: creatorUID,
	}
	d := db.GetDb()
	err := d.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&poll).Error; err != nil {
			return err
		}
		demand := models.PollDemand{PollID: poll.ID, UID: creatorUID, Quantity: 1}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "poll_id"}, {Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).Create(&demand).Error
	})
	if err != nil {
		return "", err
	}
	return poll.ID, nil
}

// SetPollDemand upserts the caller's demand entry. Unlike reservations,
// polls have no aggregate field, so this is a plain write; zero stays stored.
func SetPollDemand(pollID string, uid string, quantity int) error {
	if uid == "" {
		return types.ErrUnauthenticated
	}
	d := db.GetDb()

	var poll models.Poll
	if err := d.Where(&models.Poll{ID: pollID}).First(&poll).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: poll %s", types.ErrNotFound, pollID)
		}
		return err
	}

	row := models.PollDemand{PollID: pollID, UID: uid, Quantity: max(0, quantity)}
	return d.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}, {Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&row).Error
}

// GetPollDemandSum totals all demand entries of a poll.
func GetPollDemandSum(pollID string) (int, error) {
	d := db.GetDb()
	var sum int
	err := d.
		Model(&models.PollDemand{}).
		Where("poll_id = ?", pollID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).
		Error
	return sum, err
}

// GetUserPollDemand reads one user's demand quantity, 0 when absent.
func GetUserPollDemand(pollID string, uid string) (int, error) {
	d := db.GetDb()
	var row models.PollDemand
	err := d.Where("poll_id = ? AND uid = ?", pollID, uid).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Quantity, nil
}

type DemandRow struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ListPollDemand returns positive demand entries with resolved display
// names, biggest quantity first.
func ListPollDemand(ctx context.Context, pollID string) ([]DemandRow, error) {
	d := db.GetDb()
	var entries []models.PollDemand
	if err := d.
		Where("poll_id = ? AND quantity > 0", pollID).
		Find(&entries).
		Error; err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Quantity > entries[j].Quantity
	})

	rows := make([]DemandRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, DemandRow{
			UID:      e.UID,
			Name:     GetUserDisplayName(ctx, e.UID),
			Quantity: e.Quantity,
		})
	}
	return rows, nil
}

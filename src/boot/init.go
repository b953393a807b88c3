package boot

import (
	"log"
	"time"
	"wurst/src/config"
	"wurst/src/db"
	"wurst/src/lib"
	"wurst/src/models"
	"wurst/src/types"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Reservation{},
		&models.Pickup{},
		&models.Poll{},
		&models.PollDemand{},
		&models.FCMToken{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(8, 50, 0))),
		gocron.NewTask(func() {
			if err := CleanupPickedUpPickups(); err != nil {
				log.Printf("Error on pickup cleanup: %s\n", err.Error())
			}
		}),
	)
	if err != nil {
		log.Printf("Error scheduling cleanup job: %s\n", err.Error())
		return
	}
	log.Printf("Scheduled cleanup job: %s\n", j.ID().String())
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}

// CleanupPickedUpPickups deletes pickedUp records older than 24h, in batches.
// Users who still have a reverted (or otherwise non-pickedUp) pickup keep
// their history so a pending dispute stays traceable.
func CleanupPickedUpPickups() error {
	d := db.GetDb()
	cutoff := time.Now().Add(-24 * time.Hour)

	var blockedUIDs []string
	if err := d.
		Model(&models.Pickup{}).
		Where("state <> ?", types.PICKUP_PICKEDUP).
		Distinct().
		Pluck("uid", &blockedUIDs).
		Error; err != nil {
		return err
	}

	deleted := 0
	for {
		q := d.
			Model(&models.Pickup{}).
			Where("state = ? AND picked_up_at <= ?", types.PICKUP_PICKEDUP, cutoff)
		if len(blockedUIDs) > 0 {
			q = q.Where("uid NOT IN ?", blockedUIDs)
		}
		var ids []string
		if err := q.Limit(config.CLEANUP_BATCH_SIZE).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		if err := d.Delete(&models.Pickup{}, "id IN ?", ids).Error; err != nil {
			return err
		}
		deleted += len(ids)
	}

	log.Printf("Pickup cleanup done: cutoff=%s blocked=%d deleted=%d\n",
		cutoff.Format(time.RFC3339), len(blockedUIDs), deleted)
	return nil
}

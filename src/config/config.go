package config

import (
	"fmt"
	"os"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const (
	// Batch sizes for paged copies and deletes.
	CONVERT_BATCH_SIZE = 400
	CLEANUP_BATCH_SIZE = 450

	// FCM multicast accepts at most 500 tokens per request.
	PUSH_CHUNK_SIZE = 500

	PUSH_MAX_UIDS = 2000

	DEFAULT_CATEGORY   = "Würstchen"
	DEFAULT_UNIT       = "Kg"
	DEFAULT_IMAGE_PATH = "defaults/wurst.png"
)

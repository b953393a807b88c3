package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"
	"wurst/src/config"
	"wurst/src/db"
	awslib "wurst/src/lib/aws"
	"wurst/src/models"
	"wurst/src/types"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type ImageUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

func (u *ImageUpload) valid() bool {
	return u != nil && u.Reader != nil && strings.HasPrefix(u.ContentType, "image/")
}

func imageKey(prefix string, id string, filename string) string {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s/%s/%d_%s%s", prefix, id, time.Now().UnixMilli(), slug.Make(base), ext)
}

// CreateNewProduct creates a product with zero aggregates and stores its
// image. A failed image store rolls the product back (compensating delete)
// instead of leaving an orphan row.
func CreateNewProduct(ctx context.Context, params *types.CreateProductRequestBody, creatorUID string, image *ImageUpload) (string, error) {
	if image != nil && !image.valid() {
		return "", fmt.Errorf("%w: only image files allowed", types.ErrInvalidArgument)
	}

	category := strings.TrimSpace(params.Category)
	if category == "" {
		category = config.DEFAULT_CATEGORY
	}
	unit := params.Unit
	if unit == "" {
		unit = config.DEFAULT_UNIT
	}

	product := models.Product{
		Name:            strings.TrimSpace(params.Name),
		Category:        category,
		SausagesPerPack: params.SausagesPerPack,
		TotalPacks:      params.TotalPacks,
		PricePerPack:    params.PricePerPack,
		ReservedPacks:   0,
		PickedUpPacks:   0,
		Active:          true,
		Unit:            unit,
		CreatedBy:       creatorUID,
	}
	d := db.GetDb()
	if err := d.Create(&product).Error; err != nil {
		return "", err
	}

	if image == nil {
		url, err := awslib.S3ResolveURL(ctx, config.DEFAULT_IMAGE_PATH)
		if err != nil {
			// default image is optional decoration, keep the product
			log.Printf("Could not resolve default image: %s\n", err.Error())
			return product.ID, nil
		}
		if err := d.
			Model(&models.Product{}).
			Where("id = ?", product.ID).
			Updates(map[string]any{"image_url": url, "image_path": config.DEFAULT_IMAGE_PATH}).
			Error; err != nil {
			return "", err
		}
		return product.ID, nil
	}

	key := imageKey("products", product.ID, image.Filename)
	if err := awslib.S3StoreObject(ctx, key, image.Reader, image.ContentType); err != nil {
		if derr := d.Delete(&models.Product{}, "id = ?", product.ID).Error; derr != nil {
			log.Printf("Error rolling back product [%s]: %s\n", product.ID, derr.Error())
		}
		return "", err
	}
	url, err := awslib.S3ResolveURL(ctx, key)
	if err != nil {
		if derr := awslib.S3DeleteObject(ctx, key); derr != nil {
			log.Printf("Error deleting object [%s]: %s\n", key, derr.Error())
		}
		if derr := d.Delete(&models.Product{}, "id = ?", product.ID).Error; derr != nil {
			log.Printf("Error rolling back product [%s]: %s\n", product.ID, derr.Error())
		}
		return "", err
	}
	if err := d.
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{"image_url": url, "image_path": key}).
		Error; err != nil {
		return "", err
	}
	return product.ID, nil
}

// UpdateProductImage stores a replacement image and deletes the old object
// afterwards, best-effort.
func UpdateProductImage(ctx context.Context, productID string, image *ImageUpload) (string, error) {
	if !image.valid() {
		return "", fmt.Errorf("%w: only image files allowed", types.ErrInvalidArgument)
	}
	d := db.GetDb()
	var product models.Product
	if err := d.Where(&models.Product{ID: productID}).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: product %s", types.ErrNotFound, productID)
		}
		return "", err
	}

	key := imageKey("products", productID, image.Filename)
	if err := awslib.S3StoreObject(ctx, key, image.Reader, image.ContentType); err != nil {
		return "", err
	}
	url, err := awslib.S3ResolveURL(ctx, key)
	if err != nil {
		if derr := awslib.S3DeleteObject(ctx, key); derr != nil {
			log.Printf("Error deleting object [%s]: %s\n", key, derr.Error())
		}
		return "", err
	}
	if err := d.
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"image_url": url, "image_path": key}).
		Error; err != nil {
		return "", err
	}

	old := product.ImagePath
	if old != "" && old != config.DEFAULT_IMAGE_PATH && old != key {
		if err := awslib.S3DeleteObject(ctx, old); err != nil {
			log.Printf("Error deleting old image [%s]: %s\n", old, err.Error())
		}
	}
	return url, nil
}

// DeleteProduct removes a product row. The image delete is cleanup only;
// subordinate reservations and pickups are orphaned on purpose (admin-only
// operation).
func DeleteProduct(ctx context.Context, productID string) error {
	d := db.GetDb()
	var product models.Product
	if err := d.Where(&models.Product{ID: productID}).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", types.ErrNotFound, productID)
		}
		return err
	}
	if product.ImagePath != "" && product.ImagePath != config.DEFAULT_IMAGE_PATH {
		if err := awslib.S3DeleteObject(ctx, product.ImagePath); err != nil {
			log.Printf("Error deleting image [%s]: %s\n", product.ImagePath, err.Error())
		}
	}
	return d.Delete(&models.Product{}, "id = ?", productID).Error
}

// CopyPollImageToProduct copies a poll's stored image to the product's key
// space and points the product at the copy.
func CopyPollImageToProduct(ctx context.Context, productID string, sourcePath string) (string, error) {
	if productID == "" || sourcePath == "" {
		return "", fmt.Errorf("%w: product and source path required", types.ErrInvalidArgument)
	}
	ext := path.Ext(sourcePath)
	if ext == "" {
		ext = ".png"
	}
	destPath := fmt.Sprintf("products/%s/cover%s", productID, ext)
	if err := awslib.S3CopyObject(ctx, sourcePath, destPath); err != nil {
		return "", err
	}
	url, err := awslib.S3ResolveURL(ctx, destPath)
	if err != nil {
		return "", err
	}
	d := db.GetDb()
	if err := d.
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"image_url": url, "image_path": destPath}).
		Error; err != nil {
		return "", err
	}
	return destPath, nil
}

// GetProductReservations lists a product's reservation rows for the admin
// view, largest first.
func GetProductReservations(productID string) ([]models.Reservation, error) {
	d := db.GetDb()
	var rows []models.Reservation
	err := d.
		Where("product_id = ?", productID).
		Order("quantity desc").
		Find(&rows).
		Error
	return rows, err
}

// GetReservationSum totals current reservations of a product.
func GetReservationSum(productID string) (int, error) {
	d := db.GetDb()
	var sum int
	err := d.
		Model(&models.Reservation{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).
		Error
	return sum, err
}

// GetUserReservation reads one user's reservation quantity, 0 when absent.
func GetUserReservation(productID string, uid string) (int, error) {
	d := db.GetDb()
	var row models.Reservation
	err := d.Where("product_id = ? AND uid = ?", productID, uid).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Quantity, nil
}

// GetProductPickups lists pickups still in the pickedUp state, newest first.
func GetProductPickups(productID string) ([]models.Pickup, error) {
	d := db.GetDb()
	var rows []models.Pickup
	err := d.
		Where("product_id = ? AND state = ?", productID, types.PICKUP_PICKEDUP).
		Order("picked_up_at desc").
		Find(&rows).
		Error
	return rows, err
}

// GetAllReservationsFlat returns every positive reservation across all
// products, the admin dashboard's flattened view.
func GetAllReservationsFlat() ([]models.Reservation, error) {
	d := db.GetDb()
	var rows []models.Reservation
	err := d.
		Where("quantity > 0").
		Order("updated_at desc").
		Find(&rows).
		Error
	return rows, err
}

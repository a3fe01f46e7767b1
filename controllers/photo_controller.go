package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kit-sp-y/sa-laundry-api/config"
	"github.com/kit-sp-y/sa-laundry-api/models"
	"github.com/kit-sp-y/sa-laundry-api/services"
	"github.com/kit-sp-y/sa-laundry-api/utils"
)

// UploadOrderPhoto handles POST /api/v1/orders/:id/photo - attaches the
// garment intake photo to an order (staff only). Re-uploading replaces the
// previous photo.
func UploadOrderPhoto(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if !user.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only staff can upload intake photos",
			},
		})
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "A photo file is required",
			},
		})
		return
	}

	photoService := services.GetPhotoService()
	if photoService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": "Photo storage is not configured",
			},
		})
		return
	}

	photoKey, err := photoService.UploadPhoto(fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPLOAD_FAILED",
				"message": "Failed to store the photo",
			},
		})
		return
	}

	// Copy the key by value: Update writes the new key back through the
	// struct's pointer field
	var oldKey string
	if order.PhotoS3Key != nil {
		oldKey = *order.PhotoS3Key
	}
	if err := db.Model(&order).Update("photo_s3_key", photoKey).Error; err != nil {
		// The photo is in storage but not referenced; clean it up
		if delErr := photoService.DeletePhoto(photoKey); delErr != nil {
			log.Printf("warning: failed to delete orphaned photo %s: %v", photoKey, delErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to attach photo to order",
			},
		})
		return
	}

	// Drop the replaced photo; losing this delete only leaks storage
	if oldKey != "" && oldKey != photoKey {
		if err := photoService.DeletePhoto(oldKey); err != nil {
			log.Printf("warning: failed to delete replaced photo %s: %v", oldKey, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"order_id":     order.ID,
			"photo_s3_key": photoKey,
		},
	})
}

// GetOrderPhoto handles GET /api/v1/orders/:id/photo - returns a presigned
// URL for the order's intake photo (staff or the order's owner)
func GetOrderPhoto(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	if !user.IsStaff() && order.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have permission to view this order",
			},
		})
		return
	}

	if order.PhotoS3Key == nil || *order.PhotoS3Key == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PHOTO_NOT_FOUND",
				"message": "This order has no intake photo",
			},
		})
		return
	}

	photoService := services.GetPhotoService()
	if photoService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_UNAVAILABLE",
				"message": "Photo storage is not configured",
			},
		})
		return
	}

	url, err := photoService.GetPhotoURL(*order.PhotoS3Key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "Failed to generate photo URL",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order_id":  order.ID,
			"photo_url": url,
		},
	})
}

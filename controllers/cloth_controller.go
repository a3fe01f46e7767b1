package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kit-sp-y/sa-laundry-api/config"
	"github.com/kit-sp-y/sa-laundry-api/models"
)

// ClothRequest represents the request body for creating or updating a
// cloth type
type ClothRequest struct {
	Name     string   `json:"name" binding:"required"`
	Price    *float64 `json:"price" binding:"required,gte=0"`
	Category string   `json:"category" binding:"required"`
}

// ListCloths handles GET /api/v1/cloths/ - returns the cloth type catalog
func ListCloths(c *gin.Context) {
	db := config.GetDB()

	var cloths []models.ClothType
	if err := db.Order("category ASC, id ASC").Find(&cloths).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load cloth catalog",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cloths,
	})
}

// CreateCloth handles POST /api/v1/cloths/ - adds a cloth type (admin only)
func CreateCloth(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only admins can manage the cloth catalog",
			},
		})
		return
	}

	var req ClothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	if req.Category != models.CategoryWashDry && req.Category != models.CategoryDryClean {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_CATEGORY",
				"message": "Category must be \"Wash Dry\" or \"Dry Clean\"",
			},
		})
		return
	}

	cloth := models.ClothType{
		Name:     req.Name,
		Price:    *req.Price,
		Category: req.Category,
	}

	db := config.GetDB()
	if err := db.Create(&cloth).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create cloth type",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    cloth,
	})
}

// UpdateCloth handles PUT /api/v1/cloths/:id - updates a cloth type (admin only)
func UpdateCloth(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only admins can manage the cloth catalog",
			},
		})
		return
	}

	db := config.GetDB()
	var cloth models.ClothType
	if err := db.First(&cloth, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLOTH_NOT_FOUND",
				"message": "Cloth type not found",
			},
		})
		return
	}

	var req ClothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	if req.Category != models.CategoryWashDry && req.Category != models.CategoryDryClean {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_CATEGORY",
				"message": "Category must be \"Wash Dry\" or \"Dry Clean\"",
			},
		})
		return
	}

	updates := map[string]interface{}{
		"name":     req.Name,
		"price":    *req.Price,
		"category": req.Category,
	}
	if err := db.Model(&cloth).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update cloth type",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cloth,
	})
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kit-sp-y/sa-laundry-api/config"
	"github.com/kit-sp-y/sa-laundry-api/models"
)

// UpdateCouponRequest represents the request body for updating a coupon
// definition. The name is fixed per service family; only the price moves.
type UpdateCouponRequest struct {
	Price *float64 `json:"cp_price" binding:"required,gte=0"`
}

// ListCoupons handles GET /api/v1/coupons - returns all coupon definitions
func ListCoupons(c *gin.Context) {
	db := config.GetDB()

	var coupons []models.Coupon
	if err := db.Order("id ASC").Find(&coupons).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load coupons",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    coupons,
	})
}

// GetCoupon handles GET /api/v1/coupons/:id - returns one coupon definition
func GetCoupon(c *gin.Context) {
	db := config.GetDB()

	var coupon models.Coupon
	if err := db.First(&coupon, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "COUPON_NOT_FOUND",
				"message": "Coupon not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    coupon,
	})
}

// UpdateCoupon handles PUT /api/v1/coupons/:id - updates a coupon price (admin only)
func UpdateCoupon(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only admins can manage coupons",
			},
		})
		return
	}

	db := config.GetDB()
	var coupon models.Coupon
	if err := db.First(&coupon, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "COUPON_NOT_FOUND",
				"message": "Coupon not found",
			},
		})
		return
	}

	var req UpdateCouponRequest
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

	if err := db.Model(&coupon).Update("cp_price", *req.Price).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update coupon",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    coupon,
	})
}

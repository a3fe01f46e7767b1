package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kit-sp-y/sa-laundry-api/config"
	"github.com/kit-sp-y/sa-laundry-api/models"
	"github.com/kit-sp-y/sa-laundry-api/services"
)

// IssueUserCouponRequest represents the request body for issuing a coupon
// balance to a customer. Points and validity are fixed by the shop and not
// part of the request.
type IssueUserCouponRequest struct {
	UserID   uint `json:"user_id" binding:"required"`
	CouponID uint `json:"coupon_id" binding:"required"`
}

// UpdateUserCouponRequest represents the request body for adjusting a
// coupon balance
type UpdateUserCouponRequest struct {
	PointLeft *int `json:"point_left" binding:"required,gte=0"`
}

// ListUserCoupons handles GET /api/v1/user_coupons/user/:id - returns a
// customer's coupon balances. Staff can read any customer; customers only
// their own.
func ListUserCoupons(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "User ID must be numeric",
			},
		})
		return
	}

	if !user.IsStaff() && user.ID != uint(targetID) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You can only view your own coupons",
			},
		})
		return
	}

	db := config.GetDB()
	var coupons []models.UserCoupon
	err = db.Where("user_id = ?", uint(targetID)).
		Preload("Coupon").
		Order("expire_date ASC, id ASC").
		Find(&coupons).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load user coupons",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    coupons,
	})
}

// CreateUserCoupon handles POST /api/v1/user_coupons/ - issues a fresh
// coupon balance (staff only). Every issued coupon carries 50 points and a
// one-month validity window regardless of what the client sends.
func CreateUserCoupon(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if !user.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only staff can issue coupons",
			},
		})
		return
	}

	var req IssueUserCouponRequest
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

	db := config.GetDB()

	var customer models.User
	if err := db.First(&customer, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "Customer not found",
			},
		})
		return
	}

	couponService := services.NewCouponService(db)
	userCoupon, err := couponService.Issue(req.UserID, req.CouponID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "COUPON_ISSUE_FAILED",
				"message": "Failed to issue coupon",
				"details": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    userCoupon,
	})
}

// UpdateUserCoupon handles PUT /api/v1/user_coupons/:id - adjusts a coupon
// balance (staff only). Kept for the existing front-end; checkout decrements
// balances itself inside its own transaction.
func UpdateUserCoupon(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if !user.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only staff can update coupon balances",
			},
		})
		return
	}

	db := config.GetDB()
	var userCoupon models.UserCoupon
	if err := db.Preload("Coupon").First(&userCoupon, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_COUPON_NOT_FOUND",
				"message": "User coupon not found",
			},
		})
		return
	}

	var req UpdateUserCouponRequest
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

	if err := db.Model(&userCoupon).Update("point_left", *req.PointLeft).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update coupon balance",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    userCoupon,
	})
}

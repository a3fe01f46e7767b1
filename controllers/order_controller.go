package controllers

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kit-sp-y/sa-laundry-api/config"
	"github.com/kit-sp-y/sa-laundry-api/models"
	"github.com/kit-sp-y/sa-laundry-api/services"
	"gorm.io/gorm"
)

// CheckoutItemRequest is one cloth line of a checkout payload
type CheckoutItemRequest struct {
	ClothID  uint `json:"cloth_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,gt=0"`
}

// CheckoutRequest represents the request body for creating an order. The
// whole checkout travels as one payload; totals are computed server-side.
type CheckoutRequest struct {
	UserID        uint                  `json:"user_id" binding:"required"`
	ServiceType   string                `json:"service_type" binding:"required"`
	Items         []CheckoutItemRequest `json:"items" binding:"required,min=1,dive"`
	PaymentMethod string                `json:"payment_method" binding:"required"`
	// IssueCoupon authorizes issuing a fresh coupon balance when the
	// customer has none that can settle the order (the staff confirmed
	// the purchase in the coupon dialog).
	IssueCoupon bool `json:"issue_coupon"`
}

// UpdateOrderRequest represents the request body for moving an order
// through its lifecycle
type UpdateOrderRequest struct {
	OrderStatus string     `json:"order_status" binding:"required"`
	PickupDate  *time.Time `json:"pickup_date"`
	Note        string     `json:"note"`
}

// CreateClothListRequest represents the request body for the step-wise
// line-item endpoint the existing front-end uses
type CreateClothListRequest struct {
	OrderID  uint `json:"order_id" binding:"required"`
	ClothID  uint `json:"cloth_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,gt=0"`
}

// Checkout handles POST /api/v1/orders/ - creates an order with its line
// items and, for coupon payment, the balance decrement, all in one request
// (staff only)
func Checkout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if !user.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only staff can create orders",
			},
		})
		return
	}

	var req CheckoutRequest
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

	// The order belongs to a customer account
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

	if !models.IsValidServiceType(req.ServiceType) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SERVICE_TYPE",
				"message": "Unknown service type",
			},
		})
		return
	}

	// Build the draft over the full catalog so category membership is
	// checked against reference data, not client claims
	var catalog []models.ClothType
	if err := db.Find(&catalog).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load cloth catalog",
			},
		})
		return
	}

	draft := services.NewDraft(catalog)
	if err := draft.ChangeServiceType(req.ServiceType); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SERVICE_TYPE",
				"message": "Unknown service type",
			},
		})
		return
	}

	for _, item := range req.Items {
		if err := draft.SetQuantity(item.ClothID, item.Quantity); err != nil {
			code := "INVALID_ITEM"
			if errors.Is(err, services.ErrClothWrongCategory) {
				code = "CLOTH_WRONG_CATEGORY"
			}
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    code,
					"message": err.Error(),
				},
			})
			return
		}
	}

	checkoutService := services.NewCheckoutService(db)
	checkout, err := checkoutService.Begin(draft, customer.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	switch req.PaymentMethod {
	case models.PaymentCash:
		err = checkoutService.ChooseCash(checkout)
	case models.PaymentCoupon:
		err = checkoutService.ChooseCoupon(checkout, req.IssueCoupon)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_PAYMENT_METHOD",
				"message": "Payment method must be \"Cash\" or \"Coupon\"",
			},
		})
		return
	}

	if err != nil {
		var couponErr *services.CouponError
		switch {
		case errors.Is(err, services.ErrMethodNotAllowed):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PAYMENT_METHOD_NOT_ALLOWED",
					"message": "This payment method is not allowed for the selected service type",
				},
			})
		case errors.As(err, &couponErr):
			code := "COUPON_ABSENT"
			if couponErr.Status == services.CouponInsufficient {
				code = "COUPON_INSUFFICIENT"
			}
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    code,
					"message": couponErr.Error(),
					"details": gin.H{
						"points_left":     couponErr.Have,
						"points_required": couponErr.Need,
					},
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to check coupon balance",
				},
			})
		}
		return
	}

	order, err := checkoutService.Submit(checkout)
	if err != nil {
		if errors.Is(err, services.ErrCouponDrained) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "COUPON_DRAINED",
					"message": "Coupon balance was spent by another order, please retry",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create order",
			},
		})
		return
	}

	response := gin.H{
		"success": true,
		"data":    order,
	}

	// For coupon payments report the remaining balance, as the counter
	// receipt shows it
	if order.PaymentMethod == models.PaymentCoupon && checkout.Coupon() != nil {
		var coupon models.UserCoupon
		if err := db.Preload("Coupon").First(&coupon, checkout.Coupon().ID).Error; err == nil {
			response["coupon"] = gin.H{
				"id":          coupon.ID,
				"points_used": order.TotalCloth,
				"point_left":  coupon.PointLeft,
			}
		}
	}

	c.JSON(http.StatusCreated, response)
}

// ListOrders handles GET /api/v1/orders - staff see every order with
// optional status and user_id filters; customers see their own
func ListOrders(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	query := db.Preload("User").Preload("ClothLists").Preload("ClothLists.Cloth")

	if user.IsStaff() {
		if status := c.Query("status"); status != "" {
			query = query.Where("order_status = ?", status)
		}
		if userID := c.Query("user_id"); userID != "" {
			query = query.Where("user_id = ?", userID)
		}
	} else {
		query = query.Where("user_id = ?", user.ID)
	}

	var orders []models.Order
	if err := query.Order("order_date DESC").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/v1/orders/:id - staff or the order's owner
func GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	var order models.Order
	err := db.Preload("User").Preload("ClothLists").Preload("ClothLists.Cloth").
		First(&order, c.Param("id")).Error
	if err != nil {
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

	// Attach a presigned photo URL when an intake photo exists
	if order.PhotoS3Key != nil {
		if photoService := services.GetPhotoService(); photoService != nil {
			if url, err := photoService.GetPhotoURL(*order.PhotoS3Key); err == nil && url != "" {
				order.PhotoURL = &url
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// UpdateOrder handles PUT /api/v1/orders/:id - moves an order through its
// lifecycle (staff only). The lifecycle only moves forward; each change is
// recorded as a status event.
func UpdateOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if !user.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only staff can update orders",
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

	var req UpdateOrderRequest
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

	if !models.IsValidStatus(req.OrderStatus) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STATUS",
				"message": "Unknown order status",
			},
		})
		return
	}

	if !models.CanTransition(order.OrderStatus, req.OrderStatus) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TRANSITION",
				"message": "Orders cannot move backwards through the lifecycle",
			},
		})
		return
	}

	statusChanged := req.OrderStatus != order.OrderStatus

	err := db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"order_status": req.OrderStatus}
		if req.PickupDate != nil {
			updates["pickup_date"] = req.PickupDate
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		if statusChanged {
			event := models.StatusEvent{
				OrderID:     order.ID,
				Status:      req.OrderStatus,
				ChangedByID: user.ID,
				Note:        req.Note,
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update order",
			},
		})
		return
	}

	if err := db.Preload("User").Preload("ClothLists").Preload("ClothLists.Cloth").First(&order, order.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load updated order",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// GetOrderHistory handles GET /api/v1/orders/:id/history - returns the
// status trail of an order (staff or the order's owner)
func GetOrderHistory(c *gin.Context) {
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

	var events []models.StatusEvent
	err := db.Where("order_id = ?", order.ID).
		Preload("ChangedBy").
		Order("created_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load order history",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    events,
	})
}

// CreateClothList handles POST /api/v1/cloth_lists/ - appends one line
// item to an existing order (staff only). Kept for the existing front-end;
// the checkout endpoint writes its line items itself.
func CreateClothList(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if !user.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Only staff can add line items",
			},
		})
		return
	}

	var req CreateClothListRequest
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

	var order models.Order
	if err := db.First(&order, req.OrderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	var cloth models.ClothType
	if err := db.First(&cloth, req.ClothID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLOTH_NOT_FOUND",
				"message": "Cloth type not found",
			},
		})
		return
	}

	list := models.ClothList{
		OrderID:      order.ID,
		ClothID:      cloth.ID,
		Quantity:     req.Quantity,
		SubTotalCost: int(math.Round(float64(req.Quantity) * cloth.Price)),
	}

	if err := db.Create(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create line item",
			},
		})
		return
	}

	if err := db.Preload("Cloth").First(&list, list.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load created line item",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    list,
	})
}

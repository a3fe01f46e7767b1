package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kit-sp-y/sa-laundry-api/config"
	"github.com/kit-sp-y/sa-laundry-api/models"
	"github.com/kit-sp-y/sa-laundry-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type orderFixture struct {
	db       *gorm.DB
	staff    models.User
	customer models.User
	cloths   map[string]models.ClothType
	coupons  map[string]models.Coupon
}

func setupOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	db := testutil.OpenTestDB(t)
	config.SetDB(db)

	f := &orderFixture{
		db:      db,
		coupons: testutil.SeedCouponDefinitions(t, db),
		cloths:  map[string]models.ClothType{},
	}

	f.staff = models.User{Auth0ID: "auth0|staff", Name: "Counter Staff", Role: models.RoleCashier}
	assert.NoError(t, db.Create(&f.staff).Error)

	f.customer = models.User{Auth0ID: "auth0|customer", Name: "Walk-in Customer", Role: models.RoleCustomer}
	assert.NoError(t, db.Create(&f.customer).Error)

	for _, cloth := range []models.ClothType{
		{Name: "Shirt", Price: 20, Category: models.CategoryWashDry},
		{Name: "Pants", Price: 30, Category: models.CategoryWashDry},
		{Name: "Suit", Price: 50, Category: models.CategoryDryClean},
	} {
		assert.NoError(t, db.Create(&cloth).Error)
		f.cloths[cloth.Name] = cloth
	}

	return f
}

// orderRouter mounts the order routes behind a mocked auth middleware
// impersonating the given account.
func orderRouter(auth0ID string) *gin.Engine {
	router := testutil.CreateTestRouter()
	auth := testutil.MockAuthMiddleware(auth0ID, "", "test-token")

	v1 := router.Group("/api/v1")
	v1.POST("/orders/", auth, Checkout)
	v1.GET("/orders", auth, ListOrders)
	v1.GET("/orders/:id", auth, GetOrder)
	v1.PUT("/orders/:id", auth, UpdateOrder)
	v1.GET("/orders/:id/history", auth, GetOrderHistory)
	v1.POST("/cloth_lists/", auth, CreateClothList)
	return router
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return body
}

func errorCode(body map[string]interface{}) string {
	errObj, _ := body["error"].(map[string]interface{})
	code, _ := errObj["code"].(string)
	return code
}

func checkoutPayload(f *orderFixture, serviceType, method string, items ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"user_id":        f.customer.ID,
		"service_type":   serviceType,
		"items":          items,
		"payment_method": method,
	}
}

func TestCheckoutCash(t *testing.T) {
	f := setupOrderFixture(t)
	router := orderRouter(f.staff.Auth0ID)

	w := performJSON(router, "POST", "/api/v1/orders/", checkoutPayload(
		f, models.ServiceDryClean, models.PaymentCash,
		map[string]interface{}{"cloth_id": f.cloths["Suit"].ID, "quantity": 3},
	))

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, models.ServiceDryClean, data["service_type"])
	assert.Equal(t, models.StatusPending, data["order_status"])
	assert.Equal(t, models.PaymentCash, data["payment_method"])
	assert.Equal(t, float64(3), data["total_cloth"])
	assert.Equal(t, float64(150), data["total_cost"])
	assert.Nil(t, body["coupon"])

	lists := data["cloth_lists"].([]interface{})
	assert.Len(t, lists, 1)
	line := lists[0].(map[string]interface{})
	assert.Equal(t, float64(150), line["sub_total_cost"])
}

func TestCheckoutCoupon(t *testing.T) {
	f := setupOrderFixture(t)
	router := orderRouter(f.staff.Auth0ID)

	now := time.Now()
	coupon := models.UserCoupon{
		PointLeft:  5,
		StartDate:  now,
		ExpireDate: now.AddDate(0, 1, 0),
		UserID:     f.customer.ID,
		CouponID:   f.coupons[models.CouponIron].ID,
	}
	assert.NoError(t, f.db.Create(&coupon).Error)

	w := performJSON(router, "POST", "/api/v1/orders/", checkoutPayload(
		f, models.ServiceIron, models.PaymentCoupon,
		map[string]interface{}{"cloth_id": f.cloths["Shirt"].ID, "quantity": 5},
	))

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, models.PaymentCoupon, data["payment_method"])
	assert.Equal(t, float64(100), data["total_cost"])

	// Receipt shows the settled balance: 5 points spent, 0 left
	receipt := body["coupon"].(map[string]interface{})
	assert.Equal(t, float64(coupon.ID), receipt["id"])
	assert.Equal(t, float64(5), receipt["points_used"])
	assert.Equal(t, float64(0), receipt["point_left"])
}

func TestCheckoutCouponAbsent(t *testing.T) {
	f := setupOrderFixture(t)
	router := orderRouter(f.staff.Auth0ID)

	w := performJSON(router, "POST", "/api/v1/orders/", checkoutPayload(
		f, models.ServiceIron, models.PaymentCoupon,
		map[string]interface{}{"cloth_id": f.cloths["Shirt"].ID, "quantity": 2},
	))

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "COUPON_ABSENT", errorCode(body))

	// Nothing was written
	var count int64
	f.db.Model(&models.Order{}).Count(&count)
	assert.Zero(t, count)
}

func TestCheckoutCouponInsufficient(t *testing.T) {
	f := setupOrderFixture(t)
	router := orderRouter(f.staff.Auth0ID)

	now := time.Now()
	assert.NoError(t, f.db.Create(&models.UserCoupon{
		PointLeft:  2,
		StartDate:  now,
		ExpireDate: now.AddDate(0, 1, 0),
		UserID:     f.customer.ID,
		CouponID:   f.coupons[models.CouponIron].ID,
	}).Error)

	w := performJSON(router, "POST", "/api/v1/orders/", checkoutPayload(
		f, models.ServiceIron, models.PaymentCoupon,
		map[string]interface{}{"cloth_id": f.cloths["Shirt"].ID, "quantity": 5},
	))

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "COUPON_INSUFFICIENT", errorCode(body))

	details := body["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, float64(2), details["points_left"])
	assert.Equal(t, float64(5), details["points_required"])
}

func TestCheckoutCouponWithIssuance(t *testing.T) {
	f := setupOrderFixture(t)
	router := orderRouter(f.staff.Auth0ID)

	payload := checkoutPayload(
		f, models.ServiceIron, models.PaymentCoupon,
		map[string]interface{}{"cloth_id": f.cloths["Shirt"].ID, "quantity": 5},
	)
	payload["issue_coupon"] = true

	w := performJSON(router, "POST", "/api/v1/orders/", payload)

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)

	// A fresh 50-point balance was issued and immediately settled
	receipt := body["coupon"].(map[string]interface{})
	assert.Equal(t, float64(5), receipt["points_used"])
	assert.Equal(t, float64(45), receipt["point_left"])
}

func TestCheckoutPaymentMethodGating(t *testing.T) {
	f := setupOrderFixture(t)
	router := orderRouter(f.staff.Auth0ID)

	tests := []struct {
		name        string
		serviceType string
		clothName   string
		method      string
		wantCode    string
	}{
		{"coupon for dry cleaning", models.ServiceDryClean, "Suit", models.PaymentCoupon, "PAYMENT_METHOD_NOT_ALLOWED"},
		{"cash for ironing", models.ServiceIron, "Shirt", models.PaymentCash, "PAYMENT_METHOD_NOT_ALLOWED"},
		{"cash for hand wash", models.ServiceHandWash, "Shirt", models.PaymentCash, "PAYMENT_METHOD_NOT_ALLOWED"},
		{"unknown method", models.ServiceDryClean, "Suit", "Credit", "INVALID_PAYMENT_METHOD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(router, "POST", "/api/v1/orders/", checkoutPayload(
				f, tt.serviceType, tt.method,
				map[string]interface{}{"cloth_id": f.cloths[tt.clothName].ID, "quantity": 1},
			))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(decodeBody(t, w)))
		})
	}
}

func TestCheckoutValidation(t *testing.T) {
	f := setupOrderFixture(t)
	router := orderRouter(f.staff.Auth0ID)

	t.Run("customer cannot create orders", func(t *testing.T) {
		customerRouter := orderRouter(f.customer.Auth0ID)
		w := performJSON(customerRouter, "POST", "/api/v1/orders/", checkoutPayload(
			f, models.ServiceDryClean, models.PaymentCash,
			map[string]interface{}{"cloth_id": f.cloths["Suit"].ID, "quantity": 1},
		))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", errorCode(decodeBody(t, w)))
	})

	t.Run("unknown customer", func(t *testing.T) {
		payload := checkoutPayload(
			f, models.ServiceDryClean, models.PaymentCash,
			map[string]interface{}{"cloth_id": f.cloths["Suit"].ID, "quantity": 1},
		)
		payload["user_id"] = 9999
		w := performJSON(router, "POST", "/api/v1/orders/", payload)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "USER_NOT_FOUND", errorCode(decodeBody(t, w)))
	})

	t.Run("unknown service type", func(t *testing.T) {
		w := performJSON(router, "POST", "/api/v1/orders/", checkoutPayload(
			f, "express", models.PaymentCash,
			map[string]interface{}{"cloth_id": f.cloths["Suit"].ID, "quantity": 1},
		))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_SERVICE_TYPE", errorCode(decodeBody(t, w)))
	})

	t.Run("cloth from the wrong category", func(t *testing.T) {
		w := performJSON(router, "POST", "/api/v1/orders/", checkoutPayload(
			f, models.ServiceDryClean, models.PaymentCash,
			map[string]interface{}{"cloth_id": f.cloths["Shirt"].ID, "quantity": 1},
		))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "CLOTH_WRONG_CATEGORY", errorCode(decodeBody(t, w)))
	})

	t.Run("empty item list", func(t *testing.T) {
		w := performJSON(router, "POST", "/api/v1/orders/", map[string]interface{}{
			"user_id":        f.customer.ID,
			"service_type":   models.ServiceDryClean,
			"items":          []interface{}{},
			"payment_method": models.PaymentCash,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(decodeBody(t, w)))
	})
}

func seedOrder(t *testing.T, f *orderFixture, status string) models.Order {
	t.Helper()

	order := models.Order{
		ServiceType:   models.ServiceDryClean,
		OrderStatus:   status,
		TotalCloth:    1,
		TotalCost:     50,
		PaymentMethod: models.PaymentCash,
		OrderDate:     time.Now(),
		UserID:        f.customer.ID,
	}
	assert.NoError(t, f.db.Create(&order).Error)
	assert.NoError(t, f.db.Create(&models.ClothList{
		OrderID:      order.ID,
		ClothID:      f.cloths["Suit"].ID,
		Quantity:     1,
		SubTotalCost: 50,
	}).Error)
	return order
}

func TestListOrders(t *testing.T) {
	f := setupOrderFixture(t)

	other := models.User{Auth0ID: "auth0|other", Name: "Other Customer", Role: models.RoleCustomer}
	assert.NoError(t, f.db.Create(&other).Error)

	seedOrder(t, f, models.StatusPending)
	completed := seedOrder(t, f, models.StatusDone)

	otherOrder := models.Order{
		ServiceType:   models.ServiceDryClean,
		OrderStatus:   models.StatusPending,
		TotalCloth:    1,
		TotalCost:     50,
		PaymentMethod: models.PaymentCash,
		OrderDate:     time.Now(),
		UserID:        other.ID,
	}
	assert.NoError(t, f.db.Create(&otherOrder).Error)

	t.Run("staff see every order", func(t *testing.T) {
		w := performJSON(orderRouter(f.staff.Auth0ID), "GET", "/api/v1/orders", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].([]interface{})
		assert.Len(t, data, 3)
	})

	t.Run("staff filter by status", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/orders?status=%s", models.StatusDone)
		w := performJSON(orderRouter(f.staff.Auth0ID), "GET", path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].([]interface{})
		assert.Len(t, data, 1)
		assert.Equal(t, float64(completed.ID), data[0].(map[string]interface{})["id"])
	})

	t.Run("customers see only their own", func(t *testing.T) {
		w := performJSON(orderRouter(f.customer.Auth0ID), "GET", "/api/v1/orders", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].([]interface{})
		assert.Len(t, data, 2)
	})
}

func TestGetOrder(t *testing.T) {
	f := setupOrderFixture(t)
	order := seedOrder(t, f, models.StatusPending)

	other := models.User{Auth0ID: "auth0|other", Name: "Other Customer", Role: models.RoleCustomer}
	assert.NoError(t, f.db.Create(&other).Error)

	t.Run("owner can view", func(t *testing.T) {
		w := performJSON(orderRouter(f.customer.Auth0ID), "GET", fmt.Sprintf("/api/v1/orders/%d", order.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]interface{})
		assert.Equal(t, float64(order.ID), data["id"])
	})

	t.Run("other customers cannot", func(t *testing.T) {
		w := performJSON(orderRouter(other.Auth0ID), "GET", fmt.Sprintf("/api/v1/orders/%d", order.ID), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing order", func(t *testing.T) {
		w := performJSON(orderRouter(f.staff.Auth0ID), "GET", "/api/v1/orders/9999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ORDER_NOT_FOUND", errorCode(decodeBody(t, w)))
	})
}

func TestUpdateOrder(t *testing.T) {
	t.Run("forward transition records a status event", func(t *testing.T) {
		f := setupOrderFixture(t)
		order := seedOrder(t, f, models.StatusPending)

		w := performJSON(orderRouter(f.staff.Auth0ID), "PUT",
			fmt.Sprintf("/api/v1/orders/%d", order.ID),
			map[string]interface{}{"order_status": models.StatusWashing, "note": "machine 2"})

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]interface{})
		assert.Equal(t, models.StatusWashing, data["order_status"])

		var events []models.StatusEvent
		assert.NoError(t, f.db.Where("order_id = ?", order.ID).Find(&events).Error)
		assert.Len(t, events, 1)
		assert.Equal(t, models.StatusWashing, events[0].Status)
		assert.Equal(t, f.staff.ID, events[0].ChangedByID)
		assert.Equal(t, "machine 2", events[0].Note)
	})

	t.Run("skipping stages forward is allowed", func(t *testing.T) {
		f := setupOrderFixture(t)
		order := seedOrder(t, f, models.StatusPending)

		w := performJSON(orderRouter(f.staff.Auth0ID), "PUT",
			fmt.Sprintf("/api/v1/orders/%d", order.ID),
			map[string]interface{}{"order_status": models.StatusDone})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("backward transition is rejected", func(t *testing.T) {
		f := setupOrderFixture(t)
		order := seedOrder(t, f, models.StatusIroning)

		w := performJSON(orderRouter(f.staff.Auth0ID), "PUT",
			fmt.Sprintf("/api/v1/orders/%d", order.ID),
			map[string]interface{}{"order_status": models.StatusWashing})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INVALID_TRANSITION", errorCode(decodeBody(t, w)))

		var unchanged models.Order
		assert.NoError(t, f.db.First(&unchanged, order.ID).Error)
		assert.Equal(t, models.StatusIroning, unchanged.OrderStatus)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		f := setupOrderFixture(t)
		order := seedOrder(t, f, models.StatusPending)

		w := performJSON(orderRouter(f.staff.Auth0ID), "PUT",
			fmt.Sprintf("/api/v1/orders/%d", order.ID),
			map[string]interface{}{"order_status": "lost"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_STATUS", errorCode(decodeBody(t, w)))
	})

	t.Run("same status sets pickup date without an event", func(t *testing.T) {
		f := setupOrderFixture(t)
		order := seedOrder(t, f, models.StatusDone)

		pickup := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
		w := performJSON(orderRouter(f.staff.Auth0ID), "PUT",
			fmt.Sprintf("/api/v1/orders/%d", order.ID),
			map[string]interface{}{"order_status": models.StatusDone, "pickup_date": pickup})

		assert.Equal(t, http.StatusOK, w.Code)

		var updated models.Order
		assert.NoError(t, f.db.First(&updated, order.ID).Error)
		assert.NotNil(t, updated.PickupDate)

		var count int64
		f.db.Model(&models.StatusEvent{}).Where("order_id = ?", order.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("customers cannot update", func(t *testing.T) {
		f := setupOrderFixture(t)
		order := seedOrder(t, f, models.StatusPending)

		w := performJSON(orderRouter(f.customer.Auth0ID), "PUT",
			fmt.Sprintf("/api/v1/orders/%d", order.ID),
			map[string]interface{}{"order_status": models.StatusWashing})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestGetOrderHistory(t *testing.T) {
	f := setupOrderFixture(t)
	order := seedOrder(t, f, models.StatusPending)
	router := orderRouter(f.staff.Auth0ID)

	for _, status := range []string{models.StatusWashing, models.StatusDrying} {
		w := performJSON(router, "PUT",
			fmt.Sprintf("/api/v1/orders/%d", order.ID),
			map[string]interface{}{"order_status": status})
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := performJSON(orderRouter(f.customer.Auth0ID), "GET",
		fmt.Sprintf("/api/v1/orders/%d/history", order.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].([]interface{})
	assert.Len(t, data, 2)
	assert.Equal(t, models.StatusWashing, data[0].(map[string]interface{})["status"])
	assert.Equal(t, models.StatusDrying, data[1].(map[string]interface{})["status"])
}

func TestCreateClothList(t *testing.T) {
	f := setupOrderFixture(t)
	order := seedOrder(t, f, models.StatusPending)
	router := orderRouter(f.staff.Auth0ID)

	t.Run("computes the line subtotal server-side", func(t *testing.T) {
		w := performJSON(router, "POST", "/api/v1/cloth_lists/", map[string]interface{}{
			"order_id": order.ID,
			"cloth_id": f.cloths["Pants"].ID,
			"quantity": 4,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		data := decodeBody(t, w)["data"].(map[string]interface{})
		assert.Equal(t, float64(120), data["sub_total_cost"])
	})

	t.Run("unknown order", func(t *testing.T) {
		w := performJSON(router, "POST", "/api/v1/cloth_lists/", map[string]interface{}{
			"order_id": 9999,
			"cloth_id": f.cloths["Pants"].ID,
			"quantity": 1,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ORDER_NOT_FOUND", errorCode(decodeBody(t, w)))
	})

	t.Run("unknown cloth", func(t *testing.T) {
		w := performJSON(router, "POST", "/api/v1/cloth_lists/", map[string]interface{}{
			"order_id": order.ID,
			"cloth_id": 9999,
			"quantity": 1,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "CLOTH_NOT_FOUND", errorCode(decodeBody(t, w)))
	})
}

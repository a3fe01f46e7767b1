package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon definition names. Each name unlocks one family of services.
const (
	CouponMachine  = "machine"  // ซักอบรีด
	CouponIron     = "iron"     // รีด
	CouponHandwash = "handwash" // ซักมือ
)

// Coupon is a sellable coupon definition (reference data). The name is
// fixed per service family; only the price is editable.
type Coupon struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"column:cp_name;uniqueIndex;not null" json:"cp_name"`
	Price     float64        `gorm:"column:cp_price;not null;check:cp_price >= 0" json:"cp_price"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Coupon model
func (Coupon) TableName() string {
	return "coupons"
}

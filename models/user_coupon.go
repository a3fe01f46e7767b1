package models

import (
	"time"

	"gorm.io/gorm"
)

// IssuedCouponPoints is the balance every newly issued coupon starts with.
// One point pays for one garment.
const IssuedCouponPoints = 50

// IssuedCouponValidityMonths is how long an issued coupon stays usable.
const IssuedCouponValidityMonths = 1

// UserCoupon is a customer's purchased coupon balance
type UserCoupon struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	PointLeft  int            `gorm:"not null;check:point_left >= 0" json:"point_left"`
	StartDate  time.Time      `gorm:"not null" json:"start_date"`
	ExpireDate time.Time      `gorm:"not null" json:"expire_date"`
	UserID     uint           `gorm:"not null;index" json:"user_id"` // foreign key to users table
	User       User           `gorm:"foreignKey:UserID" json:"users"`
	CouponID   uint           `gorm:"not null;index" json:"coupon_id"` // foreign key to coupons table
	Coupon     Coupon         `gorm:"foreignKey:CouponID" json:"coupons"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the UserCoupon model
func (UserCoupon) TableName() string {
	return "user_coupons"
}

// Usable reports whether the coupon can still pay for garments at the
// given time: not expired and with points remaining.
func (uc *UserCoupon) Usable(now time.Time) bool {
	return uc.ExpireDate.After(now) && uc.PointLeft > 0
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Service types offered at the counter. The service type decides which
// cloth category is selectable and which payment methods are permitted.
const (
	ServiceWashDryIron = "ซักอบรีด" // machine wash, dry and iron
	ServiceHandWash    = "ซักมือ"   // hand wash
	ServiceIron        = "รีด"      // iron only
	ServiceDryClean    = "ซักแห้ง"  // dry clean
)

// Order statuses, in lifecycle order.
const (
	StatusPending = "รอดำเนินการ"       // pending
	StatusWashing = "กำลังซัก"          // washing
	StatusDrying  = "กำลังอบ"           // drying
	StatusIroning = "กำลังรีด"          // ironing
	StatusDone    = "ดำเนินการเสร็จสิ้น" // done
)

// Payment methods.
const (
	PaymentCash   = "Cash"
	PaymentCoupon = "Coupon"
)

// ServiceTypes lists every service type the shop offers.
var ServiceTypes = []string{ServiceWashDryIron, ServiceHandWash, ServiceIron, ServiceDryClean}

// statusRank orders the lifecycle so transitions can be validated as
// forward-only.
var statusRank = map[string]int{
	StatusPending: 0,
	StatusWashing: 1,
	StatusDrying:  2,
	StatusIroning: 3,
	StatusDone:    4,
}

// IsValidServiceType reports whether s is a known service type.
func IsValidServiceType(s string) bool {
	for _, st := range ServiceTypes {
		if st == s {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether s is a known order status.
func IsValidStatus(s string) bool {
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an order may move from one status to
// another. The lifecycle only moves forward; staying on the same status is
// allowed (the detail page re-saves without changing it).
func CanTransition(from, to string) bool {
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	return tr >= fr
}

// ServiceCategory maps a service type to the cloth category it accepts:
// dry cleaning takes "Dry Clean" garments, every other service takes
// "Wash Dry" garments.
func ServiceCategory(serviceType string) string {
	if serviceType == ServiceDryClean {
		return CategoryDryClean
	}
	return CategoryWashDry
}

// Order is a submitted laundry order
type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ServiceType   string         `gorm:"not null" json:"service_type"`
	OrderStatus   string         `gorm:"not null;default:'รอดำเนินการ'" json:"order_status"`
	TotalCloth    int            `gorm:"not null;check:total_cloth > 0" json:"total_cloth"`
	TotalCost     int            `gorm:"not null;check:total_cost >= 0" json:"total_cost"` // rounded to whole baht
	PaymentMethod string         `gorm:"not null" json:"payment_method"`                   // "Cash" or "Coupon"
	OrderDate     time.Time      `json:"order_date"`
	PickupDate    *time.Time     `json:"pickup_date"`                      // set when the customer collects
	PhotoS3Key    *string        `json:"photo_s3_key"`                     // nullable, S3 key for the intake photo
	PhotoURL      *string        `gorm:"-" json:"photo_url,omitempty"`     // computed, presigned URL for the photo
	UserID        uint           `gorm:"not null;index" json:"user_id"`    // foreign key to users table
	User          User           `gorm:"foreignKey:UserID" json:"user"`
	ClothLists    []ClothList    `gorm:"foreignKey:OrderID" json:"cloth_lists,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

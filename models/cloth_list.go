package models

import (
	"time"

	"gorm.io/gorm"
)

// ClothList is one line item of an order: a cloth type with the counted
// quantity and its rounded share of the order total
type ClothList struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	OrderID      uint           `gorm:"not null;index" json:"order_id"` // foreign key to orders table
	Order        Order          `gorm:"foreignKey:OrderID" json:"-"`    // don't include full order in JSON
	ClothID      uint           `gorm:"not null;index" json:"cloth_id"` // foreign key to cloth_types table
	Cloth        ClothType      `gorm:"foreignKey:ClothID" json:"cloth"`
	Quantity     int            `gorm:"not null;check:quantity > 0" json:"quantity"`
	SubTotalCost int            `gorm:"not null;check:sub_total_cost >= 0" json:"sub_total_cost"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ClothList model
func (ClothList) TableName() string {
	return "cloth_lists"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Cloth categories. Dry-clean garments are handled on separate equipment,
// so an order only ever contains cloths from one category.
const (
	CategoryWashDry  = "Wash Dry"
	CategoryDryClean = "Dry Clean"
)

// ClothType is a priced garment type in the shop catalog (reference data)
type ClothType struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Price     float64        `gorm:"not null;check:price >= 0" json:"price"`
	Category  string         `gorm:"not null" json:"category"` // "Wash Dry" or "Dry Clean"
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ClothType model
func (ClothType) TableName() string {
	return "cloth_types"
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// StatusEvent records one status change of an order, so the detail page
// can show who moved the order through the pipeline and when
type StatusEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OrderID     uint           `gorm:"not null;index" json:"order_id"` // foreign key to orders table
	Order       Order          `gorm:"foreignKey:OrderID" json:"-"`    // don't include full order in JSON
	Status      string         `gorm:"not null" json:"status"`
	ChangedByID uint           `gorm:"not null;index" json:"changed_by_id"` // foreign key to users table
	ChangedBy   User           `gorm:"foreignKey:ChangedByID" json:"changed_by"`
	Note        string         `gorm:"type:text" json:"note"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the StatusEvent model
func (StatusEvent) TableName() string {
	return "status_events"
}

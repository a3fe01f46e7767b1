package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles. Customers use the self-service pages; cashiers and laundry
// attendants run the shop counter; admins manage reference data.
const (
	RoleCustomer         = "customer"
	RoleCashier          = "cashier"
	RoleLaundryAttendant = "laundryAttendant"
	RoleAdmin            = "admin"
)

// User represents a user in the system (customer, staff or admin)
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Auth0ID     string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name        string         `gorm:"not null" json:"name"`
	Nickname    string         `json:"nickname"`
	PhoneNumber string         `json:"phone_number"`
	Role        string         `gorm:"not null;default:'customer'" json:"role"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsStaff reports whether the user works the shop counter.
func (u *User) IsStaff() bool {
	return u.Role == RoleCashier || u.Role == RoleLaundryAttendant || u.Role == RoleAdmin
}

package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/kit-sp-y/sa-laundry-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// RequireTestEnvironmentOrSkip is similar to RequireTestEnvironment but skips the test
// instead of failing it. Use this for optional tests that should only run in test environment.
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Skipf("Skipping test: GO_ENV must be 'test' (current: %q)", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}

	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// OpenTestDB opens an in-memory SQLite database migrated with every model
// the application uses.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.ClothType{},
		&models.Coupon{},
		&models.UserCoupon{},
		&models.Order{},
		&models.ClothList{},
		&models.StatusEvent{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// SeedCouponDefinitions inserts the three coupon families the shop sells
// and returns them keyed by name.
func SeedCouponDefinitions(t *testing.T, db *gorm.DB) map[string]models.Coupon {
	t.Helper()

	coupons := map[string]models.Coupon{}
	for name, price := range map[string]float64{
		models.CouponMachine:  500,
		models.CouponIron:     300,
		models.CouponHandwash: 400,
	} {
		coupon := models.Coupon{Name: name, Price: price}
		if err := db.Create(&coupon).Error; err != nil {
			t.Fatalf("Failed to seed coupon %q: %v", name, err)
		}
		coupons[name] = coupon
	}
	return coupons
}

// PrintEnvironmentInfo prints the current test environment configuration.
// Useful for debugging test environment issues.
func PrintEnvironmentInfo() {
	fmt.Printf("Test Environment Info:\n")
	fmt.Printf("  GO_ENV: %s\n", os.Getenv("GO_ENV"))
	fmt.Printf("  PORT: %s\n", os.Getenv("PORT"))
}

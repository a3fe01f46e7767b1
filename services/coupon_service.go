package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/kit-sp-y/sa-laundry-api/models"
	"gorm.io/gorm"
)

// CouponStatus is the outcome of validating a customer's coupons against a
// checkout.
type CouponStatus string

const (
	// CouponValid means a matching coupon exists with enough points.
	CouponValid CouponStatus = "valid"
	// CouponAbsent means the customer has no usable coupon of the
	// required name (none at all, all expired, or all drained).
	CouponAbsent CouponStatus = "absent"
	// CouponInsufficient means a usable coupon exists but its balance
	// cannot cover the garment count.
	CouponInsufficient CouponStatus = "insufficient"
)

// CouponCheck is the validator result. Coupon is set only when Status is
// CouponValid or CouponInsufficient.
type CouponCheck struct {
	Status   CouponStatus
	Coupon   *models.UserCoupon
	Required int
}

// ErrNoCouponForService is returned when a service type has no coupon
// family (dry cleaning is cash only).
var ErrNoCouponForService = errors.New("service type is not payable by coupon")

// requiredCouponNames maps a service type to the coupon name that pays for
// it. Dry cleaning has no entry.
var requiredCouponNames = map[string]string{
	models.ServiceWashDryIron: models.CouponMachine,
	models.ServiceIron:        models.CouponIron,
	models.ServiceHandWash:    models.CouponHandwash,
}

// RequiredCouponName returns the coupon name a service type requires.
func RequiredCouponName(serviceType string) (string, error) {
	name, ok := requiredCouponNames[serviceType]
	if !ok {
		return "", ErrNoCouponForService
	}
	return name, nil
}

// AllowedPaymentMethods returns the payment methods a service type
// permits: dry cleaning is cash only, machine service takes both, hand
// wash and ironing are coupon only.
func AllowedPaymentMethods(serviceType string) []string {
	switch serviceType {
	case models.ServiceDryClean:
		return []string{models.PaymentCash}
	case models.ServiceWashDryIron:
		return []string{models.PaymentCash, models.PaymentCoupon}
	case models.ServiceHandWash, models.ServiceIron:
		return []string{models.PaymentCoupon}
	default:
		return nil
	}
}

// PaymentMethodAllowed reports whether a payment method is permitted for a
// service type.
func PaymentMethodAllowed(serviceType, method string) bool {
	for _, m := range AllowedPaymentMethods(serviceType) {
		if m == method {
			return true
		}
	}
	return false
}

// CouponService validates and issues customer coupon balances
type CouponService struct {
	db *gorm.DB
}

// NewCouponService creates a coupon service on top of the given database
func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{db: db}
}

// Validate checks whether the customer holds a coupon that can pay for
// requiredQty garments of the given service type.
//
// Candidates are ordered soonest-expiring first (then by id) and the first
// one whose balance covers the order wins, so the spendable balance closest
// to dying gets used and the pick is deterministic regardless of insert
// order. Insufficient is reported only when no usable coupon can cover the
// order, against the soonest-expiring usable balance.
func (s *CouponService) Validate(userID uint, serviceType string, requiredQty int) (CouponCheck, error) {
	name, err := RequiredCouponName(serviceType)
	if err != nil {
		return CouponCheck{}, err
	}

	var coupons []models.UserCoupon
	err = s.db.
		Joins("JOIN coupons ON coupons.id = user_coupons.coupon_id").
		Where("user_coupons.user_id = ?", userID).
		Where("LOWER(coupons.cp_name) = LOWER(?)", name).
		Preload("Coupon").
		Order("user_coupons.expire_date ASC, user_coupons.id ASC").
		Find(&coupons).Error
	if err != nil {
		return CouponCheck{}, fmt.Errorf("failed to load user coupons: %w", err)
	}

	now := time.Now()
	var short *models.UserCoupon
	for i := range coupons {
		if !coupons[i].Usable(now) {
			continue
		}
		if coupons[i].PointLeft >= requiredQty {
			return CouponCheck{Status: CouponValid, Coupon: &coupons[i], Required: requiredQty}, nil
		}
		if short == nil {
			short = &coupons[i]
		}
	}

	if short != nil {
		return CouponCheck{Status: CouponInsufficient, Coupon: short, Required: requiredQty}, nil
	}
	return CouponCheck{Status: CouponAbsent, Required: requiredQty}, nil
}

// Issue creates a fresh coupon balance for a customer: always 50 points,
// valid from now for one month. Exhausted or expired balances are left in
// place; issuance is purely additive.
func (s *CouponService) Issue(userID, couponID uint) (*models.UserCoupon, error) {
	var coupon models.Coupon
	if err := s.db.First(&coupon, couponID).Error; err != nil {
		return nil, fmt.Errorf("coupon definition %d not found: %w", couponID, err)
	}

	now := time.Now()
	userCoupon := models.UserCoupon{
		PointLeft:  models.IssuedCouponPoints,
		StartDate:  now,
		ExpireDate: now.AddDate(0, models.IssuedCouponValidityMonths, 0),
		UserID:     userID,
		CouponID:   coupon.ID,
	}

	if err := s.db.Create(&userCoupon).Error; err != nil {
		return nil, fmt.Errorf("failed to issue coupon: %w", err)
	}

	if err := s.db.Preload("Coupon").First(&userCoupon, userCoupon.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load issued coupon: %w", err)
	}

	return &userCoupon, nil
}

// IssueForService issues the coupon family required by a service type.
// Used when the checkout authorizes issuance without naming a definition.
func (s *CouponService) IssueForService(userID uint, serviceType string) (*models.UserCoupon, error) {
	name, err := RequiredCouponName(serviceType)
	if err != nil {
		return nil, err
	}

	var coupon models.Coupon
	if err := s.db.Where("LOWER(cp_name) = LOWER(?)", name).First(&coupon).Error; err != nil {
		return nil, fmt.Errorf("no coupon definition named %q: %w", name, err)
	}

	return s.Issue(userID, coupon.ID)
}

package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kit-sp-y/sa-laundry-api/models"
	"gorm.io/gorm"
)

// Errors surfaced by the checkout workflow. Controllers map them to
// structured error codes instead of sniffing message text.
var (
	ErrNoCustomer          = errors.New("no customer selected")
	ErrNoServiceType       = errors.New("no service type selected")
	ErrNoItems             = errors.New("no cloth item has a positive quantity")
	ErrUnknownServiceType  = errors.New("unknown service type")
	ErrUnknownCloth        = errors.New("cloth type is not in the catalog")
	ErrClothWrongCategory  = errors.New("cloth type does not belong to the selected service category")
	ErrConfirmRequired     = errors.New("switching service category clears selected quantities and must be confirmed")
	ErrMethodNotAllowed    = errors.New("payment method is not allowed for this service type")
	ErrInvalidState        = errors.New("checkout is not in a state that permits this operation")
	ErrCouponDrained       = errors.New("coupon balance changed underneath the checkout")
)

// CouponError reports a coupon settlement that cannot proceed: either no
// usable coupon exists or the balance cannot cover the garment count.
type CouponError struct {
	Status CouponStatus
	Have   int // points left on the best candidate, 0 when absent
	Need   int
}

func (e *CouponError) Error() string {
	if e.Status == CouponAbsent {
		return fmt.Sprintf("no usable coupon for this service (need %d points)", e.Need)
	}
	return fmt.Sprintf("coupon has insufficient points (have %d, need %d)", e.Have, e.Need)
}

// DraftItem is one cloth type line of an order draft.
type DraftItem struct {
	ClothID      uint    `json:"cloth_type_id"`
	ClothName    string  `json:"cloth_type_name"`
	Quantity     int     `json:"quantity"`
	PricePerItem float64 `json:"price_per_item"`
}

// Totals is the pure derivation over a draft's line items.
type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	Total         float64 `json:"total"`
	TotalQuantity int     `json:"total_quantity"`
}

// RoundedTotal returns the total in whole currency units, the amount an
// order is billed at.
func (t Totals) RoundedTotal() int {
	return int(math.Round(t.Total))
}

// Draft composes order line items before submission. It holds one
// quantity per catalog cloth type; only cloths whose category matches the
// selected service type are visible or settable.
type Draft struct {
	serviceType string
	catalog     map[uint]models.ClothType
	quantities  map[uint]int
}

// NewDraft starts an empty draft over the cloth catalog.
func NewDraft(catalog []models.ClothType) *Draft {
	d := &Draft{
		catalog:    make(map[uint]models.ClothType, len(catalog)),
		quantities: make(map[uint]int, len(catalog)),
	}
	for _, cloth := range catalog {
		d.catalog[cloth.ID] = cloth
		d.quantities[cloth.ID] = 0
	}
	return d
}

// ServiceType returns the currently selected service type, empty when none
// has been chosen yet.
func (d *Draft) ServiceType() string {
	return d.serviceType
}

// ChangeServiceType switches the draft to a new service type. A switch
// that crosses cloth categories while items are selected is not applied;
// it returns ErrConfirmRequired and the caller must use
// ConfirmServiceType to apply it, which clears every quantity. Switching
// within the same category keeps quantities untouched.
func (d *Draft) ChangeServiceType(next string) error {
	if !models.IsValidServiceType(next) {
		return ErrUnknownServiceType
	}

	if d.serviceType != "" && next != d.serviceType &&
		models.ServiceCategory(next) != models.ServiceCategory(d.serviceType) &&
		d.Totals().TotalQuantity > 0 {
		return ErrConfirmRequired
	}

	d.serviceType = next
	return nil
}

// ConfirmServiceType applies a category-crossing switch, zeroing every
// quantity first. Not calling it after ErrConfirmRequired leaves the draft
// exactly as it was.
func (d *Draft) ConfirmServiceType(next string) error {
	if !models.IsValidServiceType(next) {
		return ErrUnknownServiceType
	}

	d.ResetQuantities()
	d.serviceType = next
	return nil
}

// AvailableCloths returns the catalog entries selectable under the current
// service type, sorted by id. Empty until a service type is chosen.
func (d *Draft) AvailableCloths() []models.ClothType {
	if d.serviceType == "" {
		return nil
	}

	category := models.ServiceCategory(d.serviceType)
	cloths := make([]models.ClothType, 0, len(d.catalog))
	for _, cloth := range d.catalog {
		if cloth.Category == category {
			cloths = append(cloths, cloth)
		}
	}
	sort.Slice(cloths, func(i, j int) bool { return cloths[i].ID < cloths[j].ID })
	return cloths
}

// SetQuantity sets the counted quantity for a cloth type, clamping
// negative values to zero. The cloth must exist in the catalog and belong
// to the category of the selected service type.
func (d *Draft) SetQuantity(clothID uint, quantity int) error {
	cloth, ok := d.catalog[clothID]
	if !ok {
		return ErrUnknownCloth
	}
	if d.serviceType == "" {
		return ErrNoServiceType
	}
	if cloth.Category != models.ServiceCategory(d.serviceType) {
		return ErrClothWrongCategory
	}

	if quantity < 0 {
		quantity = 0
	}
	d.quantities[clothID] = quantity
	return nil
}

// ResetQuantities zeroes every quantity in the draft.
func (d *Draft) ResetQuantities() {
	for id := range d.quantities {
		d.quantities[id] = 0
	}
}

// Items returns the line items with a positive quantity, sorted by cloth
// id. These are exactly the rows a submission will write.
func (d *Draft) Items() []DraftItem {
	items := make([]DraftItem, 0, len(d.quantities))
	for id, qty := range d.quantities {
		if qty <= 0 {
			continue
		}
		cloth := d.catalog[id]
		items = append(items, DraftItem{
			ClothID:      cloth.ID,
			ClothName:    cloth.Name,
			Quantity:     qty,
			PricePerItem: cloth.Price,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ClothID < items[j].ClothID })
	return items
}

// Totals derives subtotal, total and garment count from the draft. No tax
// or discount applies, so total equals subtotal.
func (d *Draft) Totals() Totals {
	var t Totals
	for id, qty := range d.quantities {
		if qty <= 0 {
			continue
		}
		t.Subtotal += float64(qty) * d.catalog[id].Price
		t.TotalQuantity += qty
	}
	t.Total = t.Subtotal
	return t
}

// CheckoutState tracks where a checkout stands in the payment workflow.
type CheckoutState string

const (
	StateIdle           CheckoutState = "Idle"
	StateAwaitingMethod CheckoutState = "AwaitingMethodChoice"
	StateCashFlow       CheckoutState = "CashFlow"
	StateCouponFlow     CheckoutState = "CouponFlow"
	StateSubmitted      CheckoutState = "Submitted"
	StateFailed         CheckoutState = "Failed"
)

// Checkout is one run of the payment workflow for a finalized draft:
// Idle -> AwaitingMethodChoice -> CashFlow|CouponFlow -> Submitted|Failed.
type Checkout struct {
	state  CheckoutState
	draft  *Draft
	userID uint
	coupon *models.UserCoupon
}

// CheckoutService drives checkouts: it validates coupons, optionally
// issues a replacement, and writes the order, its line items and the
// coupon decrement in one transaction.
type CheckoutService struct {
	db      *gorm.DB
	coupons *CouponService
}

// NewCheckoutService creates a checkout service on top of the given
// database.
func NewCheckoutService(db *gorm.DB) *CheckoutService {
	return &CheckoutService{db: db, coupons: NewCouponService(db)}
}

// Begin starts a checkout for a customer's draft. Guards: a customer, a
// service type and at least one positive quantity; failing any leaves the
// workflow Idle and returns the violated guard.
func (s *CheckoutService) Begin(draft *Draft, userID uint) (*Checkout, error) {
	if userID == 0 {
		return nil, ErrNoCustomer
	}
	if draft == nil || draft.ServiceType() == "" {
		return nil, ErrNoServiceType
	}
	if len(draft.Items()) == 0 {
		return nil, ErrNoItems
	}

	return &Checkout{state: StateAwaitingMethod, draft: draft, userID: userID}, nil
}

// State returns the checkout's current workflow state.
func (c *Checkout) State() CheckoutState {
	return c.state
}

// Coupon returns the coupon resolved during a coupon flow, nil otherwise.
func (c *Checkout) Coupon() *models.UserCoupon {
	return c.coupon
}

// ChooseCash moves the checkout into the cash flow. The caller UI never
// offers cash for coupon-only services, but the dispatcher still rejects
// it here.
func (s *CheckoutService) ChooseCash(c *Checkout) error {
	if c.state != StateAwaitingMethod {
		return ErrInvalidState
	}
	if !PaymentMethodAllowed(c.draft.ServiceType(), models.PaymentCash) {
		return ErrMethodNotAllowed
	}

	c.state = StateCashFlow
	return nil
}

// ChooseCoupon moves the checkout into the coupon flow. It validates the
// customer's balance; when no coupon can settle the order and issueOnFail
// is set, it issues a fresh balance for the service's coupon family and
// re-validates exactly once. Without issueOnFail the failure is reported
// as a *CouponError and the checkout transitions to Failed.
func (s *CheckoutService) ChooseCoupon(c *Checkout, issueOnFail bool) error {
	if c.state != StateAwaitingMethod {
		return ErrInvalidState
	}
	serviceType := c.draft.ServiceType()
	if !PaymentMethodAllowed(serviceType, models.PaymentCoupon) {
		return ErrMethodNotAllowed
	}

	required := c.draft.Totals().TotalQuantity
	check, err := s.coupons.Validate(c.userID, serviceType, required)
	if err != nil {
		c.state = StateFailed
		return err
	}

	if check.Status != CouponValid && issueOnFail {
		if _, err := s.coupons.IssueForService(c.userID, serviceType); err != nil {
			c.state = StateFailed
			return err
		}
		// One automatic retry after issuance, never more.
		check, err = s.coupons.Validate(c.userID, serviceType, required)
		if err != nil {
			c.state = StateFailed
			return err
		}
	}

	switch check.Status {
	case CouponValid:
		c.coupon = check.Coupon
		c.state = StateCouponFlow
		return nil
	case CouponInsufficient:
		c.state = StateFailed
		return &CouponError{Status: CouponInsufficient, Have: check.Coupon.PointLeft, Need: required}
	default:
		c.state = StateFailed
		return &CouponError{Status: CouponAbsent, Need: required}
	}
}

// Submit writes the order. The order row, every line item and the coupon
// decrement commit or roll back together, so a failed step never leaves an
// orphaned pending order behind.
func (s *CheckoutService) Submit(c *Checkout) (*models.Order, error) {
	if c.state != StateCashFlow && c.state != StateCouponFlow {
		return nil, ErrInvalidState
	}

	method := models.PaymentCash
	if c.state == StateCouponFlow {
		method = models.PaymentCoupon
	}

	items := c.draft.Items()
	totals := c.draft.Totals()

	order := models.Order{
		ServiceType:   c.draft.ServiceType(),
		OrderStatus:   models.StatusPending,
		TotalCloth:    totals.TotalQuantity,
		TotalCost:     totals.RoundedTotal(),
		PaymentMethod: method,
		OrderDate:     time.Now(),
		UserID:        c.userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, item := range items {
			list := models.ClothList{
				OrderID:      order.ID,
				ClothID:      item.ClothID,
				Quantity:     item.Quantity,
				SubTotalCost: int(math.Round(float64(item.Quantity) * item.PricePerItem)),
			}
			if err := tx.Create(&list).Error; err != nil {
				return fmt.Errorf("failed to create cloth list for cloth %d: %w", item.ClothID, err)
			}
		}

		if method == models.PaymentCoupon {
			// Conditional decrement: a concurrent checkout draining the
			// same balance makes RowsAffected zero and aborts this one.
			res := tx.Model(&models.UserCoupon{}).
				Where("id = ? AND point_left >= ?", c.coupon.ID, totals.TotalQuantity).
				Update("point_left", gorm.Expr("point_left - ?", totals.TotalQuantity))
			if res.Error != nil {
				return fmt.Errorf("failed to update coupon balance: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrCouponDrained
			}
		}

		return nil
	})
	if err != nil {
		c.state = StateFailed
		return nil, err
	}

	if err := s.db.Preload("User").Preload("ClothLists").Preload("ClothLists.Cloth").First(&order, order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load created order: %w", err)
	}

	c.state = StateSubmitted
	return &order, nil
}

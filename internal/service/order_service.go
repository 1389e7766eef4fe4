package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/config"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/logger"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/queue"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"

	"gorm.io/gorm"
)

// defaultPaymentExpireMinutes applies when billing config is unset.
const defaultPaymentExpireMinutes = 30

// OrderService creates and cancels subscription orders. Coupon validation
// and referral recording happen at creation; an invalid coupon rejects the
// order before anything is persisted.
type OrderService struct {
	cfg         *config.Config
	orderRepo   repository.OrderRepository
	planRepo    repository.PlanRepository
	userRepo    repository.UserRepository
	couponSvc   *CouponService
	referralSvc *ReferralService
	queueClient *queue.Client
}

// NewOrderService creates an order service.
func NewOrderService(
	cfg *config.Config,
	orderRepo repository.OrderRepository,
	planRepo repository.PlanRepository,
	userRepo repository.UserRepository,
	couponSvc *CouponService,
	referralSvc *ReferralService,
	queueClient *queue.Client,
) *OrderService {
	return &OrderService{
		cfg:         cfg,
		orderRepo:   orderRepo,
		planRepo:    planRepo,
		userRepo:    userRepo,
		couponSvc:   couponSvc,
		referralSvc: referralSvc,
		queueClient: queueClient,
	}
}

// OrderPreview is the priced breakdown before an order is placed.
type OrderPreview struct {
	Plan           *models.Plan   `json:"plan"`
	BillingCycle   string         `json:"billing_cycle"`
	Currency       string         `json:"currency"`
	OriginalAmount models.Money   `json:"original_amount"`
	DiscountAmount models.Money   `json:"discount_amount"`
	TotalAmount    models.Money   `json:"total_amount"`
	Coupon         *models.Coupon `json:"coupon,omitempty"`
}

// CreateOrderInput carries order creation fields.
type CreateOrderInput struct {
	UserID       uint
	PlanID       uint
	BillingCycle string
	CouponCode   string
	ClientIP     string
}

// Preview prices an order without persisting anything.
func (s *OrderService) Preview(input CreateOrderInput) (*OrderPreview, error) {
	plan, err := s.planRepo.GetByID(input.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	price, err := PriceFor(plan, input.BillingCycle)
	if err != nil {
		return nil, err
	}

	preview := &OrderPreview{
		Plan:           plan,
		BillingCycle:   input.BillingCycle,
		Currency:       s.currency(),
		OriginalAmount: price,
		TotalAmount:    price,
	}

	code := strings.ToUpper(strings.TrimSpace(input.CouponCode))
	if code == "" {
		return preview, nil
	}

	coupon, err := s.couponSvc.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if !s.couponSvc.IsValid(coupon, price) {
		return nil, ErrCouponInvalid
	}

	total := s.couponSvc.ApplyDiscount(coupon, price)
	preview.Coupon = coupon
	preview.DiscountAmount = models.NewMoneyFromDecimal(price.Decimal.Sub(total.Decimal))
	preview.TotalAmount = total
	return preview, nil
}

// Create places an order. With an affiliate coupon this records a referral
// against the code and leaves a referral row for the payment flow to
// convert later. A timeout cancellation task is scheduled when the queue is
// available.
func (s *OrderService) Create(input CreateOrderInput) (*models.Order, error) {
	preview, err := s.Preview(input)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(s.expireMinutes()) * time.Minute)
	order := &models.Order{
		OrderNo:        generateOrderNo(),
		UserID:         input.UserID,
		PlanID:         preview.Plan.ID,
		BillingCycle:   input.BillingCycle,
		Status:         constants.OrderStatusPendingPayment,
		Currency:       preview.Currency,
		OriginalAmount: preview.OriginalAmount,
		DiscountAmount: preview.DiscountAmount,
		TotalAmount:    preview.TotalAmount,
		ClientIP:       strings.TrimSpace(input.ClientIP),
		ExpiresAt:      &expiresAt,
	}
	if preview.Coupon != nil {
		order.CouponID = &preview.Coupon.ID
		order.CouponCode = preview.Coupon.Code
		order.AffiliateID = preview.Coupon.AffiliateID
	}

	// Reserve the coupon usage before the order row exists. An order in the
	// database always has its referral recorded, so cancellation can release
	// off order.CouponCode unconditionally.
	if preview.Coupon != nil {
		if err := s.couponSvc.RecordReferral(preview.Coupon.Code); err != nil {
			// Cap raced away between validation and recording.
			if errors.Is(err, ErrCouponCapReached) {
				return nil, ErrCouponInvalid
			}
			return nil, err
		}
	}

	if err := s.orderRepo.Create(order); err != nil {
		if preview.Coupon != nil {
			// No order row to hang the reversal on; release with a zero
			// order reference.
			if relErr := s.couponSvc.ReleaseReferral(preview.Coupon.Code, 0); relErr != nil {
				logger.Warnw("release coupon usage after failed order insert",
					"code", preview.Coupon.Code, "error", relErr)
			}
		}
		return nil, err
	}

	if preview.Coupon != nil {
		s.touchReferral(preview.Coupon, user)
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderTimeoutCancel(order.OrderNo, time.Until(expiresAt)); err != nil {
			logger.Warnw("enqueue order timeout cancel failed",
				"order_no", order.OrderNo, "error", err)
		}
	}
	return order, nil
}

// touchReferral makes sure an affiliate coupon redemption leaves a referral
// row for the buyer. Failures are logged, never fatal to the order.
func (s *OrderService) touchReferral(coupon *models.Coupon, user *models.User) {
	if !coupon.IsAffiliateCode() || s.referralSvc == nil {
		return
	}
	existing, err := s.referralSvc.GetByCodeAndEmail(coupon.Code, user.Email)
	if err != nil {
		logger.Warnw("referral lookup failed", "code", coupon.Code, "error", err)
		return
	}
	if existing == nil {
		if _, err := s.referralSvc.CreateReferral(CreateReferralInput{
			AffiliateID: *coupon.AffiliateID,
			CouponCode:  coupon.Code,
			Email:       user.Email,
			Name:        user.DisplayName,
			Source:      "checkout",
		}); err != nil {
			logger.Warnw("referral create failed", "code", coupon.Code, "error", err)
			return
		}
	}
	// The buyer holds an account, so the registered milestone is implied.
	if err := s.referralSvc.MarkRegisteredByCodeAndEmail(coupon.Code, user.Email); err != nil {
		logger.Warnw("referral mark registered failed", "code", coupon.Code, "error", err)
	}
}

// Get fetches an order by ID.
func (s *OrderService) Get(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByOrderNo fetches an order by number.
func (s *OrderService) GetByOrderNo(orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List returns orders matching the filter.
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// CancelExpired cancels a pending order whose payment window has lapsed and
// releases the coupon usage it reserved. Safe to call repeatedly; a paid or
// already-cancelled order is left alone.
func (s *OrderService) CancelExpired(orderNo string) error {
	return s.cancel(orderNo, constants.OrderStatusExpired, true)
}

// Cancel cancels a pending order on user request.
func (s *OrderService) Cancel(orderNo string, userID uint) error {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return err
	}
	if order == nil || order.UserID != userID {
		return ErrOrderNotFound
	}
	return s.cancel(orderNo, constants.OrderStatusCanceled, false)
}

func (s *OrderService) cancel(orderNo, toStatus string, onlyExpired bool) error {
	var releaseCode string
	var orderID uint

	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByOrderNoForUpdate(orderNo)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status != constants.OrderStatusPendingPayment {
			return nil
		}
		now := time.Now()
		if onlyExpired && (order.ExpiresAt == nil || order.ExpiresAt.After(now)) {
			return nil
		}
		order.Status = toStatus
		order.CanceledAt = &now
		if err := repo.Update(order); err != nil {
			return err
		}
		releaseCode = order.CouponCode
		orderID = order.ID
		return nil
	})
	if err != nil {
		return err
	}

	if releaseCode != "" {
		if err := s.couponSvc.ReleaseReferral(releaseCode, orderID); err != nil {
			logger.Warnw("release coupon usage failed",
				"order_no", orderNo, "code", releaseCode, "error", err)
		}
	}
	return nil
}

// SweepExpired expires every pending order past its window. Used by the
// worker as a safety net behind the per-order timeout tasks.
func (s *OrderService) SweepExpired(limit int) (int, error) {
	orders, err := s.orderRepo.ListExpiredPending(time.Now(), limit)
	if err != nil {
		return 0, err
	}
	for i, order := range orders {
		if err := s.CancelExpired(order.OrderNo); err != nil {
			return i, err
		}
	}
	return len(orders), nil
}

// currency returns the configured billing currency.
func (s *OrderService) currency() string {
	if s.cfg != nil && s.cfg.Billing.Currency != "" {
		return s.cfg.Billing.Currency
	}
	return "USD"
}

// expireMinutes returns the configured payment window.
func (s *OrderService) expireMinutes() int {
	if s.cfg != nil && s.cfg.Billing.PaymentExpireMinutes > 0 {
		return s.cfg.Billing.PaymentExpireMinutes
	}
	return defaultPaymentExpireMinutes
}

// generateOrderNo builds a sortable unique order number.
func generateOrderNo() string {
	return fmt.Sprintf("TL%s%s", time.Now().Format("20060102150405"), randNumeric(6))
}

// randNumeric returns length random decimal digits.
func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		fmt.Fprintf(&b, "%d", n.Int64())
	}
	return b.String()
}

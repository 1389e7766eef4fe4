package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/config"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/logger"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"

	"gorm.io/gorm"
)

// PaymentService records gateway payments and processes the confirmation
// webhook. The webhook transitions an order to paid at most once; replays
// and duplicate notifications are acknowledged without side effects.
type PaymentService struct {
	cfg              *config.Config
	paymentRepo      repository.PaymentRepository
	orderRepo        repository.OrderRepository
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository
	couponSvc        *CouponService
	referralSvc      *ReferralService
}

// NewPaymentService creates a payment service.
func NewPaymentService(
	cfg *config.Config,
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	subscriptionRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	couponSvc *CouponService,
	referralSvc *ReferralService,
) *PaymentService {
	return &PaymentService{
		cfg:              cfg,
		paymentRepo:      paymentRepo,
		orderRepo:        orderRepo,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		couponSvc:        couponSvc,
		referralSvc:      referralSvc,
	}
}

// GatewayNotification is the webhook payload sent by the payment gateway.
type GatewayNotification struct {
	OrderNo  string       `json:"order_no"`
	TxnID    string       `json:"txn_id"`
	Amount   models.Money `json:"amount"`
	Currency string       `json:"currency"`
	Status   string       `json:"status"` // success / failed
	PaidAt   *time.Time   `json:"paid_at,omitempty"`
}

// SignPayload computes the hex HMAC-SHA256 signature the gateway sends in
// X-Gateway-Signature. Exported for tests and for the seed/demo tooling.
func (s *PaymentService) SignPayload(body []byte) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.Billing.GatewayWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time.
func (s *PaymentService) VerifySignature(body []byte, signature string) bool {
	expected := s.SignPayload(body)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

// Initiate opens a payment attempt for a pending order.
func (s *PaymentService) Initiate(orderNo string, userID uint) (*models.Payment, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil || (userID != 0 && order.UserID != userID) {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return nil, ErrOrderNotPayable
	}

	payment := &models.Payment{
		PaymentNo: generatePaymentNo(),
		OrderID:   order.ID,
		Provider:  s.provider(),
		Status:    constants.PaymentStatusInitiated,
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// HandleWebhook processes a gateway notification. The signature is checked
// against the raw body before anything is parsed. Returns the affected
// order; replays of an already-paid order return it unchanged.
func (s *PaymentService) HandleWebhook(body []byte, signature string) (*models.Order, error) {
	if !s.VerifySignature(body, signature) {
		return nil, ErrWebhookSignature
	}

	var notif GatewayNotification
	if err := json.Unmarshal(body, &notif); err != nil {
		return nil, err
	}
	if notif.OrderNo == "" {
		return nil, ErrOrderNotFound
	}

	if notif.Status != "success" {
		return s.recordFailure(&notif, body)
	}

	var (
		paidOrder   *models.Order
		alreadyPaid bool
	)
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByOrderNoForUpdate(notif.OrderNo)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status == constants.OrderStatusPaid {
			paidOrder = order
			alreadyPaid = true
			return nil
		}
		if order.Status != constants.OrderStatusPendingPayment {
			return ErrOrderNotPayable
		}
		if !notif.Amount.Decimal.Equal(order.TotalAmount.Decimal) {
			return ErrPaymentAmountMismatch
		}

		now := time.Now()
		paidAt := now
		if notif.PaidAt != nil {
			paidAt = *notif.PaidAt
		}

		order.Status = constants.OrderStatusPaid
		order.PaidAt = &paidAt
		if err := orderRepo.Update(order); err != nil {
			return err
		}

		payment := &models.Payment{
			PaymentNo:     generatePaymentNo(),
			OrderID:       order.ID,
			Provider:      s.provider(),
			Status:        constants.PaymentStatusSuccess,
			Amount:        notif.Amount,
			Currency:      order.Currency,
			ExternalTxnID: notif.TxnID,
			NotifyPayload: string(body),
			PaidAt:        &paidAt,
		}
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return err
		}

		if err := s.activateSubscription(tx, order, now); err != nil {
			return err
		}

		paidOrder = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyPaid {
		return paidOrder, nil
	}

	s.settleCommission(paidOrder)
	return paidOrder, nil
}

// activateSubscription opens the subscription period purchased by the order.
func (s *PaymentService) activateSubscription(tx *gorm.DB, order *models.Order, now time.Time) error {
	periodEnd := now.AddDate(0, 1, 0)
	if order.BillingCycle == constants.BillingCycleYearly {
		periodEnd = now.AddDate(1, 0, 0)
	}
	return s.subscriptionRepo.WithTx(tx).Create(&models.Subscription{
		UserID:           order.UserID,
		PlanID:           order.PlanID,
		Status:           constants.SubscriptionStatusActive,
		BillingCycle:     order.BillingCycle,
		StartsAt:         now,
		CurrentPeriodEnd: periodEnd,
	})
}

// settleCommission runs the affiliate bookkeeping for a paid order. Ledger
// failures are logged rather than failing the webhook, since the money has
// already moved; the error logs are the recovery trail for manual
// correction.
func (s *PaymentService) settleCommission(order *models.Order) {
	if order == nil || order.CouponCode == "" {
		return
	}
	if err := s.couponSvc.RecordConversionForOrder(order.CouponCode, order.TotalAmount, order.ID); err != nil {
		logger.Errorw("record conversion failed",
			"order_no", order.OrderNo, "code", order.CouponCode, "error", err)
		return
	}

	user, err := s.userRepo.GetByID(order.UserID)
	if err != nil || user == nil {
		logger.Warnw("conversion user lookup failed", "order_no", order.OrderNo, "error", err)
		return
	}
	coupon, err := s.couponSvc.GetByCode(order.CouponCode)
	if err != nil || coupon == nil {
		logger.Warnw("conversion coupon lookup failed", "order_no", order.OrderNo, "error", err)
		return
	}
	commission, err := s.couponSvc.CalculateAffiliateCommission(coupon, order.TotalAmount)
	if err != nil {
		logger.Warnw("conversion commission calc failed", "order_no", order.OrderNo, "error", err)
		return
	}
	if err := s.referralSvc.MarkConvertedByCodeAndEmail(order.CouponCode, user.Email, order.TotalAmount, commission); err != nil {
		logger.Warnw("referral mark converted failed", "order_no", order.OrderNo, "error", err)
	}
}

// recordFailure stores a failed notification for audit.
func (s *PaymentService) recordFailure(notif *GatewayNotification, body []byte) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(notif.OrderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	payment := &models.Payment{
		PaymentNo:     generatePaymentNo(),
		OrderID:       order.ID,
		Provider:      s.provider(),
		Status:        constants.PaymentStatusFailed,
		Amount:        notif.Amount,
		Currency:      order.Currency,
		ExternalTxnID: notif.TxnID,
		NotifyPayload: string(body),
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByOrder returns the payments recorded for an order.
func (s *PaymentService) ListByOrder(orderID uint) ([]models.Payment, error) {
	return s.paymentRepo.ListByOrder(orderID)
}

// provider returns the configured gateway name.
func (s *PaymentService) provider() string {
	if s.cfg != nil && s.cfg.Billing.GatewayName != "" {
		return s.cfg.Billing.GatewayName
	}
	return "gateway"
}

// generatePaymentNo builds a sortable unique payment number.
func generatePaymentNo() string {
	return fmt.Sprintf("PM%s%s", time.Now().Format("20060102150405"), randNumeric(6))
}

package public

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/config"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/provider"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupWebhookHandlerTest(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:public_webhook_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Plan{}, &models.Order{}, &models.Payment{}, &models.Subscription{},
		&models.Affiliate{}, &models.Coupon{}, &models.Referral{}, &models.CommissionEntry{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.Billing.Currency = "USD"
	cfg.Billing.GatewayName = "testpay"
	cfg.Billing.GatewayWebhookSecret = "handler-webhook-secret"

	affiliateRepo := repository.NewAffiliateRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	entryRepo := repository.NewCommissionEntryRepository(db)
	couponSvc := service.NewCouponService(couponRepo, affiliateRepo, referralRepo, entryRepo)
	referralSvc := service.NewReferralService(referralRepo, couponRepo)

	container := &provider.Container{Config: cfg}
	container.PaymentService = service.NewPaymentService(cfg,
		repository.NewPaymentRepository(db), repository.NewOrderRepository(db),
		repository.NewSubscriptionRepository(db), repository.NewUserRepository(db),
		couponSvc, referralSvc)
	return New(container), db
}

func seedWebhookOrder(t *testing.T, db *gorm.DB, orderNo string) *models.Order {
	t.Helper()
	future := time.Now().Add(30 * time.Minute)
	order := &models.Order{
		OrderNo:        orderNo,
		UserID:         1,
		PlanID:         1,
		BillingCycle:   constants.BillingCycleMonthly,
		Status:         constants.OrderStatusPendingPayment,
		Currency:       "USD",
		OriginalAmount: models.NewMoneyFromFloat(9.99),
		TotalAmount:    models.NewMoneyFromFloat(9.99),
		ExpiresAt:      &future,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func postWebhook(t *testing.T, h *Handler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.POST("/api/v1/payments/webhook", h.PaymentWebhook)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, map[string]interface{}) {
	t.Helper()
	var resp struct {
		StatusCode int                    `json:"status_code"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal envelope failed: %v", err)
	}
	return resp.StatusCode, resp.Data
}

func TestPaymentWebhookRejectsBadSignature(t *testing.T) {
	h, db := setupWebhookHandlerTest(t)
	seedWebhookOrder(t, db, "TL-HOOK-1")

	body, _ := json.Marshal(service.GatewayNotification{
		OrderNo: "TL-HOOK-1",
		TxnID:   "TX-1",
		Amount:  models.NewMoneyFromFloat(9.99),
		Status:  "success",
	})
	w := postWebhook(t, h, body, "deadbeef")

	if w.Code != http.StatusOK {
		t.Fatalf("expected HTTP 200 envelope, got %d", w.Code)
	}
	code, _ := decodeEnvelope(t, w)
	if code != 401 {
		t.Fatalf("expected status_code 401, got %d", code)
	}

	var order models.Order
	if err := db.Where("order_no = ?", "TL-HOOK-1").First(&order).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("order must stay pending on bad signature, got %s", order.Status)
	}
}

func TestPaymentWebhookUnknownOrder(t *testing.T) {
	h, _ := setupWebhookHandlerTest(t)

	body, _ := json.Marshal(service.GatewayNotification{
		OrderNo: "TL-GHOST",
		TxnID:   "TX-2",
		Amount:  models.NewMoneyFromFloat(9.99),
		Status:  "success",
	})
	w := postWebhook(t, h, body, h.PaymentService.SignPayload(body))

	code, _ := decodeEnvelope(t, w)
	if code != 404 {
		t.Fatalf("expected status_code 404, got %d", code)
	}
}

func TestPaymentWebhookPaysOrder(t *testing.T) {
	h, db := setupWebhookHandlerTest(t)
	order := seedWebhookOrder(t, db, "TL-HOOK-2")

	body, _ := json.Marshal(service.GatewayNotification{
		OrderNo: "TL-HOOK-2",
		TxnID:   "TX-3",
		Amount:  models.NewMoneyFromFloat(9.99),
		Status:  "success",
	})
	w := postWebhook(t, h, body, h.PaymentService.SignPayload(body))

	code, data := decodeEnvelope(t, w)
	if code != 0 {
		t.Fatalf("expected status_code 0, got %d (body %s)", code, w.Body.String())
	}
	if data["status"] != constants.OrderStatusPaid {
		t.Fatalf("expected paid status in response, got %v", data["status"])
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPaid || reloaded.PaidAt == nil {
		t.Fatalf("expected order paid with paid_at, got %s %v", reloaded.Status, reloaded.PaidAt)
	}

	var sub models.Subscription
	if err := db.Where("user_id = ?", order.UserID).First(&sub).Error; err != nil {
		t.Fatalf("expected subscription activated: %v", err)
	}
	if sub.Status != constants.SubscriptionStatusActive {
		t.Fatalf("expected active subscription, got %s", sub.Status)
	}
}

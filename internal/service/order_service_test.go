package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/config"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:order_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Plan{}, &models.Order{},
		&models.Affiliate{}, &models.Coupon{}, &models.Referral{}, &models.CommissionEntry{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.Billing.Currency = "USD"
	cfg.Billing.PaymentExpireMinutes = 30

	couponSvc := NewCouponService(
		repository.NewCouponRepository(db),
		repository.NewAffiliateRepository(db),
		repository.NewReferralRepository(db),
		repository.NewCommissionEntryRepository(db),
	)
	referralSvc := NewReferralService(
		repository.NewReferralRepository(db),
		repository.NewCouponRepository(db),
	)
	svc := NewOrderService(
		cfg,
		repository.NewOrderRepository(db),
		repository.NewPlanRepository(db),
		repository.NewUserRepository(db),
		couponSvc,
		referralSvc,
		nil,
	)
	return svc, db
}

func createOrderTestPlan(t *testing.T, db *gorm.DB, code string, monthly float64) *models.Plan {
	t.Helper()
	plan := &models.Plan{
		Code:         code,
		Name:         code,
		PriceMonthly: models.NewMoneyFromFloat(monthly),
		PriceYearly:  models.NewMoneyFromFloat(monthly * 10),
		IsActive:     true,
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("create plan failed: %v", err)
	}
	return plan
}

func createOrderTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func createOrderTestAffiliateCoupon(t *testing.T, db *gorm.DB, email, code string, discount float64) (*models.Affiliate, *models.Coupon) {
	t.Helper()
	affiliate := &models.Affiliate{
		Name:            "Order Partner",
		Email:           email,
		Status:          constants.AffiliateStatusActive,
		CommissionRate:  models.NewMoneyFromFloat(20),
		PerformanceTier: constants.AffiliateTierNew,
	}
	if err := db.Create(affiliate).Error; err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}
	coupon := &models.Coupon{
		Code:            code,
		DiscountPercent: models.NewMoneyFromFloat(discount),
		IsActive:        true,
		AffiliateID:     &affiliate.ID,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return affiliate, coupon
}

func TestPreviewAppliesCoupon(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	plan := createOrderTestPlan(t, db, "pro", 10)
	createOrderTestAffiliateCoupon(t, db, "preview@example.com", "PREV20", 20)

	preview, err := svc.Preview(CreateOrderInput{
		PlanID:       plan.ID,
		BillingCycle: constants.BillingCycleMonthly,
		CouponCode:   "prev20",
	})
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.OriginalAmount.Decimal.String() != "10" {
		t.Fatalf("expected original 10, got %s", preview.OriginalAmount.Decimal.String())
	}
	if preview.DiscountAmount.Decimal.String() != "2" {
		t.Fatalf("expected discount 2, got %s", preview.DiscountAmount.Decimal.String())
	}
	if preview.TotalAmount.Decimal.String() != "8" {
		t.Fatalf("expected total 8, got %s", preview.TotalAmount.Decimal.String())
	}
}

func TestPreviewRejectsBadInputs(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	plan := createOrderTestPlan(t, db, "basic", 5)

	if _, err := svc.Preview(CreateOrderInput{PlanID: plan.ID + 100, BillingCycle: constants.BillingCycleMonthly}); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
	if _, err := svc.Preview(CreateOrderInput{PlanID: plan.ID, BillingCycle: "weekly"}); !errors.Is(err, ErrBillingCycleInvalid) {
		t.Fatalf("expected ErrBillingCycleInvalid, got %v", err)
	}
	if _, err := svc.Preview(CreateOrderInput{PlanID: plan.ID, BillingCycle: constants.BillingCycleMonthly, CouponCode: "NOPE"}); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}

	if err := db.Model(&models.Plan{}).Where("id = ?", plan.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate plan failed: %v", err)
	}
	if _, err := svc.Preview(CreateOrderInput{PlanID: plan.ID, BillingCycle: constants.BillingCycleMonthly}); !errors.Is(err, ErrPlanInactive) {
		t.Fatalf("expected ErrPlanInactive, got %v", err)
	}
}

func TestCreateOrderRecordsReferral(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	plan := createOrderTestPlan(t, db, "pro", 10)
	user := createOrderTestUser(t, db, "buyer@example.com")
	affiliate, coupon := createOrderTestAffiliateCoupon(t, db, "partner@example.com", "BUY10", 10)

	order, err := svc.Create(CreateOrderInput{
		UserID:       user.ID,
		PlanID:       plan.ID,
		BillingCycle: constants.BillingCycleMonthly,
		CouponCode:   coupon.Code,
		ClientIP:     "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("expected pending_payment, got %s", order.Status)
	}
	if order.TotalAmount.Decimal.String() != "9" {
		t.Fatalf("expected total 9, got %s", order.TotalAmount.Decimal.String())
	}
	if order.AffiliateID == nil || *order.AffiliateID != affiliate.ID {
		t.Fatalf("expected affiliate snapshot %d, got %+v", affiliate.ID, order.AffiliateID)
	}
	if order.ExpiresAt == nil || !order.ExpiresAt.After(time.Now()) {
		t.Fatalf("expected a future payment window, got %+v", order.ExpiresAt)
	}

	var reloadedCoupon models.Coupon
	if err := db.First(&reloadedCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloadedCoupon.UsedCount != 1 {
		t.Fatalf("expected used count 1, got %d", reloadedCoupon.UsedCount)
	}

	// The buyer leaves a referral row already stamped registered.
	var referral models.Referral
	if err := db.Where("coupon_code = ? AND email = ?", coupon.Code, user.Email).First(&referral).Error; err != nil {
		t.Fatalf("load referral failed: %v", err)
	}
	if referral.RegisteredAt == nil {
		t.Fatalf("expected referral marked registered")
	}
}

func TestCreateOrderCouponAtCap(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	plan := createOrderTestPlan(t, db, "pro", 10)
	user := createOrderTestUser(t, db, "capped@example.com")
	_, coupon := createOrderTestAffiliateCoupon(t, db, "cappartner@example.com", "CAP10", 10)
	if err := db.Model(&models.Coupon{}).Where("id = ?", coupon.ID).Updates(map[string]interface{}{
		"max_uses":   1,
		"used_count": 1,
	}).Error; err != nil {
		t.Fatalf("cap coupon failed: %v", err)
	}

	_, err := svc.Create(CreateOrderInput{
		UserID:       user.ID,
		PlanID:       plan.ID,
		BillingCycle: constants.BillingCycleMonthly,
		CouponCode:   coupon.Code,
	})
	if !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("expected ErrCouponInvalid at cap, got %v", err)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("rejected order must not be persisted, got %d rows", orderCount)
	}
}

func TestCreateOrderFailedReferralLeavesNoOrder(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	plan := createOrderTestPlan(t, db, "basic-reffail", 10)
	user := createOrderTestUser(t, db, "reffail@example.com")
	affiliate, coupon := createOrderTestAffiliateCoupon(t, db, "reffail-partner@example.com", "FAIL20", 20)

	// Break referral recording mid-transaction; the ledger entry insert is
	// the last write, so the usage and referral counters must roll back
	// with it and no order row may remain.
	if err := db.Migrator().DropTable(&models.CommissionEntry{}); err != nil {
		t.Fatalf("drop table failed: %v", err)
	}

	if _, err := svc.Create(CreateOrderInput{
		UserID:       user.ID,
		PlanID:       plan.ID,
		BillingCycle: constants.BillingCycleMonthly,
		CouponCode:   coupon.Code,
	}); err == nil {
		t.Fatalf("expected create to fail when referral recording fails")
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no order persisted, got %d rows", orderCount)
	}

	var reloadedCoupon models.Coupon
	if err := db.First(&reloadedCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloadedCoupon.UsedCount != 0 {
		t.Fatalf("expected used_count untouched, got %d", reloadedCoupon.UsedCount)
	}

	var reloadedAffiliate models.Affiliate
	if err := db.First(&reloadedAffiliate, affiliate.ID).Error; err != nil {
		t.Fatalf("reload affiliate failed: %v", err)
	}
	if reloadedAffiliate.Referrals != 0 {
		t.Fatalf("expected referral counter untouched, got %d", reloadedAffiliate.Referrals)
	}
}

func TestCancelReleasesReferral(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	plan := createOrderTestPlan(t, db, "pro", 10)
	user := createOrderTestUser(t, db, "cancel@example.com")
	affiliate, coupon := createOrderTestAffiliateCoupon(t, db, "cancelpartner@example.com", "CXL10", 10)

	order, err := svc.Create(CreateOrderInput{
		UserID:       user.ID,
		PlanID:       plan.ID,
		BillingCycle: constants.BillingCycleMonthly,
		CouponCode:   coupon.Code,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := svc.Cancel(order.OrderNo, user.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	reloaded, err := svc.GetByOrderNo(order.OrderNo)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCanceled {
		t.Fatalf("expected canceled, got %s", reloaded.Status)
	}
	if reloaded.CanceledAt == nil {
		t.Fatalf("expected canceled timestamp")
	}

	var reloadedCoupon models.Coupon
	if err := db.First(&reloadedCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloadedCoupon.UsedCount != 0 {
		t.Fatalf("expected usage released, got %d", reloadedCoupon.UsedCount)
	}

	var reloadedAffiliate models.Affiliate
	if err := db.First(&reloadedAffiliate, affiliate.ID).Error; err != nil {
		t.Fatalf("reload affiliate failed: %v", err)
	}
	if reloadedAffiliate.Referrals != 0 {
		t.Fatalf("expected referral counter released, got %d", reloadedAffiliate.Referrals)
	}

	var reversals int64
	if err := db.Model(&models.CommissionEntry{}).
		Where("kind = ?", constants.CommissionEntryKindReversal).Count(&reversals).Error; err != nil {
		t.Fatalf("count reversals failed: %v", err)
	}
	if reversals != 1 {
		t.Fatalf("expected one reversal entry, got %d", reversals)
	}
}

func TestCancelOwnershipAndIdempotence(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	plan := createOrderTestPlan(t, db, "pro", 10)
	user := createOrderTestUser(t, db, "owner@example.com")
	stranger := createOrderTestUser(t, db, "stranger@example.com")

	order, err := svc.Create(CreateOrderInput{
		UserID:       user.ID,
		PlanID:       plan.ID,
		BillingCycle: constants.BillingCycleMonthly,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := svc.Cancel(order.OrderNo, stranger.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for another user's order, got %v", err)
	}
	if err := svc.Cancel(order.OrderNo, user.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	// A second cancel is a silent no-op.
	if err := svc.Cancel(order.OrderNo, user.ID); err != nil {
		t.Fatalf("re-cancel must be a no-op, got %v", err)
	}
}

func TestCancelExpiredHonorsWindow(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	plan := createOrderTestPlan(t, db, "pro", 10)
	user := createOrderTestUser(t, db, "window@example.com")

	order, err := svc.Create(CreateOrderInput{
		UserID:       user.ID,
		PlanID:       plan.ID,
		BillingCycle: constants.BillingCycleMonthly,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// The window is still open, nothing happens.
	if err := svc.CancelExpired(order.OrderNo); err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}
	reloaded, err := svc.GetByOrderNo(order.OrderNo)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("expected order untouched inside its window, got %s", reloaded.Status)
	}

	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("backdate window failed: %v", err)
	}
	if err := svc.CancelExpired(order.OrderNo); err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}
	reloaded, err = svc.GetByOrderNo(order.OrderNo)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusExpired {
		t.Fatalf("expected expired, got %s", reloaded.Status)
	}
}

func TestSweepExpired(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	plan := createOrderTestPlan(t, db, "pro", 10)
	user := createOrderTestUser(t, db, "sweep@example.com")

	var orderNos []string
	for i := 0; i < 3; i++ {
		order, err := svc.Create(CreateOrderInput{
			UserID:       user.ID,
			PlanID:       plan.ID,
			BillingCycle: constants.BillingCycleMonthly,
		})
		if err != nil {
			t.Fatalf("create order failed: %v", err)
		}
		orderNos = append(orderNos, order.OrderNo)
	}
	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Order{}).
		Where("order_no IN ?", orderNos[:2]).Update("expires_at", past).Error; err != nil {
		t.Fatalf("backdate windows failed: %v", err)
	}

	swept, err := svc.SweepExpired(10)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if swept != 2 {
		t.Fatalf("expected 2 swept, got %d", swept)
	}

	survivor, err := svc.GetByOrderNo(orderNos[2])
	if err != nil {
		t.Fatalf("reload survivor failed: %v", err)
	}
	if survivor.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("expected the in-window order untouched, got %s", survivor.Status)
	}
}

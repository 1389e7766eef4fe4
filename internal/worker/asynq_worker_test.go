package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/config"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/provider"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/queue"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:worker_consumer_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Plan{}, &models.Order{},
		&models.Affiliate{}, &models.Coupon{}, &models.Referral{}, &models.CommissionEntry{},
		&models.Ticket{}, &models.TicketMessage{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.Billing.Currency = "USD"
	cfg.Billing.PaymentExpireMinutes = 30

	userRepo := repository.NewUserRepository(db)
	affiliateRepo := repository.NewAffiliateRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	entryRepo := repository.NewCommissionEntryRepository(db)

	couponSvc := service.NewCouponService(couponRepo, affiliateRepo, referralRepo, entryRepo)
	referralSvc := service.NewReferralService(referralRepo, couponRepo)

	container := &provider.Container{
		Config:           cfg,
		AffiliateService: service.NewAffiliateService(affiliateRepo, couponRepo, referralRepo, entryRepo),
		OrderService: service.NewOrderService(cfg,
			repository.NewOrderRepository(db), repository.NewPlanRepository(db),
			userRepo, couponSvc, referralSvc, nil),
		TicketService: service.NewTicketService(repository.NewTicketRepository(db), userRepo, nil),
	}
	return NewConsumer(container), db
}

func TestHandleOrderTimeoutCancelExpiresOrder(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	past := time.Now().Add(-time.Minute)
	order := &models.Order{
		OrderNo:      "TL-TIMEOUT-1",
		UserID:       1,
		PlanID:       1,
		BillingCycle: constants.BillingCycleMonthly,
		Status:       constants.OrderStatusPendingPayment,
		Currency:     "USD",
		TotalAmount:  models.NewMoneyFromFloat(9.99),
		ExpiresAt:    &past,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	task, err := queue.NewOrderTimeoutCancelTask(queue.OrderTimeoutCancelPayload{OrderNo: "TL-TIMEOUT-1"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleOrderTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("handle order timeout failed: %v", err)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusExpired {
		t.Fatalf("expected status expired, got %s", reloaded.Status)
	}
	if reloaded.CanceledAt == nil {
		t.Fatalf("expected canceled_at stamped")
	}
}

func TestHandleOrderTimeoutCancelEmptyOrderNo(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	task := asynq.NewTask(queue.TaskOrderTimeoutCancel, []byte(`{"order_no":""}`))
	if err := consumer.handleOrderTimeoutCancel(context.Background(), task); err != nil {
		t.Fatalf("empty order no should be a no-op, got %v", err)
	}
}

func TestHandleAffiliateStatsRefreshSingle(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	affiliate := &models.Affiliate{
		Name:            "Drifted Partner",
		Email:           "drifted@example.com",
		Status:          constants.AffiliateStatusActive,
		CommissionRate:  models.NewMoneyFromFloat(20),
		Referrals:       20,
		Conversions:     5,
		PerformanceTier: constants.AffiliateTierNew,
	}
	if err := db.Create(affiliate).Error; err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}

	task, err := queue.NewAffiliateStatsRefreshTask(queue.AffiliateStatsRefreshPayload{AffiliateID: affiliate.ID})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleAffiliateStatsRefresh(context.Background(), task); err != nil {
		t.Fatalf("handle stats refresh failed: %v", err)
	}

	var reloaded models.Affiliate
	if err := db.First(&reloaded, affiliate.ID).Error; err != nil {
		t.Fatalf("reload affiliate failed: %v", err)
	}
	if reloaded.ConversionRate != 25 {
		t.Fatalf("expected conversion rate 25, got %v", reloaded.ConversionRate)
	}
	if reloaded.PerformanceTier != constants.AffiliateTierExcellent {
		t.Fatalf("expected tier excellent, got %s", reloaded.PerformanceTier)
	}
}

func TestHandleAffiliateStatsRefreshAll(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	for i := 0; i < 2; i++ {
		affiliate := &models.Affiliate{
			Name:            fmt.Sprintf("Partner %d", i),
			Email:           fmt.Sprintf("partner%d@example.com", i),
			Status:          constants.AffiliateStatusActive,
			Referrals:       10,
			Conversions:     2,
			PerformanceTier: constants.AffiliateTierNew,
		}
		if err := db.Create(affiliate).Error; err != nil {
			t.Fatalf("create affiliate failed: %v", err)
		}
	}

	task, err := queue.NewAffiliateStatsRefreshTask(queue.AffiliateStatsRefreshPayload{})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleAffiliateStatsRefresh(context.Background(), task); err != nil {
		t.Fatalf("handle stats refresh all failed: %v", err)
	}

	var rates []float64
	if err := db.Model(&models.Affiliate{}).Order("id").Pluck("conversion_rate", &rates).Error; err != nil {
		t.Fatalf("load rates failed: %v", err)
	}
	for i, rate := range rates {
		if rate != 20 {
			t.Fatalf("affiliate %d: expected conversion rate 20, got %v", i, rate)
		}
	}
}

func TestHandleTicketNotifyEmailWithoutMailer(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	user := &models.User{Email: "owner@example.com", PasswordHash: "x", Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	ticket, err := consumer.TicketService.Open(service.OpenTicketInput{
		UserID:  user.ID,
		Subject: "Broken invoice",
		Body:    "The PDF link is dead.",
	})
	if err != nil {
		t.Fatalf("open ticket failed: %v", err)
	}

	task, err := queue.NewTicketNotifyEmailTask(queue.TicketNotifyEmailPayload{TicketID: ticket.ID})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	// No EmailService wired: resolving the owner must still succeed and the
	// task completes without retrying.
	if err := consumer.handleTicketNotifyEmail(context.Background(), task); err != nil {
		t.Fatalf("handle ticket notify failed: %v", err)
	}
}

func TestHandleTicketNotifyEmailBadPayload(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	task := asynq.NewTask(queue.TaskTicketNotifyEmail, []byte(`{"ticket_id":`))
	if err := consumer.handleTicketNotifyEmail(context.Background(), task); err == nil {
		t.Fatalf("expected error for malformed payload")
	}

	task = asynq.NewTask(queue.TaskTicketNotifyEmail, []byte(`{"ticket_id":0}`))
	if err := consumer.handleTicketNotifyEmail(context.Background(), task); err != nil {
		t.Fatalf("zero ticket id should be a no-op, got %v", err)
	}
}

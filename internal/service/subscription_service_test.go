package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupSubscriptionServiceTest(t *testing.T) (*SubscriptionService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:subscription_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Subscription{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewSubscriptionService(repository.NewSubscriptionRepository(db)), db
}

func createTestSubscription(t *testing.T, db *gorm.DB, userID uint, periodEnd time.Time) *models.Subscription {
	t.Helper()
	sub := &models.Subscription{
		UserID:           userID,
		PlanID:           1,
		Status:           constants.SubscriptionStatusActive,
		BillingCycle:     constants.BillingCycleMonthly,
		StartsAt:         time.Now().Add(-time.Hour),
		CurrentPeriodEnd: periodEnd,
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("create subscription failed: %v", err)
	}
	return sub
}

func TestCurrentReturnsActiveSubscription(t *testing.T) {
	svc, db := setupSubscriptionServiceTest(t)
	created := createTestSubscription(t, db, 1, time.Now().Add(30*24*time.Hour))

	sub, err := svc.Current(1)
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if sub == nil || sub.ID != created.ID {
		t.Fatalf("expected subscription %d, got %+v", created.ID, sub)
	}

	none, err := svc.Current(99)
	if err != nil {
		t.Fatalf("current for stranger failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for user without subscription, got %+v", none)
	}
}

func TestCurrentLazilyExpiresLapsedPeriod(t *testing.T) {
	svc, db := setupSubscriptionServiceTest(t)
	created := createTestSubscription(t, db, 2, time.Now().Add(-time.Minute))

	sub, err := svc.Current(2)
	if err != nil {
		t.Fatalf("current failed: %v", err)
	}
	if sub != nil {
		t.Fatalf("expected lapsed subscription hidden, got %+v", sub)
	}

	var reloaded models.Subscription
	if err := db.First(&reloaded, created.ID).Error; err != nil {
		t.Fatalf("reload subscription failed: %v", err)
	}
	if reloaded.Status != constants.SubscriptionStatusExpired {
		t.Fatalf("expected status expired, got %s", reloaded.Status)
	}
}

func TestCancelSubscription(t *testing.T) {
	svc, db := setupSubscriptionServiceTest(t)
	created := createTestSubscription(t, db, 3, time.Now().Add(30*24*time.Hour))

	if err := svc.Cancel(3); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	var reloaded models.Subscription
	if err := db.First(&reloaded, created.ID).Error; err != nil {
		t.Fatalf("reload subscription failed: %v", err)
	}
	if reloaded.Status != constants.SubscriptionStatusCanceled {
		t.Fatalf("expected status canceled, got %s", reloaded.Status)
	}
	if reloaded.CanceledAt == nil {
		t.Fatalf("expected canceled_at stamped")
	}

	if err := svc.Cancel(3); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound on second cancel, got %v", err)
	}
}

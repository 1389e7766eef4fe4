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

func setupPlanServiceTest(t *testing.T) *PlanService {
	t.Helper()

	dsn := fmt.Sprintf("file:plan_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Plan{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewPlanService(repository.NewPlanRepository(db))
}

func TestPriceFor(t *testing.T) {
	plan := &models.Plan{
		PriceMonthly: models.NewMoneyFromFloat(9.99),
		PriceYearly:  models.NewMoneyFromFloat(99.90),
	}

	monthly, err := PriceFor(plan, constants.BillingCycleMonthly)
	if err != nil {
		t.Fatalf("monthly price failed: %v", err)
	}
	if monthly.Decimal.String() != "9.99" {
		t.Fatalf("expected 9.99, got %s", monthly.Decimal.String())
	}

	yearly, err := PriceFor(plan, constants.BillingCycleYearly)
	if err != nil {
		t.Fatalf("yearly price failed: %v", err)
	}
	if yearly.Decimal.String() != "99.9" {
		t.Fatalf("expected 99.9, got %s", yearly.Decimal.String())
	}

	if _, err := PriceFor(plan, "weekly"); !errors.Is(err, ErrBillingCycleInvalid) {
		t.Fatalf("expected ErrBillingCycleInvalid, got %v", err)
	}
}

func TestPlanCRUD(t *testing.T) {
	svc := setupPlanServiceTest(t)

	created, err := svc.Create(CreatePlanInput{
		Code:         "  PRO ",
		Name:         "Pro",
		PriceMonthly: models.NewMoneyFromFloat(9.99),
		PriceYearly:  models.NewMoneyFromFloat(99.90),
	})
	if err != nil {
		t.Fatalf("create plan failed: %v", err)
	}
	if created.Code != "pro" {
		t.Fatalf("expected code normalized to pro, got %s", created.Code)
	}
	if !created.IsActive {
		t.Fatalf("expected new plan active")
	}

	if _, err := svc.Create(CreatePlanInput{
		Code:         "pro",
		Name:         "Pro again",
		PriceMonthly: models.NewMoneyFromFloat(1),
	}); !errors.Is(err, ErrPlanCodeTaken) {
		t.Fatalf("expected ErrPlanCodeTaken, got %v", err)
	}

	inactive := false
	updated, err := svc.Update(created.ID, UpdatePlanInput{IsActive: &inactive})
	if err != nil {
		t.Fatalf("update plan failed: %v", err)
	}
	if updated.IsActive {
		t.Fatalf("expected plan deactivated")
	}

	active, err := svc.List(true)
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active plans, got %d", len(active))
	}
	all, err := svc.List(false)
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one plan, got %d", len(all))
	}

	if err := svc.Delete(created.ID); err != nil {
		t.Fatalf("delete plan failed: %v", err)
	}
	if _, err := svc.Get(created.ID); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound after delete, got %v", err)
	}
}

package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCouponAdminServiceTest(t *testing.T) (*CouponAdminService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:coupon_admin_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Affiliate{}, &models.Coupon{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	return NewCouponAdminService(
		repository.NewCouponRepository(db),
		repository.NewAffiliateRepository(db),
	), db
}

func createAdminTestAffiliate(t *testing.T, db *gorm.DB, name, email string) *models.Affiliate {
	t.Helper()
	affiliate := &models.Affiliate{
		Name:            name,
		Email:           email,
		Status:          constants.AffiliateStatusActive,
		CommissionRate:  models.NewMoneyFromFloat(20),
		PerformanceTier: constants.AffiliateTierNew,
	}
	if err := db.Create(affiliate).Error; err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}
	return affiliate
}

func TestCreateCouponDuplicateCode(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)

	input := CreateCouponInput{
		Code:            "spring20",
		DiscountPercent: models.NewMoneyFromFloat(20),
	}
	coupon, err := svc.Create(input)
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if coupon.Code != "SPRING20" {
		t.Fatalf("expected code upper-cased, got %s", coupon.Code)
	}

	if _, err := svc.Create(input); !errors.Is(err, ErrCouponCodeTaken) {
		t.Fatalf("expected ErrCouponCodeTaken, got %v", err)
	}
}

func TestCreateCouponUnknownAffiliate(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)

	missing := uint(404)
	_, err := svc.Create(CreateCouponInput{
		Code:            "GHOST",
		DiscountPercent: models.NewMoneyFromFloat(10),
		AffiliateID:     &missing,
	})
	if !errors.Is(err, ErrAffiliateNotFound) {
		t.Fatalf("expected ErrAffiliateNotFound, got %v", err)
	}
}

func TestCreateAffiliateCodeGeneratedFromInitials(t *testing.T) {
	svc, db := setupCouponAdminServiceTest(t)
	affiliate := createAdminTestAffiliate(t, db, "Jane van Dorn", "jane@example.com")

	first, err := svc.CreateAffiliateCode(CreateAffiliateCodeInput{
		AffiliateID:     affiliate.ID,
		DiscountPercent: models.NewMoneyFromFloat(10),
	})
	if err != nil {
		t.Fatalf("create affiliate code failed: %v", err)
	}
	if first.Code != "JVD001" {
		t.Fatalf("expected generated code JVD001, got %s", first.Code)
	}
	if first.AffiliateID == nil || *first.AffiliateID != affiliate.ID {
		t.Fatalf("expected coupon bound to affiliate %d, got %+v", affiliate.ID, first.AffiliateID)
	}

	second, err := svc.CreateAffiliateCode(CreateAffiliateCodeInput{
		AffiliateID:     affiliate.ID,
		DiscountPercent: models.NewMoneyFromFloat(10),
	})
	if err != nil {
		t.Fatalf("create second affiliate code failed: %v", err)
	}
	if second.Code != "JVD002" {
		t.Fatalf("expected sequence to advance to JVD002, got %s", second.Code)
	}
}

func TestCreateAffiliateCodeSkipsPollutedSequence(t *testing.T) {
	svc, db := setupCouponAdminServiceTest(t)
	affiliate := createAdminTestAffiliate(t, db, "Ann Bell", "ann@example.com")

	// Occupy the first sequence slot with a manually created code.
	if err := db.Create(&models.Coupon{
		Code:            "AB001",
		DiscountPercent: models.NewMoneyFromFloat(5),
		IsActive:        true,
	}).Error; err != nil {
		t.Fatalf("seed colliding coupon failed: %v", err)
	}

	generated, err := svc.CreateAffiliateCode(CreateAffiliateCodeInput{
		AffiliateID:     affiliate.ID,
		DiscountPercent: models.NewMoneyFromFloat(10),
	})
	if err != nil {
		t.Fatalf("create affiliate code failed: %v", err)
	}
	if generated.Code != "AB002" {
		t.Fatalf("expected retry onto AB002, got %s", generated.Code)
	}
}

func TestCreateAffiliateCodeExplicitCollision(t *testing.T) {
	svc, db := setupCouponAdminServiceTest(t)
	affiliate := createAdminTestAffiliate(t, db, "Collide", "collide@example.com")

	if _, err := svc.CreateAffiliateCode(CreateAffiliateCodeInput{
		AffiliateID:     affiliate.ID,
		Code:            "TAKEN1",
		DiscountPercent: models.NewMoneyFromFloat(10),
	}); err != nil {
		t.Fatalf("create explicit code failed: %v", err)
	}

	_, err := svc.CreateAffiliateCode(CreateAffiliateCodeInput{
		AffiliateID:     affiliate.ID,
		Code:            "taken1",
		DiscountPercent: models.NewMoneyFromFloat(10),
	})
	if !errors.Is(err, ErrCouponCodeTaken) {
		t.Fatalf("expected ErrCouponCodeTaken for explicit collision, got %v", err)
	}
}

func TestUpdateCouponClearFlags(t *testing.T) {
	svc, db := setupCouponAdminServiceTest(t)
	affiliate := createAdminTestAffiliate(t, db, "Clear", "clear@example.com")

	override := models.NewMoneyFromFloat(30)
	expires := time.Now().Add(24 * time.Hour)
	coupon, err := svc.CreateAffiliateCode(CreateAffiliateCodeInput{
		AffiliateID:       affiliate.ID,
		Code:              "CLEAR1",
		DiscountPercent:   models.NewMoneyFromFloat(10),
		CommissionPercent: &override,
		ExpiresAt:         &expires,
	})
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	updated, err := svc.Update(coupon.ID, UpdateCouponInput{
		ClearCommission: true,
		ClearExpiresAt:  true,
	})
	if err != nil {
		t.Fatalf("update coupon failed: %v", err)
	}
	if updated.CommissionPercent != nil {
		t.Fatalf("expected commission override cleared, got %+v", updated.CommissionPercent)
	}
	if updated.ExpiresAt != nil {
		t.Fatalf("expected expiry cleared, got %+v", updated.ExpiresAt)
	}
}

func TestDeactivateCouponIdempotent(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)

	coupon, err := svc.Create(CreateCouponInput{
		Code:            "OFF001",
		DiscountPercent: models.NewMoneyFromFloat(10),
	})
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	if err := svc.Deactivate(coupon.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if err := svc.Deactivate(coupon.ID); err != nil {
		t.Fatalf("second deactivate must be a no-op, got %v", err)
	}

	reloaded, err := svc.Get(coupon.ID)
	if err != nil {
		t.Fatalf("get coupon failed: %v", err)
	}
	if reloaded.IsActive {
		t.Fatalf("expected coupon inactive")
	}
}

func TestAffiliateInitials(t *testing.T) {
	cases := map[string]string{
		"Jane van Dorn": "JVD",
		"ann bell":      "AB",
		"  ":            "AF",
		"123 456":       "AF",
	}
	for name, want := range cases {
		if got := affiliateInitials(name); got != want {
			t.Fatalf("initials of %q: expected %s, got %s", name, want, got)
		}
	}
}

func TestRandomCodeSuffix(t *testing.T) {
	suffix, err := randomCodeSuffix(4)
	if err != nil {
		t.Fatalf("random suffix failed: %v", err)
	}
	if len(suffix) != 8 {
		t.Fatalf("expected 8 hex chars, got %q", suffix)
	}
	if suffix != strings.ToUpper(suffix) {
		t.Fatalf("expected upper-cased suffix, got %q", suffix)
	}
}

func TestCouponTermsOutOfRange(t *testing.T) {
	svc, db := setupCouponAdminServiceTest(t)
	affiliate := createAdminTestAffiliate(t, db, "Range Partner", "range-partner@example.com")

	over := models.NewMoneyFromFloat(150)
	negative := models.NewMoneyFromFloat(-5)

	cases := []struct {
		name  string
		input CreateCouponInput
	}{
		{name: "discount above 100", input: CreateCouponInput{Code: "OVER", DiscountPercent: over}},
		{name: "negative discount", input: CreateCouponInput{Code: "NEG", DiscountPercent: negative}},
		{name: "commission above 100", input: CreateCouponInput{
			Code: "COMM", DiscountPercent: models.NewMoneyFromFloat(10), CommissionPercent: &over}},
		{name: "negative min amount", input: CreateCouponInput{
			Code: "MIN", DiscountPercent: models.NewMoneyFromFloat(10), MinAmount: negative}},
		{name: "negative max uses", input: CreateCouponInput{
			Code: "CAP", DiscountPercent: models.NewMoneyFromFloat(10), MaxUses: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(tc.input); !errors.Is(err, ErrCouponInvalid) {
				t.Fatalf("expected ErrCouponInvalid, got %v", err)
			}
		})
	}

	if _, err := svc.CreateAffiliateCode(CreateAffiliateCodeInput{
		AffiliateID:     affiliate.ID,
		DiscountPercent: over,
	}); !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("expected ErrCouponInvalid for affiliate code, got %v", err)
	}

	coupon, err := svc.Create(CreateCouponInput{Code: "OKAY", DiscountPercent: models.NewMoneyFromFloat(15)})
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if _, err := svc.Update(coupon.ID, UpdateCouponInput{DiscountPercent: &over}); !errors.Is(err, ErrCouponInvalid) {
		t.Fatalf("expected ErrCouponInvalid on update, got %v", err)
	}

	reloaded, err := svc.Get(coupon.ID)
	if err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if reloaded.DiscountPercent.Decimal.String() != "15" {
		t.Fatalf("rejected update must not change discount, got %s", reloaded.DiscountPercent.Decimal.String())
	}
}

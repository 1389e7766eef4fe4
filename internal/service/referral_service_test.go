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

func setupReferralServiceTest(t *testing.T) (*ReferralService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:referral_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Affiliate{}, &models.Coupon{}, &models.Referral{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	return NewReferralService(
		repository.NewReferralRepository(db),
		repository.NewCouponRepository(db),
	), db
}

func seedReferralAffiliateWithCode(t *testing.T, db *gorm.DB, email, code string) *models.Affiliate {
	t.Helper()
	affiliate := &models.Affiliate{
		Name:            "Referral Partner",
		Email:           email,
		Status:          constants.AffiliateStatusActive,
		CommissionRate:  models.NewMoneyFromFloat(20),
		PerformanceTier: constants.AffiliateTierNew,
	}
	if err := db.Create(affiliate).Error; err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}
	if err := db.Create(&models.Coupon{
		Code:            code,
		DiscountPercent: models.NewMoneyFromFloat(10),
		IsActive:        true,
		AffiliateID:     &affiliate.ID,
	}).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	return affiliate
}

func TestCreateReferralValidation(t *testing.T) {
	svc, db := setupReferralServiceTest(t)
	affiliate := seedReferralAffiliateWithCode(t, db, "owner@example.com", "OWN001")
	other := seedReferralAffiliateWithCode(t, db, "other@example.com", "OTH001")

	// Unknown coupon.
	if _, err := svc.CreateReferral(CreateReferralInput{
		AffiliateID: affiliate.ID,
		CouponCode:  "NOPE",
		Email:       "lead@example.com",
	}); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected ErrCouponNotFound, got %v", err)
	}

	// Coupon belongs to a different affiliate.
	if _, err := svc.CreateReferral(CreateReferralInput{
		AffiliateID: other.ID,
		CouponCode:  "OWN001",
		Email:       "lead@example.com",
	}); !errors.Is(err, ErrReferralMismatch) {
		t.Fatalf("expected ErrReferralMismatch, got %v", err)
	}

	// Plain discount code cannot anchor a referral.
	if err := db.Create(&models.Coupon{
		Code:            "PLAIN1",
		DiscountPercent: models.NewMoneyFromFloat(5),
		IsActive:        true,
	}).Error; err != nil {
		t.Fatalf("create plain coupon failed: %v", err)
	}
	if _, err := svc.CreateReferral(CreateReferralInput{
		AffiliateID: affiliate.ID,
		CouponCode:  "PLAIN1",
		Email:       "lead@example.com",
	}); !errors.Is(err, ErrCouponNotAffiliate) {
		t.Fatalf("expected ErrCouponNotAffiliate, got %v", err)
	}

	referral, err := svc.CreateReferral(CreateReferralInput{
		AffiliateID: affiliate.ID,
		CouponCode:  "own001",
		Email:       "Lead@Example.com",
		Name:        "Lead",
		Source:      "newsletter",
	})
	if err != nil {
		t.Fatalf("create referral failed: %v", err)
	}
	if referral.CouponCode != "OWN001" || referral.Email != "lead@example.com" {
		t.Fatalf("expected normalized code and email, got %s / %s", referral.CouponCode, referral.Email)
	}
	if referral.Status() != constants.ReferralStatusReferred {
		t.Fatalf("expected status referred, got %s", referral.Status())
	}
}

func TestMarkRegisteredIdempotent(t *testing.T) {
	svc, db := setupReferralServiceTest(t)
	affiliate := seedReferralAffiliateWithCode(t, db, "reg@example.com", "REG001")

	referral, err := svc.CreateReferral(CreateReferralInput{
		AffiliateID: affiliate.ID,
		CouponCode:  "REG001",
		Email:       "prospect@example.com",
	})
	if err != nil {
		t.Fatalf("create referral failed: %v", err)
	}

	first, err := svc.MarkRegistered(referral.ID)
	if err != nil {
		t.Fatalf("mark registered failed: %v", err)
	}
	if first.RegisteredAt == nil {
		t.Fatalf("expected registered timestamp set")
	}
	stamp := *first.RegisteredAt

	second, err := svc.MarkRegistered(referral.ID)
	if err != nil {
		t.Fatalf("re-mark registered failed: %v", err)
	}
	if second.RegisteredAt == nil || !second.RegisteredAt.Equal(stamp) {
		t.Fatalf("expected timestamp untouched on re-mark, got %v then %v", stamp, second.RegisteredAt)
	}
	if second.Status() != constants.ReferralStatusRegistered {
		t.Fatalf("expected status registered, got %s", second.Status())
	}
}

func TestMarkConvertedIdempotent(t *testing.T) {
	svc, db := setupReferralServiceTest(t)
	affiliate := seedReferralAffiliateWithCode(t, db, "conv@example.com", "CNV001")

	referral, err := svc.CreateReferral(CreateReferralInput{
		AffiliateID: affiliate.ID,
		CouponCode:  "CNV001",
		Email:       "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("create referral failed: %v", err)
	}

	// Conversion may follow referral directly; registration is optional.
	first, err := svc.MarkConverted(referral.ID, models.NewMoneyFromFloat(90), models.NewMoneyFromFloat(18))
	if err != nil {
		t.Fatalf("mark converted failed: %v", err)
	}
	if first.ConvertedAt == nil {
		t.Fatalf("expected converted timestamp set")
	}
	if first.ConversionAmount.Decimal.String() != "90" || first.CommissionEarned.Decimal.String() != "18" {
		t.Fatalf("expected amount 90 commission 18, got %s / %s",
			first.ConversionAmount.Decimal.String(), first.CommissionEarned.Decimal.String())
	}
	if first.Status() != constants.ReferralStatusConverted {
		t.Fatalf("expected status converted, got %s", first.Status())
	}

	second, err := svc.MarkConverted(referral.ID, models.NewMoneyFromFloat(500), models.NewMoneyFromFloat(100))
	if err != nil {
		t.Fatalf("re-mark converted failed: %v", err)
	}
	if second.ConversionAmount.Decimal.String() != "90" {
		t.Fatalf("expected amounts untouched on re-mark, got %s", second.ConversionAmount.Decimal.String())
	}
}

func TestMarkByCodeAndEmailMissingRowIgnored(t *testing.T) {
	svc, _ := setupReferralServiceTest(t)

	if err := svc.MarkRegisteredByCodeAndEmail("GHOST1", "ghost@example.com"); err != nil {
		t.Fatalf("expected missing referral ignored, got %v", err)
	}
	if err := svc.MarkConvertedByCodeAndEmail("GHOST1", "ghost@example.com",
		models.NewMoneyFromFloat(10), models.NewMoneyFromFloat(2)); err != nil {
		t.Fatalf("expected missing referral ignored, got %v", err)
	}

	// Blank inputs short-circuit without touching the database.
	if err := svc.MarkRegisteredByCodeAndEmail("", ""); err != nil {
		t.Fatalf("expected blank input ignored, got %v", err)
	}
}

func TestMarkConvertedByCodeAndEmailPicksLatest(t *testing.T) {
	svc, db := setupReferralServiceTest(t)
	affiliate := seedReferralAffiliateWithCode(t, db, "latest@example.com", "LAT001")

	for i := 0; i < 2; i++ {
		if _, err := svc.CreateReferral(CreateReferralInput{
			AffiliateID: affiliate.ID,
			CouponCode:  "LAT001",
			Email:       "repeat@example.com",
		}); err != nil {
			t.Fatalf("create referral failed: %v", err)
		}
	}

	if err := svc.MarkConvertedByCodeAndEmail("LAT001", "repeat@example.com",
		models.NewMoneyFromFloat(60), models.NewMoneyFromFloat(12)); err != nil {
		t.Fatalf("mark converted failed: %v", err)
	}

	var converted int64
	if err := db.Model(&models.Referral{}).Where("converted_at IS NOT NULL").Count(&converted).Error; err != nil {
		t.Fatalf("count converted failed: %v", err)
	}
	if converted != 1 {
		t.Fatalf("expected exactly one converted row, got %d", converted)
	}
}

func TestGetByCodeAndEmailNormalizes(t *testing.T) {
	svc, db := setupReferralServiceTest(t)
	affiliate := seedReferralAffiliateWithCode(t, db, "lookup@example.com", "LKP001")

	created, err := svc.CreateReferral(CreateReferralInput{
		AffiliateID: affiliate.ID,
		CouponCode:  "LKP001",
		Email:       "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("create referral failed: %v", err)
	}

	found, err := svc.GetByCodeAndEmail(" lkp001 ", " Buyer@Example.com ")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Fatalf("expected referral %d, got %+v", created.ID, found)
	}

	missing, err := svc.GetByCodeAndEmail("LKP001", "ghost@example.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown email, got %+v", missing)
	}

	blank, err := svc.GetByCodeAndEmail("", "buyer@example.com")
	if err != nil {
		t.Fatalf("blank code lookup failed: %v", err)
	}
	if blank != nil {
		t.Fatalf("expected nil for blank code, got %+v", blank)
	}
}

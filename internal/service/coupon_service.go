package service

import (
	"strings"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponService implements the coupon ledger: validation, discount and
// commission math, and the counter mutations that track referrals and
// conversions. All counter mutations run in a single transaction with the
// coupon row locked, so concurrent redemptions of the same code serialize.
type CouponService struct {
	couponRepo    repository.CouponRepository
	affiliateRepo repository.AffiliateRepository
	referralRepo  repository.ReferralRepository
	entryRepo     repository.CommissionEntryRepository
}

// NewCouponService creates a coupon service.
func NewCouponService(
	couponRepo repository.CouponRepository,
	affiliateRepo repository.AffiliateRepository,
	referralRepo repository.ReferralRepository,
	entryRepo repository.CommissionEntryRepository,
) *CouponService {
	return &CouponService{
		couponRepo:    couponRepo,
		affiliateRepo: affiliateRepo,
		referralRepo:  referralRepo,
		entryRepo:     entryRepo,
	}
}

// IsValid reports whether the coupon can be applied to an order of the given
// amount. Fails closed: inactive, expired, cap reached, or below the minimum
// all return false.
func (s *CouponService) IsValid(coupon *models.Coupon, amount models.Money) bool {
	if coupon == nil || !coupon.IsActive {
		return false
	}
	if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
		return false
	}
	if coupon.MaxUses > 0 && coupon.UsedCount >= coupon.MaxUses {
		return false
	}
	if coupon.MinAmount.Decimal.GreaterThan(decimal.Zero) &&
		amount.Decimal.LessThan(coupon.MinAmount.Decimal) {
		return false
	}
	return true
}

// ApplyDiscount returns the price after the coupon's percentage discount.
// Pure computation; no validity check and no side effects.
func (s *CouponService) ApplyDiscount(coupon *models.Coupon, price models.Money) models.Money {
	if coupon == nil {
		return price
	}
	factor := decimal.NewFromInt(1).
		Sub(coupon.DiscountPercent.Decimal.Div(decimal.NewFromInt(100)))
	return models.NewMoneyFromDecimal(price.Decimal.Mul(factor))
}

// CalculateAffiliateCommission returns the commission owed on a converted
// amount. The coupon's override percent wins when set; otherwise the linked
// affiliate's rate applies. A coupon with no affiliate earns nothing.
func (s *CouponService) CalculateAffiliateCommission(coupon *models.Coupon, amount models.Money) (models.Money, error) {
	if !coupon.IsAffiliateCode() {
		return models.Money{}, nil
	}

	var percent decimal.Decimal
	if coupon.CommissionPercent != nil {
		percent = coupon.CommissionPercent.Decimal
	} else {
		affiliate := coupon.Affiliate
		if affiliate == nil {
			loaded, err := s.affiliateRepo.GetByID(*coupon.AffiliateID)
			if err != nil {
				return models.Money{}, err
			}
			if loaded == nil {
				return models.Money{}, ErrAffiliateNotFound
			}
			affiliate = loaded
		}
		percent = affiliate.CommissionRate.Decimal
	}

	commission := amount.Decimal.Mul(percent).Div(decimal.NewFromInt(100))
	return models.NewMoneyFromDecimal(commission), nil
}

// RecordReferral counts one referral against the coupon and its affiliate.
// The coupon row is locked for the duration, the usage increment is guarded
// against the cap, and the affiliate's derived stats are recomputed before
// commit.
func (s *CouponService) RecordReferral(code string) error {
	return s.couponRepo.Transaction(func(tx *gorm.DB) error {
		coupon, err := s.couponRepo.WithTx(tx).GetByCodeForUpdate(code)
		if err != nil {
			return err
		}
		if coupon == nil {
			return ErrCouponNotFound
		}

		rows, err := s.couponRepo.WithTx(tx).IncrementUsedCount(coupon.ID, 1)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrCouponCapReached
		}

		if !coupon.IsAffiliateCode() {
			return nil
		}

		affiliate, err := s.affiliateRepo.WithTx(tx).GetByIDForUpdate(*coupon.AffiliateID)
		if err != nil {
			return err
		}
		if affiliate == nil {
			return ErrAffiliateNotFound
		}

		affiliate.Referrals++
		refreshAffiliateStats(affiliate)
		if err := s.affiliateRepo.WithTx(tx).Update(affiliate); err != nil {
			return err
		}

		return s.entryRepo.WithTx(tx).Create(&models.CommissionEntry{
			AffiliateID: affiliate.ID,
			CouponID:    coupon.ID,
			Kind:        constants.CommissionEntryKindReferral,
		})
	})
}

// RecordConversion counts one conversion for the coupon's affiliate, adds
// the earned commission, and appends a ledger entry. Coupons without an
// affiliate convert silently with no bookkeeping.
func (s *CouponService) RecordConversion(code string, amount models.Money) error {
	return s.recordConversion(code, amount, nil)
}

// RecordConversionForOrder is RecordConversion with the originating order
// attached to the ledger entry.
func (s *CouponService) RecordConversionForOrder(code string, amount models.Money, orderID uint) error {
	return s.recordConversion(code, amount, &orderID)
}

func (s *CouponService) recordConversion(code string, amount models.Money, orderID *uint) error {
	return s.couponRepo.Transaction(func(tx *gorm.DB) error {
		coupon, err := s.couponRepo.WithTx(tx).GetByCodeForUpdate(code)
		if err != nil {
			return err
		}
		if coupon == nil {
			return ErrCouponNotFound
		}
		if !coupon.IsAffiliateCode() {
			return nil
		}

		affiliate, err := s.affiliateRepo.WithTx(tx).GetByIDForUpdate(*coupon.AffiliateID)
		if err != nil {
			return err
		}
		if affiliate == nil {
			return ErrAffiliateNotFound
		}

		var percent decimal.Decimal
		if coupon.CommissionPercent != nil {
			percent = coupon.CommissionPercent.Decimal
		} else {
			percent = affiliate.CommissionRate.Decimal
		}
		commission := models.NewMoneyFromDecimal(
			amount.Decimal.Mul(percent).Div(decimal.NewFromInt(100)))

		affiliate.Conversions++
		affiliate.TotalEarnings = models.NewMoneyFromDecimal(
			affiliate.TotalEarnings.Decimal.Add(commission.Decimal))
		refreshAffiliateStats(affiliate)
		if err := s.affiliateRepo.WithTx(tx).Update(affiliate); err != nil {
			return err
		}

		return s.entryRepo.WithTx(tx).Create(&models.CommissionEntry{
			AffiliateID: affiliate.ID,
			CouponID:    coupon.ID,
			OrderID:     orderID,
			Kind:        constants.CommissionEntryKindConversion,
			Amount:      amount,
			Commission:  commission,
		})
	})
}

// RecordUsage records a referral and a conversion for the same redemption in
// one transaction.
func (s *CouponService) RecordUsage(code string, amount models.Money) error {
	return s.couponRepo.Transaction(func(tx *gorm.DB) error {
		coupon, err := s.couponRepo.WithTx(tx).GetByCodeForUpdate(code)
		if err != nil {
			return err
		}
		if coupon == nil {
			return ErrCouponNotFound
		}

		rows, err := s.couponRepo.WithTx(tx).IncrementUsedCount(coupon.ID, 1)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrCouponCapReached
		}

		if !coupon.IsAffiliateCode() {
			return nil
		}

		affiliate, err := s.affiliateRepo.WithTx(tx).GetByIDForUpdate(*coupon.AffiliateID)
		if err != nil {
			return err
		}
		if affiliate == nil {
			return ErrAffiliateNotFound
		}

		var percent decimal.Decimal
		if coupon.CommissionPercent != nil {
			percent = coupon.CommissionPercent.Decimal
		} else {
			percent = affiliate.CommissionRate.Decimal
		}
		commission := models.NewMoneyFromDecimal(
			amount.Decimal.Mul(percent).Div(decimal.NewFromInt(100)))

		affiliate.Referrals++
		affiliate.Conversions++
		affiliate.TotalEarnings = models.NewMoneyFromDecimal(
			affiliate.TotalEarnings.Decimal.Add(commission.Decimal))
		refreshAffiliateStats(affiliate)
		if err := s.affiliateRepo.WithTx(tx).Update(affiliate); err != nil {
			return err
		}

		entries := []models.CommissionEntry{
			{
				AffiliateID: affiliate.ID,
				CouponID:    coupon.ID,
				Kind:        constants.CommissionEntryKindReferral,
			},
			{
				AffiliateID: affiliate.ID,
				CouponID:    coupon.ID,
				Kind:        constants.CommissionEntryKindConversion,
				Amount:      amount,
				Commission:  commission,
			},
		}
		for i := range entries {
			if err := s.entryRepo.WithTx(tx).Create(&entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReleaseReferral undoes a referral recorded for an order that was never
// paid: usage count drops, the affiliate referral counter drops, and a
// reversal entry is appended. Used by order timeout cancellation.
func (s *CouponService) ReleaseReferral(code string, orderID uint) error {
	return s.couponRepo.Transaction(func(tx *gorm.DB) error {
		coupon, err := s.couponRepo.WithTx(tx).GetByCodeForUpdate(code)
		if err != nil {
			return err
		}
		if coupon == nil {
			return ErrCouponNotFound
		}

		if err := s.couponRepo.WithTx(tx).DecrementUsedCount(coupon.ID, 1); err != nil {
			return err
		}

		if !coupon.IsAffiliateCode() {
			return nil
		}

		affiliate, err := s.affiliateRepo.WithTx(tx).GetByIDForUpdate(*coupon.AffiliateID)
		if err != nil {
			return err
		}
		if affiliate == nil {
			return ErrAffiliateNotFound
		}

		if affiliate.Referrals > 0 {
			affiliate.Referrals--
		}
		refreshAffiliateStats(affiliate)
		if err := s.affiliateRepo.WithTx(tx).Update(affiliate); err != nil {
			return err
		}

		return s.entryRepo.WithTx(tx).Create(&models.CommissionEntry{
			AffiliateID: affiliate.ID,
			CouponID:    coupon.ID,
			OrderID:     &orderID,
			Kind:        constants.CommissionEntryKindReversal,
		})
	})
}

// GetByCode fetches a coupon, nil when unknown.
func (s *CouponService) GetByCode(code string) (*models.Coupon, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, nil
	}
	return s.couponRepo.GetByCode(trimmed)
}

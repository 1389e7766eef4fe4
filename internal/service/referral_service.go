package service

import (
	"strings"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
)

// ReferralService tracks individual prospects through the
// referred -> registered -> converted lifecycle. Each timestamp is written
// at most once; re-marking is a no-op, not an error. Registration may be
// skipped entirely (guest checkout), so converted can follow referred
// directly.
type ReferralService struct {
	referralRepo repository.ReferralRepository
	couponRepo   repository.CouponRepository
}

// NewReferralService creates a referral service.
func NewReferralService(referralRepo repository.ReferralRepository, couponRepo repository.CouponRepository) *ReferralService {
	return &ReferralService{referralRepo: referralRepo, couponRepo: couponRepo}
}

// CreateReferralInput carries referral creation fields.
type CreateReferralInput struct {
	AffiliateID uint
	CouponCode  string
	Email       string
	Name        string
	Source      string
	Medium      string
}

// CreateReferral records a new prospect touch. The coupon must exist, be an
// affiliate code, and belong to the given affiliate.
func (s *ReferralService) CreateReferral(input CreateReferralInput) (*models.Referral, error) {
	code := strings.ToUpper(strings.TrimSpace(input.CouponCode))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if code == "" || email == "" {
		return nil, ErrCouponInvalid
	}

	coupon, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if !coupon.IsAffiliateCode() {
		return nil, ErrCouponNotAffiliate
	}
	if *coupon.AffiliateID != input.AffiliateID {
		return nil, ErrReferralMismatch
	}

	referral := &models.Referral{
		AffiliateID: input.AffiliateID,
		CouponCode:  code,
		Email:       email,
		Name:        strings.TrimSpace(input.Name),
		Source:      strings.TrimSpace(input.Source),
		Medium:      strings.TrimSpace(input.Medium),
		ReferredAt:  time.Now(),
	}
	if err := s.referralRepo.Create(referral); err != nil {
		return nil, err
	}
	return referral, nil
}

// MarkRegistered stamps the registration time once. Already-registered rows
// are left untouched.
func (s *ReferralService) MarkRegistered(id uint) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, ErrReferralNotFound
	}
	if referral.RegisteredAt != nil {
		return referral, nil
	}
	now := time.Now()
	referral.RegisteredAt = &now
	if err := s.referralRepo.Update(referral); err != nil {
		return nil, err
	}
	return referral, nil
}

// MarkRegisteredByCodeAndEmail stamps registration on the latest referral
// for the coupon+email pair, if one exists. Missing rows are ignored so the
// signup flow never fails on referral bookkeeping.
func (s *ReferralService) MarkRegisteredByCodeAndEmail(couponCode, email string) error {
	code := strings.ToUpper(strings.TrimSpace(couponCode))
	addr := strings.ToLower(strings.TrimSpace(email))
	if code == "" || addr == "" {
		return nil
	}
	referral, err := s.referralRepo.GetByCodeAndEmail(code, addr)
	if err != nil {
		return err
	}
	if referral == nil || referral.RegisteredAt != nil {
		return nil
	}
	now := time.Now()
	referral.RegisteredAt = &now
	return s.referralRepo.Update(referral)
}

// GetByCodeAndEmail returns the latest referral for the coupon+email pair,
// nil when none exists.
func (s *ReferralService) GetByCodeAndEmail(couponCode, email string) (*models.Referral, error) {
	code := strings.ToUpper(strings.TrimSpace(couponCode))
	addr := strings.ToLower(strings.TrimSpace(email))
	if code == "" || addr == "" {
		return nil, nil
	}
	return s.referralRepo.GetByCodeAndEmail(code, addr)
}

// MarkConverted stamps the conversion time once and records the converted
// amount and commission. Already-converted rows are left untouched.
func (s *ReferralService) MarkConverted(id uint, amount, commission models.Money) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, ErrReferralNotFound
	}
	if referral.ConvertedAt != nil {
		return referral, nil
	}
	now := time.Now()
	referral.ConvertedAt = &now
	referral.ConversionAmount = amount
	referral.CommissionEarned = commission
	if err := s.referralRepo.Update(referral); err != nil {
		return nil, err
	}
	return referral, nil
}

// MarkConvertedByCodeAndEmail stamps conversion on the latest referral for
// the coupon+email pair, if one exists. Used by the payment confirmation
// flow; a missing row is not an error.
func (s *ReferralService) MarkConvertedByCodeAndEmail(couponCode, email string, amount, commission models.Money) error {
	code := strings.ToUpper(strings.TrimSpace(couponCode))
	addr := strings.ToLower(strings.TrimSpace(email))
	if code == "" || addr == "" {
		return nil
	}
	referral, err := s.referralRepo.GetByCodeAndEmail(code, addr)
	if err != nil {
		return err
	}
	if referral == nil || referral.ConvertedAt != nil {
		return nil
	}
	now := time.Now()
	referral.ConvertedAt = &now
	referral.ConversionAmount = amount
	referral.CommissionEarned = commission
	return s.referralRepo.Update(referral)
}

// Get fetches a referral by ID.
func (s *ReferralService) Get(id uint) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, ErrReferralNotFound
	}
	return referral, nil
}

// List returns referrals matching the filter.
func (s *ReferralService) List(filter repository.ReferralListFilter) ([]models.Referral, int64, error) {
	return s.referralRepo.List(filter)
}

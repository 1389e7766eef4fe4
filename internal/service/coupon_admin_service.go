package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"

	"github.com/shopspring/decimal"
)

// codeGenMaxAttempts bounds sequence-based code generation before falling
// back to a random suffix.
const codeGenMaxAttempts = 5

// CouponAdminService covers admin-side coupon management: CRUD plus
// affiliate code generation. Redemption-side bookkeeping lives in
// CouponService.
type CouponAdminService struct {
	couponRepo    repository.CouponRepository
	affiliateRepo repository.AffiliateRepository
}

// NewCouponAdminService creates a coupon admin service.
func NewCouponAdminService(couponRepo repository.CouponRepository, affiliateRepo repository.AffiliateRepository) *CouponAdminService {
	return &CouponAdminService{couponRepo: couponRepo, affiliateRepo: affiliateRepo}
}

// CreateCouponInput carries coupon creation fields.
type CreateCouponInput struct {
	Code              string
	Description       string
	DiscountPercent   models.Money
	CommissionPercent *models.Money
	MinAmount         models.Money
	MaxUses           int
	AffiliateID       *uint
	ExpiresAt         *time.Time
}

// Create inserts a plain discount coupon.
func (s *CouponAdminService) Create(input CreateCouponInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrCouponInvalid
	}
	if err := validateCouponTerms(input.DiscountPercent, input.CommissionPercent, input.MinAmount, input.MaxUses); err != nil {
		return nil, err
	}
	if input.AffiliateID != nil && *input.AffiliateID != 0 {
		affiliate, err := s.affiliateRepo.GetByID(*input.AffiliateID)
		if err != nil {
			return nil, err
		}
		if affiliate == nil {
			return nil, ErrAffiliateNotFound
		}
	}
	coupon := &models.Coupon{
		Code:              code,
		Description:       strings.TrimSpace(input.Description),
		DiscountPercent:   input.DiscountPercent,
		CommissionPercent: input.CommissionPercent,
		MinAmount:         input.MinAmount,
		MaxUses:           input.MaxUses,
		IsActive:          true,
		AffiliateID:       input.AffiliateID,
		ExpiresAt:         input.ExpiresAt,
	}
	if err := s.couponRepo.Create(coupon); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCouponCodeTaken
		}
		return nil, err
	}
	return coupon, nil
}

// CreateAffiliateCodeInput carries affiliate code generation fields. Code is
// optional; when empty one is derived from the affiliate's initials and a
// per-affiliate sequence.
type CreateAffiliateCodeInput struct {
	AffiliateID       uint
	Code              string
	Description       string
	DiscountPercent   models.Money
	CommissionPercent *models.Money
	MinAmount         models.Money
	MaxUses           int
	ExpiresAt         *time.Time
}

// CreateAffiliateCode creates a referral coupon for an affiliate. An
// explicit code that collides is an error; generated codes retry on the
// sequence a bounded number of times, then fall back to a random suffix.
func (s *CouponAdminService) CreateAffiliateCode(input CreateAffiliateCodeInput) (*models.Coupon, error) {
	if err := validateCouponTerms(input.DiscountPercent, input.CommissionPercent, input.MinAmount, input.MaxUses); err != nil {
		return nil, err
	}
	affiliate, err := s.affiliateRepo.GetByID(input.AffiliateID)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrAffiliateNotFound
	}

	build := func(code string) *models.Coupon {
		id := affiliate.ID
		return &models.Coupon{
			Code:              code,
			Description:       strings.TrimSpace(input.Description),
			DiscountPercent:   input.DiscountPercent,
			CommissionPercent: input.CommissionPercent,
			MinAmount:         input.MinAmount,
			MaxUses:           input.MaxUses,
			IsActive:          true,
			AffiliateID:       &id,
			ExpiresAt:         input.ExpiresAt,
		}
	}

	if explicit := strings.ToUpper(strings.TrimSpace(input.Code)); explicit != "" {
		coupon := build(explicit)
		if err := s.couponRepo.Create(coupon); err != nil {
			if isUniqueViolation(err) {
				return nil, ErrCouponCodeTaken
			}
			return nil, err
		}
		return coupon, nil
	}

	prefix := affiliateInitials(affiliate.Name)
	for attempt := 0; attempt < codeGenMaxAttempts; attempt++ {
		seq, err := s.affiliateRepo.NextCodeSeq(affiliate.ID)
		if err != nil {
			return nil, err
		}
		coupon := build(fmt.Sprintf("%s%03d", prefix, seq))
		if err := s.couponRepo.Create(coupon); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		return coupon, nil
	}

	// Sequence space is polluted; salt with randomness instead.
	suffix, err := randomCodeSuffix(4)
	if err != nil {
		return nil, err
	}
	coupon := build(prefix + suffix)
	if err := s.couponRepo.Create(coupon); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCouponCodeTaken
		}
		return nil, err
	}
	return coupon, nil
}

// UpdateCouponInput carries mutable coupon fields. Nil means keep.
type UpdateCouponInput struct {
	Description       *string
	DiscountPercent   *models.Money
	CommissionPercent *models.Money
	ClearCommission   bool
	MinAmount         *models.Money
	MaxUses           *int
	IsActive          *bool
	ExpiresAt         *time.Time
	ClearExpiresAt    bool
}

// Update edits a coupon. The code, affiliate link, and usage counter are
// immutable after creation.
func (s *CouponAdminService) Update(id uint, input UpdateCouponInput) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if input.Description != nil {
		coupon.Description = strings.TrimSpace(*input.Description)
	}
	if input.DiscountPercent != nil {
		coupon.DiscountPercent = *input.DiscountPercent
	}
	if input.ClearCommission {
		coupon.CommissionPercent = nil
	} else if input.CommissionPercent != nil {
		coupon.CommissionPercent = input.CommissionPercent
	}
	if input.MinAmount != nil {
		coupon.MinAmount = *input.MinAmount
	}
	if input.MaxUses != nil {
		coupon.MaxUses = *input.MaxUses
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}
	if input.ClearExpiresAt {
		coupon.ExpiresAt = nil
	} else if input.ExpiresAt != nil {
		coupon.ExpiresAt = input.ExpiresAt
	}
	if err := validateCouponTerms(coupon.DiscountPercent, coupon.CommissionPercent, coupon.MinAmount, coupon.MaxUses); err != nil {
		return nil, err
	}
	if err := s.couponRepo.Update(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Deactivate turns the coupon off without deleting it. This is the normal
// retirement path for codes that have been used.
func (s *CouponAdminService) Deactivate(id uint) error {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return err
	}
	if coupon == nil {
		return ErrCouponNotFound
	}
	if !coupon.IsActive {
		return nil
	}
	coupon.IsActive = false
	return s.couponRepo.Update(coupon)
}

// Delete soft-deletes a coupon.
func (s *CouponAdminService) Delete(id uint) error {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return err
	}
	if coupon == nil {
		return ErrCouponNotFound
	}
	return s.couponRepo.Delete(id)
}

// Get fetches a coupon by ID.
func (s *CouponAdminService) Get(id uint) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// List returns coupons matching the filter.
func (s *CouponAdminService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(filter)
}

// validateCouponTerms bounds the numeric coupon fields: percentages inside
// 0..100, minimum amount and usage cap non-negative.
func validateCouponTerms(discount models.Money, commission *models.Money, minAmount models.Money, maxUses int) error {
	if !percentInRange(discount.Decimal) {
		return ErrCouponInvalid
	}
	if commission != nil && !percentInRange(commission.Decimal) {
		return ErrCouponInvalid
	}
	if minAmount.Decimal.IsNegative() || maxUses < 0 {
		return ErrCouponInvalid
	}
	return nil
}

func percentInRange(value decimal.Decimal) bool {
	return !value.IsNegative() && value.LessThanOrEqual(decimal.NewFromInt(100))
}

// affiliateInitials derives an uppercase code prefix from a display name.
// "Jane van Dorn" becomes "JVD"; a name with no letters becomes "AF".
func affiliateInitials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}
	if b.Len() == 0 {
		return "AF"
	}
	return b.String()
}

// randomCodeSuffix returns n random bytes hex-encoded and upper-cased.
func randomCodeSuffix(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}

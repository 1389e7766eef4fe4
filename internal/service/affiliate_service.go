package service

import (
	"math"
	"strings"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
)

// tierMinReferrals is the referral volume below which an affiliate is still
// considered new regardless of conversion rate.
const tierMinReferrals = 10

// AffiliateService manages affiliate partner accounts. The referral and
// conversion counters themselves are owned by CouponService; this service
// covers account CRUD, status transitions, and the derived stats.
type AffiliateService struct {
	affiliateRepo repository.AffiliateRepository
	couponRepo    repository.CouponRepository
	referralRepo  repository.ReferralRepository
	entryRepo     repository.CommissionEntryRepository
}

// NewAffiliateService creates an affiliate service.
func NewAffiliateService(
	affiliateRepo repository.AffiliateRepository,
	couponRepo repository.CouponRepository,
	referralRepo repository.ReferralRepository,
	entryRepo repository.CommissionEntryRepository,
) *AffiliateService {
	return &AffiliateService{
		affiliateRepo: affiliateRepo,
		couponRepo:    couponRepo,
		referralRepo:  referralRepo,
		entryRepo:     entryRepo,
	}
}

// conversionRate derives the percentage of referrals that converted,
// rounded to one decimal place. Zero referrals yields zero.
func conversionRate(referrals, conversions int64) float64 {
	if referrals <= 0 {
		return 0
	}
	rate := float64(conversions) / float64(referrals) * 100
	return math.Round(rate*10) / 10
}

// performanceTier buckets an affiliate by volume and conversion rate.
func performanceTier(referrals int64, rate float64) string {
	switch {
	case referrals < tierMinReferrals:
		return constants.AffiliateTierNew
	case rate >= 20:
		return constants.AffiliateTierExcellent
	case rate >= 10:
		return constants.AffiliateTierGood
	default:
		return constants.AffiliateTierPoor
	}
}

// refreshAffiliateStats recomputes the derived fields from the counters.
// Called after every counter mutation, before the row is saved.
func refreshAffiliateStats(affiliate *models.Affiliate) {
	if affiliate == nil {
		return
	}
	affiliate.ConversionRate = conversionRate(affiliate.Referrals, affiliate.Conversions)
	affiliate.PerformanceTier = performanceTier(affiliate.Referrals, affiliate.ConversionRate)
}

// CreateAffiliateInput carries affiliate creation fields.
type CreateAffiliateInput struct {
	Name           string
	Email          string
	CommissionRate models.Money
	Status         string
}

// Create registers a new affiliate account.
func (s *AffiliateService) Create(input CreateAffiliateInput) (*models.Affiliate, error) {
	status := input.Status
	if status == "" {
		status = constants.AffiliateStatusPending
	}
	affiliate := &models.Affiliate{
		Name:            strings.TrimSpace(input.Name),
		Email:           strings.ToLower(strings.TrimSpace(input.Email)),
		Status:          status,
		CommissionRate:  input.CommissionRate,
		PerformanceTier: constants.AffiliateTierNew,
	}
	if err := s.affiliateRepo.Create(affiliate); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAffiliateEmailTaken
		}
		return nil, err
	}
	return affiliate, nil
}

// UpdateAffiliateInput carries mutable affiliate fields. Nil means keep.
type UpdateAffiliateInput struct {
	Name           *string
	CommissionRate *models.Money
}

// Update edits an affiliate's profile fields. Counters and derived stats are
// not editable here.
func (s *AffiliateService) Update(id uint, input UpdateAffiliateInput) (*models.Affiliate, error) {
	affiliate, err := s.affiliateRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrAffiliateNotFound
	}
	if input.Name != nil {
		affiliate.Name = strings.TrimSpace(*input.Name)
	}
	if input.CommissionRate != nil {
		affiliate.CommissionRate = *input.CommissionRate
	}
	if err := s.affiliateRepo.Update(affiliate); err != nil {
		return nil, err
	}
	return affiliate, nil
}

// SetStatus transitions the account status. The status is administrative
// only and never gates referral or conversion recording.
func (s *AffiliateService) SetStatus(id uint, status string) error {
	switch status {
	case constants.AffiliateStatusPending, constants.AffiliateStatusActive, constants.AffiliateStatusSuspended:
	default:
		return ErrAffiliateStatusInvalid
	}
	affiliate, err := s.affiliateRepo.GetByID(id)
	if err != nil {
		return err
	}
	if affiliate == nil {
		return ErrAffiliateNotFound
	}
	return s.affiliateRepo.UpdateStatus(id, status, time.Now())
}

// Get fetches an affiliate by ID.
func (s *AffiliateService) Get(id uint) (*models.Affiliate, error) {
	affiliate, err := s.affiliateRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if affiliate == nil {
		return nil, ErrAffiliateNotFound
	}
	return affiliate, nil
}

// List returns affiliates matching the filter.
func (s *AffiliateService) List(filter repository.AffiliateListFilter) ([]models.Affiliate, int64, error) {
	return s.affiliateRepo.List(filter)
}

// ListCoupons returns the affiliate's coupon codes.
func (s *AffiliateService) ListCoupons(affiliateID uint, page, pageSize int) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(repository.CouponListFilter{
		AffiliateID: affiliateID,
		Page:        page,
		PageSize:    pageSize,
	})
}

// ListReferrals returns the affiliate's referral records.
func (s *AffiliateService) ListReferrals(affiliateID uint, status string, page, pageSize int) ([]models.Referral, int64, error) {
	return s.referralRepo.List(repository.ReferralListFilter{
		AffiliateID: affiliateID,
		Status:      status,
		Page:        page,
		PageSize:    pageSize,
	})
}

// ListCommissionEntries returns the affiliate's ledger entries.
func (s *AffiliateService) ListCommissionEntries(affiliateID uint, kind string, page, pageSize int) ([]models.CommissionEntry, int64, error) {
	return s.entryRepo.List(repository.CommissionEntryListFilter{
		AffiliateID: affiliateID,
		Kind:        kind,
		Page:        page,
		PageSize:    pageSize,
	})
}

// RefreshStats recomputes the derived conversion rate and tier for one
// affiliate from its stored counters. Run nightly over all affiliates to
// heal drift after manual data fixes.
func (s *AffiliateService) RefreshStats(id uint) error {
	affiliate, err := s.affiliateRepo.GetByID(id)
	if err != nil {
		return err
	}
	if affiliate == nil {
		return ErrAffiliateNotFound
	}
	refreshAffiliateStats(affiliate)
	return s.affiliateRepo.Update(affiliate)
}

// RefreshAllStats refreshes every affiliate. Returns the count refreshed and
// the first error encountered, if any.
func (s *AffiliateService) RefreshAllStats() (int, error) {
	ids, err := s.affiliateRepo.ListIDs()
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if err := s.RefreshStats(id); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}

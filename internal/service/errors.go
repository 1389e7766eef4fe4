package service

import (
	"errors"
	"strings"
)

// Sentinel errors returned by services. Handlers map these onto response
// codes with errors.Is.
var (
	// Auth / accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrCaptchaInvalid     = errors.New("captcha invalid")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserStatusInvalid  = errors.New("user status invalid")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrPasswordTooWeak    = errors.New("password too weak")

	// Coupons.
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponInvalid      = errors.New("coupon invalid")
	ErrCouponCodeTaken    = errors.New("coupon code already exists")
	ErrCouponNotAffiliate = errors.New("coupon is not an affiliate code")
	ErrCouponCapReached   = errors.New("coupon usage cap reached")

	// Affiliates.
	ErrAffiliateNotFound      = errors.New("affiliate not found")
	ErrAffiliateEmailTaken    = errors.New("affiliate email already registered")
	ErrAffiliateStatusInvalid = errors.New("affiliate status invalid")

	// Referrals.
	ErrReferralNotFound = errors.New("referral not found")
	ErrReferralMismatch = errors.New("coupon does not belong to affiliate")

	// Plans / subscriptions / orders / payments.
	ErrPlanNotFound          = errors.New("plan not found")
	ErrPlanCodeTaken         = errors.New("plan code already exists")
	ErrPlanInactive          = errors.New("plan inactive")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderNotPayable       = errors.New("order not payable")
	ErrBillingCycleInvalid   = errors.New("billing cycle invalid")
	ErrWebhookSignature      = errors.New("webhook signature invalid")
	ErrPaymentAmountMismatch = errors.New("payment amount mismatch")

	// Tickets.
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrTicketInvalid   = errors.New("ticket subject or body empty")
	ErrTicketClosed    = errors.New("ticket closed")
	ErrTicketForbidden = errors.New("ticket belongs to another user")
)

// isUniqueViolation reports whether err looks like a unique constraint
// violation. Driver error types differ between postgres and sqlite, so the
// check is by message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

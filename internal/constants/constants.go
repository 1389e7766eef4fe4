package constants

// Order statuses.
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusCanceled       = "canceled"
	OrderStatusExpired        = "expired"
)

// Billing cycles for subscription orders.
const (
	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)

// Payment statuses.
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusPending   = "pending"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
	PaymentStatusExpired   = "expired"
)

// Subscription statuses.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusExpired  = "expired"
)

// Affiliate account statuses. Status is administrative only; referral and
// conversion recording do not consult it.
const (
	AffiliateStatusPending   = "pending"
	AffiliateStatusActive    = "active"
	AffiliateStatusSuspended = "suspended"
)

// Affiliate performance tiers, derived from conversion rate and volume.
const (
	AffiliateTierNew       = "new"
	AffiliateTierPoor      = "poor"
	AffiliateTierGood      = "good"
	AffiliateTierExcellent = "excellent"
)

// Referral record lifecycle labels, derived from timestamps.
const (
	ReferralStatusReferred   = "referred"
	ReferralStatusRegistered = "registered"
	ReferralStatusConverted  = "converted"
)

// Commission ledger entry kinds.
const (
	CommissionEntryKindReferral   = "referral"
	CommissionEntryKindConversion = "conversion"
	CommissionEntryKindReversal   = "reversal"
)

// Support ticket statuses.
const (
	TicketStatusOpen     = "open"
	TicketStatusAnswered = "answered"
	TicketStatusClosed   = "closed"
)

// Support ticket priorities.
const (
	TicketPriorityLow    = "low"
	TicketPriorityNormal = "normal"
	TicketPriorityHigh   = "high"
)

// Ticket message author types.
const (
	TicketAuthorUser  = "user"
	TicketAuthorAdmin = "admin"
)

// User account statuses.
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Async task type names.
const (
	TaskTicketNotifyEmail     = "ticket:notify_email"
	TaskOrderTimeoutCancel    = "order:timeout_cancel"
	TaskAffiliateStatsRefresh = "affiliate:stats_refresh"
)

// Queue names.
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// Captcha scenes.
const (
	CaptchaSceneAdminLogin = "admin_login"
	CaptchaSceneUserLogin  = "user_login"
)

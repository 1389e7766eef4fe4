package provider

import (
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/authz"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/cache"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/config"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/logger"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/queue"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/service"
)

// Container wires repositories and services once at startup.
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo           repository.AdminRepository
	UserRepo            repository.UserRepository
	AffiliateRepo       repository.AffiliateRepository
	CouponRepo          repository.CouponRepository
	ReferralRepo        repository.ReferralRepository
	CommissionEntryRepo repository.CommissionEntryRepository
	PlanRepo            repository.PlanRepository
	SubscriptionRepo    repository.SubscriptionRepository
	OrderRepo           repository.OrderRepository
	PaymentRepo         repository.PaymentRepository
	TicketRepo          repository.TicketRepository
	AuthzAuditLogRepo   repository.AuthzAuditLogRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	EmailService        *service.EmailService
	CaptchaService      *service.CaptchaService
	CouponService       *service.CouponService
	CouponAdminService  *service.CouponAdminService
	AffiliateService    *service.AffiliateService
	ReferralService     *service.ReferralService
	PlanService         *service.PlanService
	SubscriptionService *service.SubscriptionService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	TicketService       *service.TicketService
	AuthzAuditService   *service.AuthzAuditService
}

// NewContainer initializes the container.
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.AffiliateRepo = repository.NewAffiliateRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.CommissionEntryRepo = repository.NewCommissionEntryRepository(db)
	c.PlanRepo = repository.NewPlanRepository(db)
	c.SubscriptionRepo = repository.NewSubscriptionRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.TicketRepo = repository.NewTicketRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)

	c.CouponService = service.NewCouponService(c.CouponRepo, c.AffiliateRepo, c.ReferralRepo, c.CommissionEntryRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo, c.AffiliateRepo)
	c.AffiliateService = service.NewAffiliateService(c.AffiliateRepo, c.CouponRepo, c.ReferralRepo, c.CommissionEntryRepo)
	c.ReferralService = service.NewReferralService(c.ReferralRepo, c.CouponRepo)

	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.ReferralService)
	c.PlanService = service.NewPlanService(c.PlanRepo)
	c.SubscriptionService = service.NewSubscriptionService(c.SubscriptionRepo)
	c.OrderService = service.NewOrderService(c.Config, c.OrderRepo, c.PlanRepo, c.UserRepo, c.CouponService, c.ReferralService, c.QueueClient)
	c.PaymentService = service.NewPaymentService(c.Config, c.PaymentRepo, c.OrderRepo, c.SubscriptionRepo, c.UserRepo, c.CouponService, c.ReferralService)
	c.TicketService = service.NewTicketService(c.TicketRepo, c.UserRepo, c.QueueClient)
}

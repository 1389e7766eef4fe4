package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/authz"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/cache"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/config"
	adminhandlers "github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/handlers/admin"
	publichandlers "github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/handlers/public"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/http/response"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/logger"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the gin engine with all API routes.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "tl"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// Open endpoints
		public := apiV1.Group("/public")
		{
			public.GET("/plans", publicHandler.GetPlans)
			public.GET("/captcha/image", publicHandler.GetCaptcha)
		}

		// Customer authentication
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// Gateway notification, authenticated by HMAC signature
		apiV1.POST("/payments/webhook", publicHandler.PaymentWebhook)

		// Customer endpoints
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetProfile)
			user.PUT("/me/profile", publicHandler.UpdateProfile)
			user.PUT("/me/password", publicHandler.ChangePassword)

			user.POST("/orders", publicHandler.CreateOrder)
			user.POST("/orders/preview", publicHandler.PreviewOrder)
			user.GET("/orders", publicHandler.GetOrders)
			user.GET("/orders/:order_no", publicHandler.GetOrder)
			user.POST("/orders/:order_no/cancel", publicHandler.CancelOrder)
			user.POST("/payments", publicHandler.InitiatePayment)

			user.GET("/subscription", publicHandler.GetSubscription)
			user.POST("/subscription/cancel", publicHandler.CancelSubscription)

			user.POST("/tickets", publicHandler.OpenTicket)
			user.GET("/tickets", publicHandler.GetTickets)
			user.GET("/tickets/:id", publicHandler.GetTicket)
			user.POST("/tickets/:id/reply", publicHandler.ReplyTicket)
			user.POST("/tickets/:id/close", publicHandler.CloseTicket)
		}

		// Management endpoints
		admin := apiV1.Group("/admin")
		{
			admin.GET("/captcha/image", adminHandler.GetCaptcha)
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.Login)

			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				authorized.GET("/me", adminHandler.Me)
				authorized.PUT("/password", adminHandler.ChangePassword)

				// Coupons
				authorized.POST("/coupons", adminHandler.CreateCoupon)
				authorized.GET("/coupons", adminHandler.GetCoupons)
				authorized.GET("/coupons/:id", adminHandler.GetCoupon)
				authorized.PUT("/coupons/:id", adminHandler.UpdateCoupon)
				authorized.POST("/coupons/:id/deactivate", adminHandler.DeactivateCoupon)
				authorized.DELETE("/coupons/:id", adminHandler.DeleteCoupon)

				// Affiliates
				authorized.POST("/affiliates", adminHandler.CreateAffiliate)
				authorized.GET("/affiliates", adminHandler.GetAffiliates)
				authorized.GET("/affiliates/:id", adminHandler.GetAffiliate)
				authorized.PUT("/affiliates/:id", adminHandler.UpdateAffiliate)
				authorized.PATCH("/affiliates/:id/status", adminHandler.SetAffiliateStatus)
				authorized.POST("/affiliates/:id/codes", adminHandler.CreateAffiliateCode)
				authorized.GET("/affiliates/:id/codes", adminHandler.GetAffiliateCoupons)
				authorized.GET("/affiliates/:id/referrals", adminHandler.GetAffiliateReferrals)
				authorized.GET("/affiliates/:id/commission-entries", adminHandler.GetAffiliateCommissionEntries)
				authorized.POST("/affiliates/:id/refresh-stats", adminHandler.RefreshAffiliateStats)

				// Referrals
				authorized.POST("/referrals", adminHandler.CreateReferral)
				authorized.GET("/referrals", adminHandler.GetReferrals)
				authorized.GET("/referrals/:id", adminHandler.GetReferral)

				// Plans
				authorized.POST("/plans", adminHandler.CreatePlan)
				authorized.GET("/plans", adminHandler.GetAdminPlans)
				authorized.PUT("/plans/:id", adminHandler.UpdatePlan)
				authorized.DELETE("/plans/:id", adminHandler.DeletePlan)

				// Orders, payments, subscriptions
				authorized.GET("/orders", adminHandler.GetOrders)
				authorized.GET("/orders/:id", adminHandler.GetOrder)
				authorized.GET("/orders/:id/payments", adminHandler.GetOrderPayments)
				authorized.GET("/subscriptions", adminHandler.GetSubscriptions)

				// Tickets
				authorized.GET("/tickets", adminHandler.GetTickets)
				authorized.GET("/tickets/:id", adminHandler.GetTicket)
				authorized.POST("/tickets/:id/reply", adminHandler.ReplyTicket)
				authorized.POST("/tickets/:id/assign", adminHandler.AssignTicket)
				authorized.POST("/tickets/:id/close", adminHandler.CloseTicket)

				// Users
				authorized.GET("/users", adminHandler.GetUsers)
				authorized.PATCH("/users/:id/status", adminHandler.SetUserStatus)

				// Authorization management
				authorized.GET("/authz/roles", adminHandler.GetRoles)
				authorized.POST("/authz/roles", adminHandler.CreateRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetRolePolicies)
				authorized.POST("/authz/roles/:role/policies", adminHandler.GrantRolePolicy)
				authorized.DELETE("/authz/roles/:role/policies", adminHandler.RevokeRolePolicy)
				authorized.GET("/authz/admins", adminHandler.GetAdmins)
				authorized.POST("/authz/admins", adminHandler.CreateAdmin)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAdminRoles)
				authorized.GET("/authz/admins/:id/policies", adminHandler.GetAdminPolicies)
				authorized.GET("/authz/audit-logs", adminHandler.GetAuthzAuditLogs)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
			}
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildAdminPermissionCatalog enumerates the grantable admin permissions
// from the registered routes, so role editors never guess at objects.
func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" || item.Path == "/api/v1/admin/captcha/image" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}

package main

import (
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/config"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/logger"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	plans := []models.Plan{
		{
			Code:         "basic",
			Name:         "Basic",
			Description:  "Daily journaling with standard export",
			PriceMonthly: models.NewMoneyFromFloat(4.99),
			PriceYearly:  models.NewMoneyFromFloat(49.90),
			SortOrder:    1,
			IsActive:     true,
		},
		{
			Code:         "pro",
			Name:         "Pro",
			Description:  "Unlimited entries, attachments and full-text search",
			PriceMonthly: models.NewMoneyFromFloat(9.99),
			PriceYearly:  models.NewMoneyFromFloat(99.90),
			SortOrder:    2,
			IsActive:     true,
		},
		{
			Code:         "team",
			Name:         "Team",
			Description:  "Shared workspaces for small teams",
			PriceMonthly: models.NewMoneyFromFloat(24.99),
			PriceYearly:  models.NewMoneyFromFloat(249.90),
			SortOrder:    3,
			IsActive:     true,
		},
	}

	for _, plan := range plans {
		var existing models.Plan
		if err := models.DB.Where("code = ?", plan.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&plan).Error; err != nil {
				stdLog.Printf("Failed to create plan %s: %v", plan.Code, err)
			} else {
				stdLog.Printf("Created plan: %s", plan.Code)
			}
		} else {
			stdLog.Printf("Plan already exists: %s", plan.Code)
		}
	}

	if err := models.InitDefaultAdmin("", ""); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	affiliate := models.Affiliate{
		Name:           "Demo Partner",
		Email:          "partner@example.com",
		Status:         constants.AffiliateStatusActive,
		CommissionRate: models.NewMoneyFromFloat(25),
	}
	var existingAffiliate models.Affiliate
	if err := models.DB.Where("email = ?", affiliate.Email).First(&existingAffiliate).Error; err != nil {
		if err := models.DB.Create(&affiliate).Error; err != nil {
			stdLog.Printf("Failed to create demo affiliate: %v", err)
		} else {
			stdLog.Printf("Created demo affiliate: %s", affiliate.Email)
			existingAffiliate = affiliate
		}
	} else {
		stdLog.Printf("Demo affiliate already exists: %s", affiliate.Email)
	}

	if existingAffiliate.ID != 0 {
		coupon := models.Coupon{
			Code:            "DEMO10",
			Description:     "Demo partner referral code",
			DiscountPercent: models.NewMoneyFromFloat(10),
			AffiliateID:     &existingAffiliate.ID,
			IsActive:        true,
		}
		var existingCoupon models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existingCoupon).Error; err != nil {
			if err := models.DB.Create(&coupon).Error; err != nil {
				stdLog.Printf("Failed to create demo coupon: %v", err)
			} else {
				stdLog.Printf("Created demo coupon: %s", coupon.Code)
			}
		} else {
			stdLog.Printf("Demo coupon already exists: %s", coupon.Code)
		}
	}

	stdLog.Printf("Seed finished")
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/harborwell/shipstock/api/rest"
	"github.com/harborwell/shipstock/audit"
	"github.com/harborwell/shipstock/cache"
	"github.com/harborwell/shipstock/config"
	dbadapter "github.com/harborwell/shipstock/db"
	"github.com/harborwell/shipstock/hook"
	"github.com/harborwell/shipstock/model"
	"github.com/harborwell/shipstock/resource"
	"github.com/harborwell/shipstock/scheduler"
	"github.com/harborwell/shipstock/stock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		log.Fatal("security.jwt_secret must be set")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	seedAdmin(db, logger)

	if cfg.Server.CatalogPath != "" {
		cats, err := resource.NewLoader(cfg.Server.CatalogPath).Load()
		if err != nil {
			logger.Warn("catalog load failed", zap.Error(err))
		} else if _, err := resource.Seed(db, cats, logger); err != nil {
			logger.Warn("catalog seed failed", zap.Error(err))
		}
	}

	// ---- Audit ----
	auditSvc := audit.New(db, cfg.Audit, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Stock mutation service ----
	stockSvc := stock.NewService(db, auditSvc, logger)

	hooks := hook.NewCenter()
	hooks.Register(hook.OnItemClaimed, 0, "low_stock_alert", func(ctx context.Context, _ string, data interface{}) (interface{}, error) {
		ev := data.(hook.StockEvent)
		var line model.InventoryLine
		err := db.Where("ship_id = ? AND item_id = ?", ev.ShipID, ev.ItemID).First(&line).Error
		if err == nil && line.Threshold != nil && line.Quantity <= *line.Threshold {
			logger.Warn("stock at or below threshold",
				zap.Int64("ship_id", ev.ShipID),
				zap.Int64("item_id", ev.ItemID),
				zap.Int("quantity", line.Quantity),
				zap.Int("threshold", *line.Threshold))
		}
		return data, nil
	})
	stockSvc.SetHooks(hooks)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	sched.Every("low_stock_scan", 10*time.Minute, func() {
		var n int64
		err := db.Model(&model.InventoryLine{}).
			Where("threshold IS NOT NULL AND quantity <= threshold").
			Count(&n).Error
		if err != nil {
			logger.Warn("low stock scan failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Warn("inventory lines at or below threshold", zap.Int64("count", n))
		}
	})
	if cfg.Audit.RetentionDays > 0 {
		sched.Every("audit_prune", 24*time.Hour, func() {
			cutoff := time.Now().AddDate(0, 0, -cfg.Audit.RetentionDays)
			res := db.Where("created_at < ?", cutoff).Delete(&model.AuditLog{})
			if res.Error != nil {
				logger.Warn("audit prune failed", zap.Error(res.Error))
				return
			}
			if res.RowsAffected > 0 {
				logger.Info("pruned audit rows", zap.Int64("rows", res.RowsAffected))
			}
		})
	}

	// ---- HTTP Server ----
	r := rest.NewRouter(rest.Deps{
		DB:     db,
		Cache:  c,
		Stock:  stockSvc,
		Audit:  auditSvc,
		Config: cfg,
		Logger: logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// seedAdmin creates the initial admin account on an empty user table so the
// console is reachable after first boot. The password must be changed.
func seedAdmin(db *gorm.DB, logger *zap.Logger) {
	var n int64
	if err := db.Model(&model.User{}).Count(&n).Error; err != nil || n > 0 {
		return
	}
	pw := os.Getenv("SHIPSTOCK_ADMIN_PASSWORD")
	if pw == "" {
		pw = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		logger.Warn("admin seed failed", zap.Error(err))
		return
	}
	admin := model.User{
		Username:     "admin",
		PasswordHash: string(hash),
		Name:         "Administrator",
		Role:         model.RoleAdmin,
		Status:       1,
	}
	if err := db.Create(&admin).Error; err != nil {
		logger.Warn("admin seed failed", zap.Error(err))
		return
	}
	logger.Info("seeded initial admin user", zap.String("username", admin.Username))
}

// Package app wires configuration, storage and services together for the
// server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"carpool/internal/config"
	"carpool/internal/handler"
	"carpool/internal/logger"
	"carpool/internal/metrics"
	"carpool/internal/middleware"
	"carpool/internal/service"
	"carpool/internal/store"
)

type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Store   *store.Store
	Metrics *metrics.Metrics
	JWT     *middleware.JWT

	Auth     *service.AuthService
	Schedule *service.ScheduleService
	Roster   *service.RosterService
	Audit    *service.AuditService
	Diag     *service.DiagService
	// Catalog is nil unless an MOI API key is configured.
	Catalog *service.CatalogSync
}

// New opens and migrates the database, seeds the roster and admin account,
// and builds every service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	db, err := cfg.OpenGormDB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a := &App{Config: cfg, DB: db}
	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config
	if err := store.Migrate(ctx, a.DB); err != nil {
		return err
	}
	a.Store = store.New(a.DB)

	adminHash, err := service.HashPassword(cfg.Auth.AdminPassword)
	if err != nil {
		return fmt.Errorf("admin password: %w", err)
	}
	if err := a.Store.Seed(ctx, cfg.SeedMembers(), cfg.Auth.AdminUser, adminHash); err != nil {
		return err
	}
	if cfg.Auth.AdminPassword == config.Default().Auth.AdminPassword {
		logger.Warn("auth.default_admin_password", "username", cfg.Auth.AdminUser)
	}

	policy, _ := cfg.CreditPolicy()
	loc, _ := cfg.Location()

	a.Metrics = metrics.New()

	cache, err := service.NewCreditCache(cfg.Credits.CacheSize, a.Metrics)
	if err != nil {
		return fmt.Errorf("credit cache: %w", err)
	}

	a.Auth = service.NewAuthService(a.Store)
	a.JWT = middleware.NewJWT(cfg.Auth.JWTSecret, cfg.TokenTTL()).WithUsers(a.Auth)
	a.Schedule = service.NewScheduleService(a.Store, cache, service.ScheduleOptions{
		Policy:         policy,
		AdminOnlyEdits: cfg.Schedule.AdminOnlyEdits,
		Location:       loc,
	}).WithMetrics(a.Metrics)
	a.Roster = service.NewRosterService(a.Store)
	a.Audit = service.NewAuditService(a.Store)
	path := cfg.Database.Path
	if cfg.Database.Driver == config.DriverMySQL {
		path = cfg.Database.Host + "/" + cfg.Database.Name
	}
	a.Diag = service.NewDiagService(a.Store, cfg.Database.Driver, path)

	if cfg.MOI.APIKey != "" {
		raw, err := cfg.NewRawClient()
		if err != nil {
			logger.Warn("catalog sync disabled", "err", err)
		} else {
			a.Catalog = service.NewCatalogSync(raw, service.CatalogTables{
				DatabaseID:     cfg.MOI.DatabaseID,
				MembersTableID: cfg.MOI.MembersTableID,
				EntriesTableID: cfg.MOI.EntriesTableID,
			}, a.Metrics)
			a.Schedule.WithSyncer(a.Catalog)
			a.Roster.WithSyncer(a.Catalog)
			logger.Info("catalog sync enabled", "database", cfg.MOI.DatabaseID)
		}
	}

	logger.Info("app.ready", "driver", cfg.Database.Driver, "policy", policy, "admin_only_edits", cfg.Schedule.AdminOnlyEdits)
	return nil
}

func (a *App) Router() *gin.Engine {
	return handler.NewRouter(handler.Deps{
		Auth:        a.Auth,
		Schedule:    a.Schedule,
		Roster:      a.Roster,
		Audit:       a.Audit,
		Diag:        a.Diag,
		JWT:         a.JWT,
		Metrics:     a.Metrics,
		Ping:        a.Store.Ping,
		CORSOrigins: a.Config.Server.CORSOrigins,
	})
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

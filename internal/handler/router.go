package handler

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"carpool/internal/metrics"
	"carpool/internal/middleware"
	"carpool/internal/service"
)

// Deps are the services the HTTP layer is built from.
type Deps struct {
	Auth     *service.AuthService
	Schedule *service.ScheduleService
	Roster   *service.RosterService
	Audit    *service.AuditService
	Diag     *service.DiagService
	JWT      *middleware.JWT
	Metrics  *metrics.Metrics
	// Ping reports database health for /health.
	Ping        func(ctx context.Context) error
	CORSOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	authH := NewAuthHandler(d.Auth, d.JWT)
	schedH := NewScheduleHandler(d.Schedule)
	adminH := NewAdminHandler(d.Auth, d.Roster, d.Audit, d.Diag)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Observe(d.Metrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-New-Token", "Content-Disposition"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	r.POST("/api/login", authH.Login)

	api := r.Group("/api", d.JWT.Auth())
	api.GET("/me", authH.Me)
	api.POST("/account/password", authH.ChangePassword)
	api.GET("/today", schedH.Today)
	api.GET("/days/:day", schedH.GetDay)
	api.PUT("/days/:day", schedH.SaveDay)
	api.GET("/history", schedH.History)
	api.GET("/stats", schedH.Stats)

	admin := api.Group("/admin", middleware.RequireAdmin())
	admin.GET("/users", adminH.ListUsers)
	admin.POST("/users", adminH.SaveUser)
	admin.POST("/users/:username/reset", adminH.ResetUser)
	admin.GET("/members", adminH.ListMembers)
	admin.PATCH("/members/:key", adminH.SetMemberActive)
	admin.GET("/audit", adminH.Audit)
	admin.GET("/audit/export", adminH.ExportAudit)
	admin.GET("/diag", adminH.Diag)

	return r
}

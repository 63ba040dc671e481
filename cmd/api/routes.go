package main

import (
	"database/sql"
	"net/http"
	"time"

	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/rbac"
	"callcenter-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal
// modules.
func registerRoutes(
	r *gin.Engine,
	h httpapi.Handlers,
	authManager *auth.Manager,
	auditSvc *audit.Service,
	db *sql.DB,
	rdb *redis.Client,
	recordingDir string,
) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Recorded audio artifacts. The audit middleware skips this prefix.
	r.Static("/media/recordings", recordingDir)

	v1 := r.Group("/v1")
	// Optional identity lets the audit middleware attribute rows on public
	// endpoints too.
	v1.Use(auth.OptionalAccessToken(authManager))
	v1.Use(audit.Middleware(auditSvc))
	{
		v1.POST("/auth/login", h.Login)

		v1.GET("/dashboard", h.Dashboard)
		v1.GET("/companies", h.ListCompanies)
		v1.GET("/companies/status", h.CompanyStatuses)
		v1.GET("/users/stats", h.UserStats)
		v1.GET("/export", h.Export)
		v1.POST("/export", h.Export)

		authed := v1.Group("")
		authed.Use(auth.RequireAccessToken(authManager))
		{
			authed.POST("/auth/logout", h.Logout)
			authed.GET("/me", h.Me)
			authed.POST("/companies/:id/reset", h.ResetCompany)

			// The destructive replace-all import stays supervisor-only.
			imports := authed.Group("/companies/import")
			imports.Use(rbac.RequireAnyRole(rbac.RoleSupervisor))
			{
				imports.POST("", h.ImportPreview)
				imports.POST("/confirm", h.ImportConfirm)
			}

			calls := authed.Group("/calls")
			calls.Use(rbac.RequireAnyRole(rbac.RoleAgent, rbac.RoleSupervisor))
			{
				calls.GET("", h.CallList)
				calls.GET("/:company_id/form", h.OpenCallForm)
				calls.POST("/:company_id", h.SubmitCall)
			}
		}
	}
}

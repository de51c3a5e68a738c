// Package admin registers the administrative API surface.
package admin

import (
	"github.com/excing/credits-starter-kit/internal/config"
	apphttp "github.com/excing/credits-starter-kit/internal/http"
	"github.com/excing/credits-starter-kit/internal/http/api/admin/handlers"
	"github.com/excing/credits-starter-kit/internal/ledger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterRoutes wires the admin endpoints behind the email allow-list.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, l *ledger.Ledger) {
	packagesHandler := handlers.NewPackagesHandler(l)
	codesHandler := handlers.NewCodesHandler(l)
	refundHandler := handlers.NewRefundHandler(l)

	group := r.Group("/api/admin")
	group.Use(apphttp.UserAuthMiddleware(db, cfg.JWT), apphttp.AdminOnlyMiddleware(cfg))
	{
		group.POST("/packages", packagesHandler.Create)
		group.GET("/packages", packagesHandler.List)
		group.PUT("/packages/:id", packagesHandler.Update)

		group.POST("/codes", codesHandler.Create)
		group.GET("/codes", codesHandler.List)
		group.GET("/codes/:id/redemptions", codesHandler.Redemptions)
		group.POST("/codes/:id/deactivate", codesHandler.Deactivate)

		group.POST("/transactions/:id/refund", refundHandler.Refund)
	}
}

// Package front registers the user-facing API surface.
package front

import (
	"github.com/excing/credits-starter-kit/internal/ai"
	"github.com/excing/credits-starter-kit/internal/config"
	apphttp "github.com/excing/credits-starter-kit/internal/http"
	"github.com/excing/credits-starter-kit/internal/http/api/front/handlers"
	"github.com/excing/credits-starter-kit/internal/ledger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterRoutes wires the public and authenticated user endpoints.
// billingMW must run after authentication so the precheck sees the user.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, l *ledger.Ledger, billingMW gin.HandlerFunc, chatClient *ai.Client) {
	authHandler := handlers.NewAuthHandler(db, cfg.JWT)
	creditsHandler := handlers.NewCreditsHandler(l)
	chatHandler := handlers.NewChatHandler(chatClient)
	uploadHandler := handlers.NewUploadHandler(cfg.Upload)

	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)

	authed := r.Group("/api")
	authed.Use(apphttp.UserAuthMiddleware(db, cfg.JWT), billingMW)
	{
		authed.GET("/credits/balance", creditsHandler.Balance)
		authed.GET("/credits/transactions", creditsHandler.Transactions)
		authed.POST("/credits/redeem", creditsHandler.Redeem)

		authed.POST("/chat", chatHandler.Stream)
		authed.POST("/upload-image", uploadHandler.Image)
	}
}

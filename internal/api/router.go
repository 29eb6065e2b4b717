package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/castilhosApc/financeiro-ledger/internal/api/handler"
	"github.com/castilhosApc/financeiro-ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	postingHandler *handler.PostingHandler,
	balanceHandler *handler.BalanceHandler,
	contactHandler *handler.ContactHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Posting mutations and lookups
		postings := v1.Group("/postings")
		{
			postings.POST("", postingHandler.Create)
			postings.GET("/:id", postingHandler.GetByID)
			postings.PUT("/:id", postingHandler.Update)
			postings.DELETE("/:id", postingHandler.Delete)
		}

		// Per-owner reads
		owners := v1.Group("/owners")
		{
			owners.GET("/:id/postings", postingHandler.ListByOwner)
			owners.GET("/:id/balance", balanceHandler.GetBalance)
			owners.GET("/:id/stats", balanceHandler.GetStats)
		}

		// Contact directory
		contacts := v1.Group("/contacts")
		{
			contacts.GET("", contactHandler.Search)
			contacts.GET("/:id", contactHandler.GetByID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}

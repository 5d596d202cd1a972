package server

import (
	"net/http"

	"auction-engine/internal/metrics"
	handler "auction-engine/services/bidding/handler"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Dependencies are the optional collaborators of the router. Nil fields are skipped.
type Dependencies struct {
	Metrics    metrics.Recorder
	Gatherer   prometheus.Gatherer
	BidLimiter *BidLimiter
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(biddingService handler.BiddingServiceInterface, deps Dependencies) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	router.Use(gin.Recovery())                    // recover from panics
	router.Use(RequestLoggerMiddleware(recorder)) // custom request logging

	biddingHandler := handler.NewBiddingHandler(biddingService)

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "service is healthy")
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	bidChain := []gin.HandlerFunc{RequireUser}
	if deps.BidLimiter != nil {
		bidChain = append(bidChain, deps.BidLimiter.Middleware)
	}
	bidChain = append(bidChain, biddingHandler.PlaceBidHandler)

	items := router.Group("/items")
	{
		items.POST("", RequireUser, biddingHandler.CreateItemHandler)
		items.GET("", biddingHandler.ListItemsHandler)
		items.GET("/:item_id", biddingHandler.GetItemHandler)
		items.POST("/:item_id/bids", bidChain...)
		items.GET("/:item_id/bids", biddingHandler.GetBidsByItemHandler)
		items.GET("/:item_id/winner", biddingHandler.GetWinnerHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/items", biddingHandler.GetItemsBySellerHandler)
	}

	return router
}

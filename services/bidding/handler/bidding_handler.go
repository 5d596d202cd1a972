package handler

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_service.go -package=handler

import (
	"context"
	"net/http"

	model "auction-engine/internal/models"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

type BiddingServiceInterface interface {
	CreateItem(ctx context.Context, item model.Item) (model.Item, error)
	GetItem(ctx context.Context, itemID string) (model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	GetItemsBySeller(ctx context.Context, sellerID string) ([]model.Item, error)
	PlaceBid(ctx context.Context, itemID, userID string, amount float64) (model.Item, error)
	GetBidsForItem(ctx context.Context, itemID string) ([]model.Bid, error)
	ResolveWinner(ctx context.Context, itemID string) (string, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// CreateItemHandler handles POST /items
func (h *BiddingHandler) CreateItemHandler(c *gin.Context) {
	var req helpers.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateItemHandler", err)
		return
	}

	sellerID := helpers.CurrentUser(c)
	item, err := h.service.CreateItem(c.Request.Context(), req.ToItem(sellerID))
	if err != nil {
		helpers.RespondWithError(c, "CreateItemHandler", err, map[string]any{"seller_id": sellerID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewItemResponse(item), "item created successfully")
	helpers.LogSuccess("CreateItemHandler", "item created successfully", map[string]any{
		"item_id":   item.ItemID,
		"seller_id": sellerID,
	})
}

// ListItemsHandler handles GET /items
func (h *BiddingHandler) ListItemsHandler(c *gin.Context) {
	items, err := h.service.ListItems(c.Request.Context())
	if err != nil {
		helpers.RespondWithError(c, "ListItemsHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponses(items), "items retrieved successfully")
}

// GetItemHandler handles GET /items/:item_id
func (h *BiddingHandler) GetItemHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	item, err := h.service.GetItem(c.Request.Context(), itemID)
	if err != nil {
		helpers.RespondWithError(c, "GetItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponse(item), "item retrieved successfully")
}

// PlaceBidHandler handles POST /items/:item_id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	itemID := c.Param("item_id")
	userID := helpers.CurrentUser(c)
	item, err := h.service.PlaceBid(c.Request.Context(), itemID, userID, req.Amount)
	if err != nil {
		helpers.RespondWithError(c, "PlaceBidHandler", err, map[string]any{
			"item_id": itemID,
			"user_id": userID,
			"amount":  req.Amount,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewItemResponse(item), "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"item_id":  itemID,
		"user_id":  userID,
		"amount":   req.Amount,
		"end_date": item.EndDate,
	})
}

// GetBidsByItemHandler handles GET /items/:item_id/bids
func (h *BiddingHandler) GetBidsByItemHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	bids, err := h.service.GetBidsForItem(c.Request.Context(), itemID)
	if err != nil {
		helpers.RespondWithError(c, "GetBidsByItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByItemHandler", "bids retrieved successfully", map[string]any{
		"item_id": itemID,
		"count":   len(bids),
	})
}

// GetWinnerHandler handles GET /items/:item_id/winner
func (h *BiddingHandler) GetWinnerHandler(c *gin.Context) {
	itemID := c.Param("item_id")
	contact, err := h.service.ResolveWinner(c.Request.Context(), itemID)
	if err != nil {
		helpers.RespondWithError(c, "GetWinnerHandler", err, map[string]any{"item_id": itemID})
		return
	}

	resp := helpers.WinnerResponse{ItemID: itemID, Contact: contact}
	utils.JSONResponse(c, http.StatusOK, resp, "Winner for the item auction is "+contact)
	helpers.LogSuccess("GetWinnerHandler", "winner resolved", map[string]any{"item_id": itemID})
}

// GetItemsBySellerHandler handles GET /users/:user_id/items
func (h *BiddingHandler) GetItemsBySellerHandler(c *gin.Context) {
	sellerID := c.Param("user_id")
	items, err := h.service.GetItemsBySeller(c.Request.Context(), sellerID)
	if err != nil {
		helpers.RespondWithError(c, "GetItemsBySellerHandler", err, map[string]any{"seller_id": sellerID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewItemResponses(items), "items retrieved successfully")
	helpers.LogSuccess("GetItemsBySellerHandler", "items retrieved successfully", map[string]any{
		"seller_id":   sellerID,
		"items_count": len(items),
	})
}

package helpers

import (
	"time"

	model "auction-engine/internal/models"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type CreateItemRequest struct {
	Name          string    `json:"name" binding:"required"`
	Description   string    `json:"description" binding:"required"`
	StartingPrice float64   `json:"starting_price" binding:"required,gt=0"`
	EndDate       time.Time `json:"end_date" binding:"required"`
}

// ToItem builds the item a seller asked to list
func (r CreateItemRequest) ToItem(sellerID string) model.Item {
	return model.Item{
		Name:          r.Name,
		Description:   r.Description,
		StartingPrice: r.StartingPrice,
		EndDate:       r.EndDate,
		SellerID:      sellerID,
	}
}

type ItemResponse struct {
	ItemID          string  `json:"item_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	StartingPrice   float64 `json:"starting_price"`
	EndDate         string  `json:"end_date"`
	SellerID        string  `json:"seller_id"`
	HighestBid      float64 `json:"highest_bid"`
	WinningBidderID string  `json:"winning_bidder_id,omitempty"`
	Version         int64   `json:"version"`
	CreatedAt       string  `json:"created_at"`
}

type BidResponse struct {
	BidID    string  `json:"bid_id"`
	ItemID   string  `json:"item_id"`
	UserID   string  `json:"user_id"`
	Amount   float64 `json:"amount"`
	PlacedAt string  `json:"placed_at"`
}

type WinnerResponse struct {
	ItemID  string `json:"item_id"`
	Contact string `json:"contact"`
}

func NewItemResponse(item model.Item) ItemResponse {
	return ItemResponse{
		ItemID:          item.ItemID,
		Name:            item.Name,
		Description:     item.Description,
		StartingPrice:   item.StartingPrice,
		EndDate:         item.EndDate.UTC().Format(time.RFC3339Nano),
		SellerID:        item.SellerID,
		HighestBid:      item.HighestBid,
		WinningBidderID: item.WinningBidderID,
		Version:         item.Version,
		CreatedAt:       item.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func NewItemResponses(items []model.Item) []ItemResponse {
	resp := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, NewItemResponse(item))
	}
	return resp
}

func NewBidResponses(bids []model.Bid) []BidResponse {
	resp := make([]BidResponse, 0, len(bids))
	for _, bid := range bids {
		resp = append(resp, BidResponse{
			BidID:    bid.BidID,
			ItemID:   bid.ItemID,
			UserID:   bid.UserID,
			Amount:   bid.Amount,
			PlacedAt: bid.PlacedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return resp
}

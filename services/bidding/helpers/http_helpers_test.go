package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToHTTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err     error
		status  int
		message string
	}{
		{biddingerrors.ErrItemNotFound, http.StatusNotFound, "item not found"},
		{biddingerrors.ErrInvalidInput, http.StatusBadRequest, "invalid input"},
		{biddingerrors.ErrBidTooLow, http.StatusConflict, "bid amount must be higher than current highest bid"},
		{biddingerrors.ErrAuctionClosed, http.StatusConflict, "bidding for this item has ended"},
		{biddingerrors.ErrAuctionStillOpen, http.StatusConflict, "auction for this item has not ended yet"},
		{biddingerrors.ErrNoWinner, http.StatusNotFound, "no winner found for this item"},
		{biddingerrors.ErrWinnerNotFound, http.StatusNotFound, "winner not found"},
		{biddingerrors.ErrItemExists, http.StatusConflict, "item already exists"},
		{biddingerrors.ErrStorageUnavailable, http.StatusServiceUnavailable, "storage temporarily unavailable, please retry"},
		{biddingerrors.ErrRateLimited, http.StatusTooManyRequests, "too many bids, slow down"},
		{biddingerrors.ErrMissingUser, http.StatusUnauthorized, "missing X-User-ID header"},
		{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.err.Error(), func(t *testing.T) {
			t.Parallel()

			// wrapped the way the service layer does
			status, message := MapErrorToHTTP(fmt.Errorf("service: %w - detail", tc.err))
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.message, message)
		})
	}
}

func TestRespondWithError(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithError(c, "TestHandler", fmt.Errorf("service: %w", biddingerrors.ErrBidTooLow), nil)

	require.Equal(t, http.StatusConflict, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, float64(http.StatusConflict), body["status"])
	require.Equal(t, "bid amount must be higher than current highest bid", body["message"])
	require.Contains(t, body["error"], "bid amount too low")
}

func TestNewItemResponse(t *testing.T) {
	t.Parallel()

	end := time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC)
	resp := NewItemResponse(model.Item{
		ItemID:          "item1",
		Name:            "Camera",
		StartingPrice:   50,
		EndDate:         end,
		HighestBid:      75,
		WinningBidderID: "user1",
		Version:         2,
		CreatedAt:       end.Add(-time.Hour),
	})

	require.Equal(t, "2024-03-01T12:05:00Z", resp.EndDate)
	require.Equal(t, "2024-03-01T11:05:00Z", resp.CreatedAt)
	require.Equal(t, 75.0, resp.HighestBid)
	require.Equal(t, int64(2), resp.Version)

	require.Empty(t, NewItemResponses(nil))
	require.NotNil(t, NewBidResponses(nil))
}

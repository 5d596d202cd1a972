package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-engine/internal/biddingerrors"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

const (
	// UserIDHeader carries the caller's identity. Authentication happens upstream.
	UserIDHeader = "X-User-ID"
	// UserIDKey is where the identity is stored on the gin context
	UserIDKey = "user_id"
)

// CurrentUser returns the identity set by the user middleware
func CurrentUser(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrItemNotFound):
		return http.StatusNotFound, "item not found"
	case errors.Is(err, biddingerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return http.StatusConflict, "bidding for this item has ended"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount must be higher than current highest bid"
	case errors.Is(err, biddingerrors.ErrAuctionStillOpen):
		return http.StatusConflict, "auction for this item has not ended yet"
	case errors.Is(err, biddingerrors.ErrNoWinner):
		return http.StatusNotFound, "no winner found for this item"
	case errors.Is(err, biddingerrors.ErrWinnerNotFound):
		return http.StatusNotFound, "winner not found"
	case errors.Is(err, biddingerrors.ErrItemExists):
		return http.StatusConflict, "item already exists"
	case errors.Is(err, biddingerrors.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage temporarily unavailable, please retry"
	case errors.Is(err, biddingerrors.ErrRateLimited):
		return http.StatusTooManyRequests, "too many bids, slow down"
	case errors.Is(err, biddingerrors.ErrMissingUser):
		return http.StatusUnauthorized, "missing " + UserIDHeader + " header"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondWithError writes the mapped error envelope and logs it. Rejections are
// warnings, server side failures are errors.
func RespondWithError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": "+message, fields)
		return
	}
	utils.Warn(handlerName+": "+message, fields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

package server

import (
	"math"
	"strconv"
	"sync"
	"time"

	"auction-engine/internal/biddingerrors"
	"auction-engine/services/bidding/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const defaultLimiterCleanup = 5 * time.Minute

type bidderLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// BidLimiter throttles bid submissions per bidder with a token bucket.
// Idle bidders are forgotten after two cleanup intervals.
type BidLimiter struct {
	rate    rate.Limit
	burst   int
	cleanup time.Duration

	mu       sync.Mutex
	limiters map[string]*bidderLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewBidLimiter starts a limiter allowing bidsPerSecond with the given burst
func NewBidLimiter(bidsPerSecond float64, burst int) *BidLimiter {
	return newBidLimiter(bidsPerSecond, burst, defaultLimiterCleanup)
}

func newBidLimiter(bidsPerSecond float64, burst int, cleanup time.Duration) *BidLimiter {
	bl := &BidLimiter{
		rate:     rate.Limit(bidsPerSecond),
		burst:    burst,
		cleanup:  cleanup,
		limiters: make(map[string]*bidderLimiter),
		stopCh:   make(chan struct{}),
	}
	go bl.cleanupLoop()
	return bl
}

// Stop ends the background cleanup
func (bl *BidLimiter) Stop() {
	bl.stopOnce.Do(func() { close(bl.stopCh) })
}

// Middleware must run after RequireUser
func (bl *BidLimiter) Middleware(c *gin.Context) {
	userID := helpers.CurrentUser(c)
	if bl.limiterFor(userID).Allow() {
		c.Next()
		return
	}

	retryAfter := int(math.Ceil(1.0 / float64(bl.rate)))
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))

	status, message := helpers.MapErrorToHTTP(biddingerrors.ErrRateLimited)
	utils.AbortWithError(c, status, biddingerrors.ErrRateLimited, message)
	utils.Warn("rate limit exceeded", map[string]any{
		"user_id": userID,
		"path":    c.Request.URL.Path,
	})
}

func (bl *BidLimiter) limiterFor(userID string) *rate.Limiter {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	entry, ok := bl.limiters[userID]
	if !ok {
		entry = &bidderLimiter{limiter: rate.NewLimiter(bl.rate, bl.burst)}
		bl.limiters[userID] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter
}

// Count returns how many bidders are currently tracked
func (bl *BidLimiter) Count() int {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	return len(bl.limiters)
}

func (bl *BidLimiter) cleanupLoop() {
	ticker := time.NewTicker(bl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bl.evictIdle(time.Now())
		case <-bl.stopCh:
			return
		}
	}
}

func (bl *BidLimiter) evictIdle(now time.Time) {
	ttl := bl.cleanup * 2

	bl.mu.Lock()
	defer bl.mu.Unlock()
	for userID, l := range bl.limiters {
		if now.Sub(l.lastAccess) > ttl {
			delete(bl.limiters, userID)
		}
	}
}

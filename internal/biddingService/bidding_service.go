package bidding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-engine/internal/biddingerrors"
	"auction-engine/internal/clock"
	"auction-engine/internal/config"
	"auction-engine/internal/events"
	"auction-engine/internal/metrics"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"
)

const (
	DefaultStoreTimeout     = 2 * time.Second
	DefaultMaxCommitRetries = 3
)

// Options tunes the bidding rules and how hard the service pushes the store
type Options struct {
	ExtensionWindow    time.Duration
	ExtensionIncrement time.Duration
	MaxCommitRetries   int
	StoreTimeout       time.Duration
}

// DefaultOptions returns the 5 minute anti-snipe rule with a 2s store timeout
func DefaultOptions() Options {
	return Options{
		ExtensionWindow:    DefaultExtensionWindow,
		ExtensionIncrement: DefaultExtensionIncrement,
		MaxCommitRetries:   DefaultMaxCommitRetries,
		StoreTimeout:       DefaultStoreTimeout,
	}
}

// OptionsFromConfig maps the bidding section of the config onto Options
func OptionsFromConfig(cfg config.BiddingConfig, storeTimeout time.Duration) Options {
	return Options{
		ExtensionWindow:    cfg.ExtensionWindow,
		ExtensionIncrement: cfg.ExtensionIncrement,
		MaxCommitRetries:   cfg.MaxCommitRetries,
		StoreTimeout:       storeTimeout,
	}
}

type Option func(*BiddingService)

func WithClock(c clock.Clock) Option {
	return func(s *BiddingService) { s.clock = c }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *BiddingService) { s.metrics = m }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *BiddingService) { s.events = p }
}

func WithOptions(opts Options) Option {
	return func(s *BiddingService) { s.opts = opts }
}

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	repo    repository.AuctionDB
	clock   clock.Clock
	metrics metrics.Recorder
	events  events.Publisher
	locks   *itemLocks
	opts    Options
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionDB, options ...Option) *BiddingService {
	s := &BiddingService{
		repo:    repo,
		clock:   clock.System{},
		metrics: metrics.Nop{},
		events:  events.LogPublisher{},
		locks:   newItemLocks(),
		opts:    DefaultOptions(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.opts.StoreTimeout <= 0 {
		s.opts.StoreTimeout = DefaultStoreTimeout
	}
	if s.opts.ExtensionWindow <= 0 {
		s.opts.ExtensionWindow = DefaultExtensionWindow
	}
	if s.opts.ExtensionIncrement <= 0 {
		s.opts.ExtensionIncrement = DefaultExtensionIncrement
	}
	if s.opts.MaxCommitRetries < 0 {
		s.opts.MaxCommitRetries = 0
	}
	return s
}

// CreateItem validates and lists a new item for auction
func (s *BiddingService) CreateItem(ctx context.Context, item models.Item) (models.Item, error) {
	now := s.clock.Now()
	if err := validateNewItem(item, now); err != nil {
		return models.Item{}, err
	}

	item.ItemID = utils.GenerateID()
	item.Name = strings.TrimSpace(item.Name)
	item.Description = strings.TrimSpace(item.Description)
	item.EndDate = item.EndDate.UTC()
	item.HighestBid = 0
	item.WinningBidderID = ""
	item.Version = 0
	item.CreatedAt = now

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.repo.CreateItem(storeCtx, item); err != nil {
		return models.Item{}, storeErr(fmt.Sprintf("create item for seller %s", item.SellerID), err)
	}

	utils.Info("Item listed", map[string]any{
		"item_id":   item.ItemID,
		"seller_id": item.SellerID,
		"end_date":  item.EndDate,
	})
	return item, nil
}

func validateNewItem(item models.Item, now time.Time) error {
	switch {
	case strings.TrimSpace(item.SellerID) == "":
		return fmt.Errorf("service: %w - missing seller", biddingerrors.ErrInvalidInput)
	case strings.TrimSpace(item.Name) == "":
		return fmt.Errorf("service: %w - missing item name", biddingerrors.ErrInvalidInput)
	case strings.TrimSpace(item.Description) == "":
		return fmt.Errorf("service: %w - missing item description", biddingerrors.ErrInvalidInput)
	case !validAmount(item.StartingPrice):
		return fmt.Errorf("service: %w - starting price must be a positive number", biddingerrors.ErrInvalidInput)
	case !item.EndDate.After(now):
		return fmt.Errorf("service: %w - end date must be in the future", biddingerrors.ErrInvalidInput)
	}
	return nil
}

// GetItem returns a single item
func (s *BiddingService) GetItem(ctx context.Context, itemID string) (models.Item, error) {
	if itemID == "" {
		return models.Item{}, fmt.Errorf("service: %w - empty item ID", biddingerrors.ErrInvalidInput)
	}
	return s.loadItem(ctx, itemID)
}

// ListItems returns every item in creation order
func (s *BiddingService) ListItems(ctx context.Context) ([]models.Item, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	items, err := s.repo.ListItems(storeCtx)
	if err != nil {
		return nil, storeErr("list items", err)
	}
	return items, nil
}

// GetItemsBySeller returns the items a seller has listed
func (s *BiddingService) GetItemsBySeller(ctx context.Context, sellerID string) ([]models.Item, error) {
	if sellerID == "" {
		return nil, fmt.Errorf("service: %w - empty seller ID", biddingerrors.ErrInvalidInput)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	items, err := s.repo.GetItemsBySeller(storeCtx, sellerID)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get items for seller %s", sellerID), err)
	}
	return items, nil
}

// PlaceBid validates a bid against the item's current state and, if it is the new
// highest bid, commits it together with any deadline extension. Bids on the same
// item are applied one at a time; a commit that loses a race with another process
// is re-validated against the fresh state.
func (s *BiddingService) PlaceBid(ctx context.Context, itemID, userID string, amount float64) (models.Item, error) {
	if itemID == "" || userID == "" {
		s.metrics.RecordBidRejected(rejectReason(biddingerrors.ErrInvalidInput))
		return models.Item{}, fmt.Errorf("service: %w - missing itemID or userID", biddingerrors.ErrInvalidInput)
	}
	if !validAmount(amount) {
		s.metrics.RecordBidRejected(rejectReason(biddingerrors.ErrInvalidInput))
		return models.Item{}, fmt.Errorf("service: %w - bid amount must be a positive number", biddingerrors.ErrInvalidInput)
	}

	release, err := s.locks.acquire(ctx, itemID)
	if err != nil {
		return models.Item{}, err
	}
	defer release()

	for attempt := 0; ; attempt++ {
		updated, extended, err := s.tryBid(ctx, itemID, userID, amount)
		if err == nil {
			s.metrics.RecordBidAccepted(extended)
			s.publishBid(ctx, updated, userID, amount, extended)
			return updated, nil
		}
		if !errors.Is(err, biddingerrors.ErrVersionConflict) {
			if reason := rejectReason(err); reason != "" {
				s.metrics.RecordBidRejected(reason)
			}
			return models.Item{}, err
		}

		s.metrics.RecordCommitConflict()
		if attempt >= s.opts.MaxCommitRetries {
			return models.Item{}, fmt.Errorf("service: %w - item %s kept changing after %d attempts: %w",
				biddingerrors.ErrStorageUnavailable, itemID, attempt+1, err)
		}
		utils.Warn("Bid commit conflicted, retrying", map[string]any{
			"item_id": itemID,
			"user_id": userID,
			"attempt": attempt + 1,
		})
	}
}

// tryBid is one read-validate-commit round
func (s *BiddingService) tryBid(ctx context.Context, itemID, userID string, amount float64) (models.Item, bool, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return models.Item{}, false, err
	}

	now := s.clock.Now()
	if err := checkBid(item, amount, now); err != nil {
		return models.Item{}, false, err
	}

	updated := item
	var extended bool
	updated.EndDate, extended = extendDeadline(item.EndDate, now, s.opts.ExtensionWindow, s.opts.ExtensionIncrement)
	updated.HighestBid = amount
	updated.WinningBidderID = userID

	bid := models.Bid{
		BidID:    utils.GenerateID(),
		ItemID:   itemID,
		UserID:   userID,
		Amount:   amount,
		PlacedAt: now,
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()
	if err := s.repo.CommitBid(storeCtx, updated, bid); err != nil {
		return models.Item{}, false, storeErr(fmt.Sprintf("commit bid for item %s by user %s", itemID, userID), err)
	}

	updated.Version++
	return updated, extended, nil
}

// GetBidsForItem returns all bids for a specific item
func (s *BiddingService) GetBidsForItem(ctx context.Context, itemID string) ([]models.Bid, error) {
	if itemID == "" {
		return nil, fmt.Errorf("service: %w - empty item ID", biddingerrors.ErrInvalidInput)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	bids, err := s.repo.GetBidsByItem(storeCtx, itemID)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get bids for item %s", itemID), err)
	}
	return bids, nil
}

// ResolveWinner returns the contact of the winning bidder once the auction has ended.
// A missing item is reported before the open check since it has no end date to compare.
func (s *BiddingService) ResolveWinner(ctx context.Context, itemID string) (string, error) {
	contact, err := s.resolveWinner(ctx, itemID)
	s.metrics.RecordWinnerResolution(resolutionOutcome(err))
	return contact, err
}

func (s *BiddingService) resolveWinner(ctx context.Context, itemID string) (string, error) {
	if itemID == "" {
		return "", fmt.Errorf("service: %w - empty item ID", biddingerrors.ErrInvalidInput)
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return "", err
	}

	if item.IsOpen(s.clock.Now()) {
		return "", fmt.Errorf("service: %w - item %s closes at %s",
			biddingerrors.ErrAuctionStillOpen, itemID, item.EndDate.Format(time.RFC3339))
	}
	if !item.HasWinner() {
		return "", fmt.Errorf("service: %w - item %s received no bids", biddingerrors.ErrNoWinner, itemID)
	}

	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	user, err := s.repo.GetUser(storeCtx, item.WinningBidderID)
	if errors.Is(err, biddingerrors.ErrUserNotFound) {
		return "", fmt.Errorf("service: %w - user %s is not in the directory", biddingerrors.ErrWinnerNotFound, item.WinningBidderID)
	}
	if err != nil {
		return "", storeErr(fmt.Sprintf("get winner %s", item.WinningBidderID), err)
	}

	switch {
	case user.Email != "":
		return user.Email, nil
	case user.Phone != "":
		return user.Phone, nil
	}
	return "", fmt.Errorf("service: %w - user %s has no contact details", biddingerrors.ErrWinnerNotFound, user.UserID)
}

func (s *BiddingService) loadItem(ctx context.Context, itemID string) (models.Item, error) {
	storeCtx, cancel := s.storeContext(ctx)
	defer cancel()

	item, err := s.repo.GetItem(storeCtx, itemID)
	if err != nil {
		return models.Item{}, storeErr(fmt.Sprintf("get item %s", itemID), err)
	}
	return item, nil
}

func (s *BiddingService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.StoreTimeout)
}

func (s *BiddingService) publishBid(ctx context.Context, item models.Item, userID string, amount float64, extended bool) {
	evts := []models.BidEvent{{
		Type:      models.EventBidAccepted,
		ItemID:    item.ItemID,
		UserID:    userID,
		Amount:    amount,
		EndDate:   item.EndDate,
		Timestamp: s.clock.Now(),
	}}
	if extended {
		evts = append(evts, models.BidEvent{
			Type:      models.EventAuctionExtended,
			ItemID:    item.ItemID,
			UserID:    userID,
			Amount:    amount,
			EndDate:   item.EndDate,
			Timestamp: s.clock.Now(),
		})
	}

	// the bid is already committed, a lost event is logged and not reported to the bidder
	for _, evt := range evts {
		if err := s.events.Publish(ctx, evt); err != nil {
			utils.Warn("Failed to publish bid event", map[string]any{
				"item_id": item.ItemID,
				"type":    evt.Type,
				"error":   err.Error(),
			})
		}
	}
}

// storeErr wraps a store error; a store call that ran out of time is reported as unavailable storage
func storeErr(op string, err error) error {
	if !errors.Is(err, biddingerrors.ErrStorageUnavailable) &&
		(errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		return fmt.Errorf("service: %w - %s: %w", biddingerrors.ErrStorageUnavailable, op, err)
	}
	return fmt.Errorf("service: %s: %w", op, err)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, biddingerrors.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, biddingerrors.ErrItemNotFound):
		return "not_found"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return "auction_closed"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return "bid_too_low"
	}
	return ""
}

func resolutionOutcome(err error) string {
	switch {
	case err == nil:
		return "resolved"
	case errors.Is(err, biddingerrors.ErrAuctionStillOpen):
		return "still_open"
	case errors.Is(err, biddingerrors.ErrNoWinner):
		return "no_winner"
	case errors.Is(err, biddingerrors.ErrWinnerNotFound):
		return "winner_not_found"
	case errors.Is(err, biddingerrors.ErrItemNotFound):
		return "not_found"
	}
	return "error"
}

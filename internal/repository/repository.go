package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
)

// AuctionDB is the item store and user directory the bidding engine runs on.
//
// CommitBid is the only write path for an existing item. item carries the version
// that was read; the store must reject the write with ErrVersionConflict when the
// stored version differs, otherwise it persists item with Version+1 and appends bid,
// both or neither.
type AuctionDB interface {
	CreateItem(ctx context.Context, item model.Item) error
	GetItem(ctx context.Context, itemID string) (model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	GetItemsBySeller(ctx context.Context, sellerID string) ([]model.Item, error)
	CommitBid(ctx context.Context, item model.Item, bid model.Bid) error
	GetBidsByItem(ctx context.Context, itemID string) ([]model.Bid, error)
	GetUser(ctx context.Context, userID string) (model.User, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu          sync.RWMutex
	items       map[string]model.Item  // key: itemID -> value: item
	bids        map[string][]model.Bid // key: itemID -> value: accepted bids in order
	sellerItems map[string][]string    // key: sellerID -> value: listed itemIDs
	users       map[string]model.User
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		items:       make(map[string]model.Item),
		bids:        make(map[string][]model.Bid),
		sellerItems: make(map[string][]string),
		users:       make(map[string]model.User),
	}
}

// CreateItem stores a new item and lists it under its seller
func (r *MemoryRepo) CreateItem(ctx context.Context, item model.Item) error {
	if err := ctx.Err(); err != nil {
		return storageErr("create item", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ItemID]; exists {
		return fmt.Errorf("create item %s: %w", item.ItemID, biddingerrors.ErrItemExists)
	}
	r.items[item.ItemID] = item
	r.sellerItems[item.SellerID] = append(r.sellerItems[item.SellerID], item.ItemID)
	return nil
}

// GetItem returns a copy of the stored item
func (r *MemoryRepo) GetItem(ctx context.Context, itemID string) (model.Item, error) {
	if err := ctx.Err(); err != nil {
		return model.Item{}, storageErr("get item", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[itemID]
	if !ok {
		return model.Item{}, fmt.Errorf("get item %s: %w", itemID, biddingerrors.ErrItemNotFound)
	}
	return item, nil
}

// ListItems returns all items ordered by creation time
func (r *MemoryRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("list items", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Item, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	sortItems(items)
	return items, nil
}

// GetItemsBySeller returns the items a seller has listed, in listing order
func (r *MemoryRepo) GetItemsBySeller(ctx context.Context, sellerID string) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("get items by seller", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	itemIDs := r.sellerItems[sellerID]
	items := make([]model.Item, 0, len(itemIDs))
	for _, id := range itemIDs {
		if item, exists := r.items[id]; exists {
			items = append(items, item)
		}
	}
	return items, nil
}

// CommitBid conditionally replaces the item and appends the bid under one lock
func (r *MemoryRepo) CommitBid(ctx context.Context, item model.Item, bid model.Bid) error {
	if err := ctx.Err(); err != nil {
		return storageErr("commit bid", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[item.ItemID]
	if !ok {
		return fmt.Errorf("commit bid for item %s: %w", item.ItemID, biddingerrors.ErrItemNotFound)
	}
	if stored.Version != item.Version {
		return fmt.Errorf("commit bid for item %s at version %d (stored %d): %w",
			item.ItemID, item.Version, stored.Version, biddingerrors.ErrVersionConflict)
	}

	item.Version++
	r.items[item.ItemID] = item
	r.bids[item.ItemID] = append(r.bids[item.ItemID], bid)
	return nil
}

// GetBidsByItem returns the bid history of an item, oldest first
func (r *MemoryRepo) GetBidsByItem(ctx context.Context, itemID string) ([]model.Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("get bids", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.items[itemID]; !ok {
		return nil, fmt.Errorf("get bids for item %s: %w", itemID, biddingerrors.ErrItemNotFound)
	}
	return append([]model.Bid{}, r.bids[itemID]...), nil
}

// GetUser resolves a user from the directory
func (r *MemoryRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, storageErr("get user", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	return user, nil
}

// AddUser registers a user in the directory. Sign-up lives outside this service,
// so this is used for seeding and tests.
func (r *MemoryRepo) AddUser(user model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserID] = user
}

// AddItem stores an item as-is, bypassing validation. This method is intended for tests and seeding only.
func (r *MemoryRepo) AddItem(item model.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[item.ItemID]; !exists {
		r.sellerItems[item.SellerID] = append(r.sellerItems[item.SellerID], item.ItemID)
	}
	r.items[item.ItemID] = item
}

func sortItems(items []model.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ItemID < items[j].ItemID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

// storageErr tags a backend failure as transient
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, biddingerrors.ErrStorageUnavailable, err)
}

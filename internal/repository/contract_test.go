package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Helper to create a new Item
func newItem(itemID, sellerID, name string, startingPrice float64, createdAt time.Time) model.Item {
	return model.Item{
		ItemID:        itemID,
		Name:          name,
		Description:   fmt.Sprintf("%s description", name),
		StartingPrice: startingPrice,
		EndDate:       createdAt.Add(24 * time.Hour),
		SellerID:      sellerID,
		CreatedAt:     createdAt,
	}
}

// Helper to create a new Bid
func newBid(itemID, userID string, amount float64, placedAt time.Time) model.Bid {
	return model.Bid{
		BidID:    uuid.NewString(),
		ItemID:   itemID,
		UserID:   userID,
		Amount:   amount,
		PlacedAt: placedAt,
	}
}

// accept builds the item state a successful bid commits, still carrying the version that was read
func accept(item model.Item, bid model.Bid) model.Item {
	item.HighestBid = bid.Amount
	item.WinningBidderID = bid.UserID
	return item
}

func requireSameItem(t *testing.T, want, got model.Item) {
	t.Helper()
	require.True(t, want.EndDate.Equal(got.EndDate), "end date: want %s, got %s", want.EndDate, got.EndDate)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt), "created at: want %s, got %s", want.CreatedAt, got.CreatedAt)
	want.EndDate, got.EndDate = time.Time{}, time.Time{}
	want.CreatedAt, got.CreatedAt = time.Time{}, time.Time{}
	require.Equal(t, want, got)
}

type userAdder func(t *testing.T, user model.User)

// runStoreContract runs the behaviour every AuctionDB implementation shares.
// Ids are random so stores that outlive a single test can be reused.
func runStoreContract(t *testing.T, repo AuctionDB, addUser userAdder) {
	ctx := context.Background()

	t.Run("create_and_get", func(t *testing.T) {
		item := newItem(uuid.NewString(), uuid.NewString(), "Camera", 50, baseTime)
		require.NoError(t, repo.CreateItem(ctx, item))

		got, err := repo.GetItem(ctx, item.ItemID)
		require.NoError(t, err)
		requireSameItem(t, item, got)

		err = repo.CreateItem(ctx, item)
		require.ErrorIs(t, err, biddingerrors.ErrItemExists)
	})

	t.Run("get_missing_item", func(t *testing.T) {
		_, err := repo.GetItem(ctx, uuid.NewString())
		require.ErrorIs(t, err, biddingerrors.ErrItemNotFound)

		_, err = repo.GetBidsByItem(ctx, uuid.NewString())
		require.ErrorIs(t, err, biddingerrors.ErrItemNotFound)
	})

	t.Run("list_and_seller_index", func(t *testing.T) {
		seller := uuid.NewString()
		first := newItem(uuid.NewString(), seller, "First", 10, baseTime.Add(time.Minute))
		second := newItem(uuid.NewString(), seller, "Second", 20, baseTime.Add(2*time.Minute))
		other := newItem(uuid.NewString(), uuid.NewString(), "Other", 30, baseTime.Add(3*time.Minute))
		for _, item := range []model.Item{first, second, other} {
			require.NoError(t, repo.CreateItem(ctx, item))
		}

		listed, err := repo.GetItemsBySeller(ctx, seller)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		requireSameItem(t, first, listed[0])
		requireSameItem(t, second, listed[1])

		none, err := repo.GetItemsBySeller(ctx, uuid.NewString())
		require.NoError(t, err)
		require.Empty(t, none)

		all, err := repo.ListItems(ctx)
		require.NoError(t, err)
		positions := map[string]int{}
		for i, item := range all {
			positions[item.ItemID] = i
		}
		require.Contains(t, positions, first.ItemID)
		require.Contains(t, positions, other.ItemID)
		require.Less(t, positions[first.ItemID], positions[second.ItemID])
		require.Less(t, positions[second.ItemID], positions[other.ItemID])
	})

	t.Run("commit_bid", func(t *testing.T) {
		item := newItem(uuid.NewString(), uuid.NewString(), "Watch", 50, baseTime)
		require.NoError(t, repo.CreateItem(ctx, item))

		bids, err := repo.GetBidsByItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Empty(t, bids)

		first := newBid(item.ItemID, "user1", 100, baseTime.Add(time.Minute))
		require.NoError(t, repo.CommitBid(ctx, accept(item, first), first))

		stored, err := repo.GetItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Equal(t, int64(1), stored.Version)
		require.Equal(t, 100.0, stored.HighestBid)
		require.Equal(t, "user1", stored.WinningBidderID)

		// a commit built from the version-0 read loses
		stale := newBid(item.ItemID, "user2", 120, baseTime.Add(2*time.Minute))
		err = repo.CommitBid(ctx, accept(item, stale), stale)
		require.ErrorIs(t, err, biddingerrors.ErrVersionConflict)

		second := newBid(item.ItemID, "user2", 150, baseTime.Add(3*time.Minute))
		extended := accept(stored, second)
		extended.EndDate = stored.EndDate.Add(5 * time.Minute)
		require.NoError(t, repo.CommitBid(ctx, extended, second))

		stored, err = repo.GetItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Equal(t, int64(2), stored.Version)
		require.True(t, item.EndDate.Add(5*time.Minute).Equal(stored.EndDate))

		bids, err = repo.GetBidsByItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Len(t, bids, 2, "the conflicting bid must not be recorded")
		require.Equal(t, first.BidID, bids[0].BidID)
		require.Equal(t, second.BidID, bids[1].BidID)
		require.True(t, second.PlacedAt.Equal(bids[1].PlacedAt))
	})

	t.Run("commit_bid_missing_item", func(t *testing.T) {
		item := newItem(uuid.NewString(), uuid.NewString(), "Ghost", 50, baseTime)
		bid := newBid(item.ItemID, "user1", 100, baseTime)
		err := repo.CommitBid(ctx, accept(item, bid), bid)
		require.ErrorIs(t, err, biddingerrors.ErrItemNotFound)
	})

	t.Run("concurrent_commits_same_version", func(t *testing.T) {
		item := newItem(uuid.NewString(), uuid.NewString(), "Lamp", 50, baseTime)
		require.NoError(t, repo.CreateItem(ctx, item))

		const writers = 10
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			committed int
		)
		for i := 0; i < writers; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				bid := newBid(item.ItemID, fmt.Sprintf("user-%d", i), float64(100+i), baseTime)
				if err := repo.CommitBid(ctx, accept(item, bid), bid); err == nil {
					mu.Lock()
					committed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, committed, "exactly one writer may win a given version")
		bids, err := repo.GetBidsByItem(ctx, item.ItemID)
		require.NoError(t, err)
		require.Len(t, bids, 1)
	})

	t.Run("users", func(t *testing.T) {
		user := model.User{UserID: uuid.NewString(), Email: "winner@example.com", Phone: "+15550100"}
		addUser(t, user)

		got, err := repo.GetUser(ctx, user.UserID)
		require.NoError(t, err)
		require.Equal(t, user, got)

		_, err = repo.GetUser(ctx, uuid.NewString())
		require.ErrorIs(t, err, biddingerrors.ErrUserNotFound)
	})
}

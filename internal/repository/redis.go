package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"

	"github.com/go-redis/redis/v8"
)

const redisItemIndex = "auction:items"

func redisItemKey(itemID string) string { return "auction:item:" + itemID }
func redisBidsKey(itemID string) string { return "auction:item:" + itemID + ":bids" }
func redisSellerKey(sellerID string) string { return "auction:seller:" + sellerID + ":items" }
func redisUserKey(userID string) string { return "auction:user:" + userID }

// RedisRepo stores items as JSON documents and bid histories as lists.
// CommitBid uses WATCH/MULTI so a concurrent writer aborts the transaction.
type RedisRepo struct {
	client *redis.Client
}

func NewRedisRepo(client *redis.Client) *RedisRepo {
	return &RedisRepo{client: client}
}

// CreateItem stores the item, indexes it by creation time and lists it under its seller
func (r *RedisRepo) CreateItem(ctx context.Context, item model.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("redis create item %s: encode: %w", item.ItemID, err)
	}

	key := redisItemKey(item.ItemID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return biddingerrors.ErrItemExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAdd(ctx, redisItemIndex, &redis.Z{
				Score:  float64(item.CreatedAt.UnixMilli()),
				Member: item.ItemID,
			})
			pipe.RPush(ctx, redisSellerKey(item.SellerID), item.ItemID)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, biddingerrors.ErrItemExists), errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("redis create item %s: %w", item.ItemID, biddingerrors.ErrItemExists)
	default:
		return storageErr("redis create item "+item.ItemID, err)
	}
}

// GetItem reads one item document
func (r *RedisRepo) GetItem(ctx context.Context, itemID string) (model.Item, error) {
	data, err := r.client.Get(ctx, redisItemKey(itemID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Item{}, fmt.Errorf("redis get item %s: %w", itemID, biddingerrors.ErrItemNotFound)
	}
	if err != nil {
		return model.Item{}, storageErr("redis get item "+itemID, err)
	}
	return decodeItem(data)
}

// ListItems returns all items ordered by creation time
func (r *RedisRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	ids, err := r.client.ZRange(ctx, redisItemIndex, 0, -1).Result()
	if err != nil {
		return nil, storageErr("redis list items", err)
	}
	return r.loadItems(ctx, ids)
}

// GetItemsBySeller returns the items a seller has listed, in listing order
func (r *RedisRepo) GetItemsBySeller(ctx context.Context, sellerID string) ([]model.Item, error) {
	ids, err := r.client.LRange(ctx, redisSellerKey(sellerID), 0, -1).Result()
	if err != nil {
		return nil, storageErr("redis get items by seller "+sellerID, err)
	}
	return r.loadItems(ctx, ids)
}

func (r *RedisRepo) loadItems(ctx context.Context, ids []string) ([]model.Item, error) {
	items := make([]model.Item, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = redisItemKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storageErr("redis load items", err)
	}

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		item, err := decodeItem([]byte(s))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// CommitBid replaces the item and appends the bid in one MULTI/EXEC, guarded by WATCH
func (r *RedisRepo) CommitBid(ctx context.Context, item model.Item, bid model.Bid) error {
	key := redisItemKey(item.ItemID)
	expected := item.Version
	item.Version++

	itemData, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("redis commit bid for item %s: encode item: %w", item.ItemID, err)
	}
	bidData, err := json.Marshal(bid)
	if err != nil {
		return fmt.Errorf("redis commit bid for item %s: encode bid: %w", item.ItemID, err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			return err
		}
		stored, err := decodeItem(data)
		if err != nil {
			return err
		}
		if stored.Version != expected {
			return biddingerrors.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, itemData, 0)
			pipe.RPush(ctx, redisBidsKey(item.ItemID), bidData)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return fmt.Errorf("redis commit bid for item %s: %w", item.ItemID, biddingerrors.ErrItemNotFound)
	case errors.Is(err, biddingerrors.ErrVersionConflict), errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("redis commit bid for item %s at version %d: %w", item.ItemID, expected, biddingerrors.ErrVersionConflict)
	default:
		return storageErr("redis commit bid for item "+item.ItemID, err)
	}
}

// GetBidsByItem returns the bid history of an item, oldest first
func (r *RedisRepo) GetBidsByItem(ctx context.Context, itemID string) ([]model.Bid, error) {
	n, err := r.client.Exists(ctx, redisItemKey(itemID)).Result()
	if err != nil {
		return nil, storageErr("redis get bids for item "+itemID, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("redis get bids for item %s: %w", itemID, biddingerrors.ErrItemNotFound)
	}

	raw, err := r.client.LRange(ctx, redisBidsKey(itemID), 0, -1).Result()
	if err != nil {
		return nil, storageErr("redis get bids for item "+itemID, err)
	}

	bids := make([]model.Bid, 0, len(raw))
	for _, s := range raw {
		var bid model.Bid
		if err := json.Unmarshal([]byte(s), &bid); err != nil {
			return nil, fmt.Errorf("redis get bids for item %s: decode: %w", itemID, err)
		}
		bids = append(bids, bid)
	}
	return bids, nil
}

// GetUser resolves a user from the directory
func (r *RedisRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	data, err := r.client.Get(ctx, redisUserKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.User{}, fmt.Errorf("redis get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, storageErr("redis get user "+userID, err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return model.User{}, fmt.Errorf("redis get user %s: decode: %w", userID, err)
	}
	return user, nil
}

// AddUser writes a directory entry
func (r *RedisRepo) AddUser(ctx context.Context, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("redis add user %s: encode: %w", user.UserID, err)
	}
	if err := r.client.Set(ctx, redisUserKey(user.UserID), data, 0).Err(); err != nil {
		return storageErr("redis add user "+user.UserID, err)
	}
	return nil
}

func decodeItem(data []byte) (model.Item, error) {
	var item model.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return model.Item{}, fmt.Errorf("decode item: %w", err)
	}
	return item, nil
}

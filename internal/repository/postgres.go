package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auction-engine/internal/biddingerrors"
	model "auction-engine/internal/models"
)

const itemColumns = `id, name, description, starting_price, end_date, seller_id,
	highest_bid, winning_bidder_id, version, created_at`

// PostgresRepo keeps items, bids and users in PostgreSQL. CommitBid is a versioned
// UPDATE plus an INSERT in one transaction.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.Item, error) {
	var (
		item   model.Item
		winner sql.NullString
	)
	err := row.Scan(&item.ItemID, &item.Name, &item.Description, &item.StartingPrice,
		&item.EndDate, &item.SellerID, &item.HighestBid, &winner, &item.Version, &item.CreatedAt)
	if err != nil {
		return model.Item{}, err
	}
	item.WinningBidderID = winner.String
	item.EndDate = item.EndDate.UTC()
	item.CreatedAt = item.CreatedAt.UTC()
	return item, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateItem inserts a new item
func (r *PostgresRepo) CreateItem(ctx context.Context, item model.Item) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO NOTHING`,
		item.ItemID, item.Name, item.Description, item.StartingPrice, item.EndDate,
		item.SellerID, item.HighestBid, nullable(item.WinningBidderID), item.Version, item.CreatedAt,
	)
	if err != nil {
		return storageErr("postgres create item "+item.ItemID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("postgres create item "+item.ItemID, err)
	}
	if n == 0 {
		return fmt.Errorf("postgres create item %s: %w", item.ItemID, biddingerrors.ErrItemExists)
	}
	return nil
}

// GetItem reads a single item row
func (r *PostgresRepo) GetItem(ctx context.Context, itemID string) (model.Item, error) {
	item, err := scanItem(r.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, fmt.Errorf("postgres get item %s: %w", itemID, biddingerrors.ErrItemNotFound)
	}
	if err != nil {
		return model.Item{}, storageErr("postgres get item "+itemID, err)
	}
	return item, nil
}

// ListItems returns all items ordered by creation time
func (r *PostgresRepo) ListItems(ctx context.Context) ([]model.Item, error) {
	return r.queryItems(ctx, "postgres list items",
		`SELECT `+itemColumns+` FROM items ORDER BY created_at, id`)
}

// GetItemsBySeller returns the items a seller has listed
func (r *PostgresRepo) GetItemsBySeller(ctx context.Context, sellerID string) ([]model.Item, error) {
	return r.queryItems(ctx, "postgres get items by seller "+sellerID,
		`SELECT `+itemColumns+` FROM items WHERE seller_id = $1 ORDER BY created_at, id`, sellerID)
}

func (r *PostgresRepo) queryItems(ctx context.Context, op, query string, args ...any) ([]model.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return items, nil
}

// CommitBid updates the item only if its version is unchanged and records the bid
func (r *PostgresRepo) CommitBid(ctx context.Context, item model.Item, bid model.Bid) error {
	op := "postgres commit bid for item " + item.ItemID

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(op, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE items
		 SET end_date = $2, highest_bid = $3, winning_bidder_id = $4, version = version + 1
		 WHERE id = $1 AND version = $5`,
		item.ItemID, item.EndDate, item.HighestBid, nullable(item.WinningBidderID), item.Version,
	)
	if err != nil {
		return storageErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, item.ItemID).Scan(&exists); err != nil {
			return storageErr(op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, biddingerrors.ErrItemNotFound)
		}
		return fmt.Errorf("%s at version %d: %w", op, item.Version, biddingerrors.ErrVersionConflict)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bids (id, item_id, user_id, amount, placed_at) VALUES ($1, $2, $3, $4, $5)`,
		bid.BidID, bid.ItemID, bid.UserID, bid.Amount, bid.PlacedAt,
	); err != nil {
		return storageErr(op, err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr(op, err)
	}
	return nil
}

// GetBidsByItem returns the bid history of an item in acceptance order
func (r *PostgresRepo) GetBidsByItem(ctx context.Context, itemID string) ([]model.Bid, error) {
	op := "postgres get bids for item " + itemID

	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, itemID).Scan(&exists); err != nil {
		return nil, storageErr(op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", op, biddingerrors.ErrItemNotFound)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, item_id, user_id, amount, placed_at FROM bids WHERE item_id = $1 ORDER BY seq`, itemID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	bids := []model.Bid{}
	for rows.Next() {
		var bid model.Bid
		if err := rows.Scan(&bid.BidID, &bid.ItemID, &bid.UserID, &bid.Amount, &bid.PlacedAt); err != nil {
			return nil, storageErr(op, err)
		}
		bid.PlacedAt = bid.PlacedAt.UTC()
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return bids, nil
}

// GetUser resolves a user from the directory
func (r *PostgresRepo) GetUser(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, phone FROM users WHERE id = $1`, userID,
	).Scan(&user.UserID, &user.Email, &user.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("postgres get user %s: %w", userID, biddingerrors.ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, storageErr("postgres get user "+userID, err)
	}
	return user, nil
}

// AddUser inserts or refreshes a directory entry
func (r *PostgresRepo) AddUser(ctx context.Context, user model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, phone) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, phone = EXCLUDED.phone`,
		user.UserID, user.Email, user.Phone,
	)
	if err != nil {
		return storageErr("postgres add user "+user.UserID, err)
	}
	return nil
}

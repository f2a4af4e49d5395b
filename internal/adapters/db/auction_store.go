package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nft-auction-ledger/internal/domain/auction"
	"nft-auction-ledger/internal/domain/shared"
)

// AuctionStore is the Postgres implementation of the auction store.
// Durations are stored in seconds.
type AuctionStore struct {
	conn *Connection
}

// NewAuctionStore creates a new Postgres auction store
func NewAuctionStore(conn *Connection) *AuctionStore {
	return &AuctionStore{conn: conn}
}

const auctionColumns = `token_id, collection, seller, starting_price, reserve_price, duration_secs, start_time, highest_bid, highest_bidder, status, created_at, updated_at`

// Create inserts a new auction record. A terminal record for the same
// token is replaced so a settled token can be listed again.
func (s *AuctionStore) Create(ctx context.Context, a *auction.Auction) error {
	query := `
		INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (token_id) DO UPDATE SET
			collection = EXCLUDED.collection,
			seller = EXCLUDED.seller,
			starting_price = EXCLUDED.starting_price,
			reserve_price = EXCLUDED.reserve_price,
			duration_secs = EXCLUDED.duration_secs,
			start_time = EXCLUDED.start_time,
			highest_bid = EXCLUDED.highest_bid,
			highest_bidder = EXCLUDED.highest_bidder,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.conn.GetDB().ExecContext(ctx, query,
		a.TokenID,
		a.Collection,
		a.Seller,
		a.StartingPrice,
		a.ReservePrice,
		int64(a.Duration/time.Second),
		a.StartTime,
		a.HighestBid,
		a.HighestBidder,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}

	return nil
}

// Get retrieves the latest auction record for a token
func (s *AuctionStore) Get(ctx context.Context, tokenID uint64) (*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE token_id = $1`

	record, err := scanAuction(s.conn.GetDB().QueryRowContext(ctx, query, tokenID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, shared.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}

	return record, nil
}

// Update overwrites the record for a token
func (s *AuctionStore) Update(ctx context.Context, a *auction.Auction) error {
	query := `
		UPDATE auctions
		SET reserve_price = $2, duration_secs = $3, highest_bid = $4, highest_bidder = $5, status = $6, updated_at = $7
		WHERE token_id = $1
	`

	result, err := s.conn.GetDB().ExecContext(ctx, query,
		a.TokenID,
		a.ReservePrice,
		int64(a.Duration/time.Second),
		a.HighestBid,
		a.HighestBidder,
		a.Status,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update auction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return shared.ErrAuctionNotFound
	}

	return nil
}

// ListActive retrieves every record with active status
func (s *AuctionStore) ListActive(ctx context.Context) ([]*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = $1 ORDER BY token_id`
	return s.queryAuctions(ctx, query, auction.StatusActive)
}

// ListBySeller retrieves every record, active or historical, for a seller
func (s *AuctionStore) ListBySeller(ctx context.Context, seller string) ([]*auction.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE seller = $1 ORDER BY token_id`
	return s.queryAuctions(ctx, query, seller)
}

// ListExpired retrieves active records whose end time has passed
func (s *AuctionStore) ListExpired(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = $1 AND start_time + duration_secs * interval '1 second' <= $2
		ORDER BY token_id
	`
	return s.queryAuctions(ctx, query, auction.StatusActive, now)
}

func (s *AuctionStore) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*auction.Auction, error) {
	rows, err := s.conn.GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}
	defer rows.Close()

	auctions := make([]*auction.Auction, 0)
	for rows.Next() {
		record, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate auctions: %w", err)
	}

	return auctions, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*auction.Auction, error) {
	var record auction.Auction
	var durationSecs int64

	err := row.Scan(
		&record.TokenID,
		&record.Collection,
		&record.Seller,
		&record.StartingPrice,
		&record.ReservePrice,
		&durationSecs,
		&record.StartTime,
		&record.HighestBid,
		&record.HighestBidder,
		&record.Status,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Duration = time.Duration(durationSecs) * time.Second
	return &record, nil
}

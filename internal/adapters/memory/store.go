package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"nft-auction-ledger/internal/domain/auction"
	"nft-auction-ledger/internal/domain/shared"
)

// AuctionStore is the in-memory implementation of the auction store.
// The ledger serializes writers per token; the map lock here only
// protects the container itself.
type AuctionStore struct {
	records map[uint64]*auction.Auction
	mu      sync.RWMutex
}

// NewAuctionStore creates an empty in-memory auction store
func NewAuctionStore() *AuctionStore {
	return &AuctionStore{
		records: make(map[uint64]*auction.Auction),
	}
}

// Create inserts a new auction record, replacing any terminal record
// kept for the same token.
func (s *AuctionStore) Create(ctx context.Context, a *auction.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *a
	s.records[a.TokenID] = &copied
	return nil
}

// Get retrieves the latest auction record for a token
func (s *AuctionStore) Get(ctx context.Context, tokenID uint64) (*auction.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[tokenID]
	if !ok {
		return nil, shared.ErrAuctionNotFound
	}

	copied := *record
	return &copied, nil
}

// Update overwrites the record for a token
func (s *AuctionStore) Update(ctx context.Context, a *auction.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[a.TokenID]; !ok {
		return shared.ErrAuctionNotFound
	}

	copied := *a
	s.records[a.TokenID] = &copied
	return nil
}

// ListActive retrieves every record with active status
func (s *AuctionStore) ListActive(ctx context.Context) ([]*auction.Auction, error) {
	return s.list(func(a *auction.Auction) bool {
		return a.IsActive()
	}), nil
}

// ListBySeller retrieves every record, active or historical, for a seller
func (s *AuctionStore) ListBySeller(ctx context.Context, seller string) ([]*auction.Auction, error) {
	return s.list(func(a *auction.Auction) bool {
		return a.Seller == seller
	}), nil
}

// ListExpired retrieves active records whose end time has passed
func (s *AuctionStore) ListExpired(ctx context.Context, now time.Time) ([]*auction.Auction, error) {
	return s.list(func(a *auction.Auction) bool {
		return a.IsActive() && a.IsExpired(now)
	}), nil
}

func (s *AuctionStore) list(keep func(*auction.Auction) bool) []*auction.Auction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*auction.Auction, 0)
	for _, record := range s.records {
		if keep(record) {
			copied := *record
			out = append(out, &copied)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TokenID < out[j].TokenID
	})
	return out
}

// WhitelistStore is the in-memory whitelist persistence used when no
// database is configured.
type WhitelistStore struct {
	entries map[string]bool
	mu      sync.RWMutex
}

// NewWhitelistStore creates an empty in-memory whitelist store
func NewWhitelistStore() *WhitelistStore {
	return &WhitelistStore{
		entries: make(map[string]bool),
	}
}

// Put records the status for a collection
func (s *WhitelistStore) Put(ctx context.Context, collection string, status bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[collection] = status
	return nil
}

// All returns every stored collection and its status
func (s *WhitelistStore) All(ctx context.Context) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.entries))
	for collection, status := range s.entries {
		out[collection] = status
	}
	return out, nil
}

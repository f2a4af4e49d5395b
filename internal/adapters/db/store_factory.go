package db

import (
	"nft-auction-ledger/internal/ports/outbound"
)

// StoreFactory creates and manages the database-backed stores
type StoreFactory struct {
	conn *Connection
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(conn *Connection) *StoreFactory {
	return &StoreFactory{conn: conn}
}

// GetAuctionStore returns the auction store
func (f *StoreFactory) GetAuctionStore() outbound.AuctionStore {
	return NewAuctionStore(f.conn)
}

// GetWhitelistStore returns the whitelist store
func (f *StoreFactory) GetWhitelistStore() outbound.WhitelistStore {
	return NewWhitelistStore(f.conn)
}

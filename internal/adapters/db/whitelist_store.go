package db

import (
	"context"
	"fmt"
)

// WhitelistStore persists collection whitelist entries so the gate
// survives restarts.
type WhitelistStore struct {
	conn *Connection
}

// NewWhitelistStore creates a new Postgres whitelist store
func NewWhitelistStore(conn *Connection) *WhitelistStore {
	return &WhitelistStore{conn: conn}
}

// Put records the status for a collection
func (s *WhitelistStore) Put(ctx context.Context, collection string, status bool) error {
	query := `
		INSERT INTO whitelisted_collections (collection, status, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (collection) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
	`

	if _, err := s.conn.GetDB().ExecContext(ctx, query, collection, status); err != nil {
		return fmt.Errorf("failed to store whitelist entry: %w", err)
	}

	return nil
}

// All returns every stored collection and its status
func (s *WhitelistStore) All(ctx context.Context) (map[string]bool, error) {
	query := `SELECT collection, status FROM whitelisted_collections`

	rows, err := s.conn.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load whitelist entries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var collection string
		var status bool
		if err := rows.Scan(&collection, &status); err != nil {
			return nil, fmt.Errorf("failed to scan whitelist entry: %w", err)
		}
		out[collection] = status
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate whitelist entries: %w", err)
	}

	return out, nil
}

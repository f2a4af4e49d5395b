package memory

import (
	"context"
	"sort"
	"sync"

	"nft-auction-ledger/internal/domain/shared"
)

type tokenRecord struct {
	owner      string
	collection string
}

// AssetRegistry is an in-process stand-in for the external
// asset-ownership contract. It tracks token ownership and collection
// membership; minting and metadata stay out of scope.
type AssetRegistry struct {
	tokens map[uint64]*tokenRecord
	mu     sync.RWMutex
}

// NewAssetRegistry creates an empty asset registry
func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{
		tokens: make(map[uint64]*tokenRecord),
	}
}

// Register records a token with its collection and initial owner.
func (r *AssetRegistry) Register(tokenID uint64, collection, owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenID] = &tokenRecord{owner: owner, collection: collection}
}

// OwnerOf returns the current owner address of a token
func (r *AssetRegistry) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[tokenID]
	if !ok {
		return "", shared.ErrTokenNotFound
	}
	return token.owner, nil
}

// CollectionOf returns the collection a token belongs to
func (r *AssetRegistry) CollectionOf(ctx context.Context, tokenID uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[tokenID]
	if !ok {
		return "", shared.ErrTokenNotFound
	}
	return token.collection, nil
}

// Transfer moves a token between addresses. Fails when the token is
// unknown or not held by the expected sender, leaving ownership
// untouched.
func (r *AssetRegistry) Transfer(ctx context.Context, from, to string, tokenID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[tokenID]
	if !ok {
		return shared.ErrTokenNotFound
	}
	if token.owner != from {
		return shared.ErrNotTokenOwner
	}

	token.owner = to
	return nil
}

// TokensOf returns the token ids currently owned by an address.
func (r *AssetRegistry) TokensOf(owner string) []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]uint64, 0)
	for tokenID, token := range r.tokens {
		if token.owner == owner {
			out = append(out, tokenID)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

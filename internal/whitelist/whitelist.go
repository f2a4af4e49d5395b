package whitelist

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry gates which collections may have auctions created against
// them. Unknown collections are not whitelisted. Revoking a collection
// has no effect on auctions already active.
type Registry struct {
	collections map[string]bool
	mu          sync.RWMutex
	logger      zerolog.Logger
}

type RegistryParams struct {
	Logger zerolog.Logger
}

// NewRegistry creates an empty whitelist registry
func NewRegistry(params RegistryParams) *Registry {
	return &Registry{
		collections: make(map[string]bool),
		logger:      params.Logger.With().Str("component", "whitelist_registry").Logger(),
	}
}

// IsWhitelisted reports whether a collection may be listed.
func (r *Registry) IsWhitelisted(collection string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collections[collection]
}

// SetWhitelisted authorizes or revokes a collection. Owner checks happen
// in the admin service; the registry itself is not principal-aware.
func (r *Registry) SetWhitelisted(collection string, status bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.collections[collection] = status

	r.logger.Info().
		Str("collection", collection).
		Bool("status", status).
		Msg("Collection whitelist status updated")
}

// Collections returns every known collection and its status.
func (r *Registry) Collections() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.collections))
	for collection, status := range r.collections {
		out[collection] = status
	}
	return out
}

package locale

import (
	"context"
	"sync"
	"time"
)

type registryEntry struct {
	resolver *Resolver
	lastUsed time.Time
}

// Registry owns one started Resolver per client and evicts the least recently
// used one once maxEntries is exceeded.
type Registry struct {
	ctx        context.Context
	loader     Loader
	opts       []Option
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry creates a registry whose resolvers load within ctx.
func NewRegistry(ctx context.Context, loader Loader, maxEntries int, opts ...Option) *Registry {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Registry{
		ctx:        ctx,
		loader:     loader,
		opts:       opts,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]*registryEntry),
	}
}

// Get returns the resolver for clientID, creating and starting it with store on
// first use.
func (g *Registry) Get(clientID string, store Store) *Resolver {
	g.mu.Lock()
	if entry, ok := g.entries[clientID]; ok {
		entry.lastUsed = g.now()
		g.mu.Unlock()
		return entry.resolver
	}

	resolver := NewResolver(g.loader, store, g.opts...)
	g.entries[clientID] = &registryEntry{resolver: resolver, lastUsed: g.now()}
	evicted := g.evictLocked(clientID)
	g.mu.Unlock()

	for _, old := range evicted {
		old.Close()
	}
	resolver.Start(g.ctx)
	return resolver
}

// Forget drops the resolver for clientID.
func (g *Registry) Forget(clientID string) {
	g.mu.Lock()
	entry, ok := g.entries[clientID]
	delete(g.entries, clientID)
	g.mu.Unlock()
	if ok {
		entry.resolver.Close()
	}
}

// Len reports how many resolvers are resident.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

func (g *Registry) evictLocked(keep string) []*Resolver {
	var evicted []*Resolver
	for len(g.entries) > g.maxEntries {
		var (
			oldestID string
			oldest   time.Time
		)
		for id, entry := range g.entries {
			if id == keep {
				continue
			}
			if oldestID == "" || entry.lastUsed.Before(oldest) {
				oldestID = id
				oldest = entry.lastUsed
			}
		}
		evicted = append(evicted, g.entries[oldestID].resolver)
		delete(g.entries, oldestID)
	}
	return evicted
}

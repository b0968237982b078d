package coach

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Hub hands out one Controller per origin, loading it from the store on
// first use. Controllers idle longer than Config.Hub.IdleTTL, or the least
// recently used ones beyond Config.Hub.MaxResident, are dropped when a new
// origin is loaded; the next request reloads them from the store.
type Hub struct {
	deps Deps
	cfg  HubConfig

	loads singleflight.Group

	mu          sync.Mutex
	controllers map[uuid.UUID]*hubEntry
}

type hubEntry struct {
	c        *Controller
	lastUsed time.Time
}

func NewHub(deps Deps) *Hub {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Hub{
		deps:        deps,
		cfg:         deps.Config.withDefaults().Hub,
		controllers: make(map[uuid.UUID]*hubEntry),
	}
}

// Get returns the origin's controller. A resident controller is first
// synced with the store so writes from other processes are visible.
func (h *Hub) Get(ctx context.Context, origin uuid.UUID) (*Controller, error) {
	h.mu.Lock()
	e, ok := h.controllers[origin]
	if ok {
		e.lastUsed = h.deps.Now()
	}
	h.mu.Unlock()
	if ok {
		if err := e.c.Sync(ctx); err != nil {
			return nil, err
		}
		return e.c, nil
	}

	v, err, _ := h.loads.Do(origin.String(), func() (any, error) {
		h.mu.Lock()
		existing, ok := h.controllers[origin]
		h.mu.Unlock()
		if ok {
			return existing.c, nil
		}
		c := NewController(origin, h.deps)
		if err := c.Load(ctx); err != nil {
			return nil, err
		}
		now := h.deps.Now()
		h.mu.Lock()
		h.controllers[origin] = &hubEntry{c: c, lastUsed: now}
		h.evictLocked(origin, now)
		h.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Controller), nil
}

// evictLocked never drops keep or a controller that is mid-operation.
func (h *Hub) evictLocked(keep uuid.UUID, now time.Time) {
	for id, e := range h.controllers {
		if id != keep && now.Sub(e.lastUsed) > h.cfg.IdleTTL && e.c.idle() {
			delete(h.controllers, id)
		}
	}
	for len(h.controllers) > h.cfg.MaxResident {
		var (
			oldest uuid.UUID
			at     time.Time
			found  bool
		)
		for id, e := range h.controllers {
			if id == keep || !e.c.idle() {
				continue
			}
			if !found || e.lastUsed.Before(at) {
				oldest, at, found = id, e.lastUsed, true
			}
		}
		if !found {
			return
		}
		delete(h.controllers, oldest)
	}
}

// Len reports how many origins are loaded.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.controllers)
}

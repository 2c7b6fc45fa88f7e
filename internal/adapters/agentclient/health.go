package agentclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/restartfu/truefan/internal/domain"
)

const DefaultHealthTTL = 2 * time.Second

// Requester sends one request to the agent.
type Requester interface {
	Do(ctx context.Context, method, path string, payload any) Result
}

// HealthCache holds the last known reachability of the agent. Refreshes may
// race; the last one to finish wins.
type HealthCache struct {
	requester Requester
	ttl       time.Duration
	now       func() time.Time

	mu   sync.Mutex
	snap domain.AgentHealth
}

func NewHealthCache(requester Requester, ttl time.Duration) *HealthCache {
	if ttl < 0 {
		ttl = DefaultHealthTTL
	}
	return &HealthCache{
		requester: requester,
		ttl:       ttl,
		now:       time.Now,
		snap: domain.AgentHealth{
			Error: "uninitialized",
		},
	}
}

// Get returns the cached snapshot, refreshing it first when forced or older
// than the TTL.
func (h *HealthCache) Get(ctx context.Context, force bool) domain.AgentHealth {
	snap := h.snapshot()
	if force || snap.LastChecked.IsZero() || h.now().Sub(snap.LastChecked) > h.ttl {
		snap = h.Refresh(ctx)
	}
	return h.withAge(snap)
}

// Refresh checks the agent and stores the outcome.
func (h *HealthCache) Refresh(ctx context.Context) domain.AgentHealth {
	res := h.requester.Do(ctx, http.MethodGet, "/status", nil)

	next := domain.AgentHealth{
		Online:      res.OK,
		StatusCode:  res.StatusCode,
		Error:       res.Error,
		LastChecked: h.now(),
	}
	if res.OK && next.StatusCode == 0 {
		next.StatusCode = http.StatusOK
	}
	if !res.OK && next.Error == "" {
		next.Error = "unreachable"
	}

	h.mu.Lock()
	h.snap = next
	h.mu.Unlock()
	return h.withAge(next)
}

func (h *HealthCache) snapshot() domain.AgentHealth {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}

func (h *HealthCache) withAge(snap domain.AgentHealth) domain.AgentHealth {
	if snap.LastChecked.IsZero() {
		return snap
	}
	age := h.now().Sub(snap.LastChecked)
	if age < 0 {
		age = 0
	}
	snap.Age = age
	snap.AgeSeconds = age.Seconds()
	return snap
}

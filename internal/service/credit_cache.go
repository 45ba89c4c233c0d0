package service

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"carpool/internal/carpool"
	"carpool/internal/metrics"
)

type creditKey struct {
	asOf      carpool.Day
	policy    carpool.CreditPolicy
	inclusive bool
}

// CreditCache memoises credit maps per as-of day. Every save purges it. A
// nil *CreditCache is a disabled cache.
type CreditCache struct {
	lru     *lru.Cache[creditKey, map[string]int]
	metrics *metrics.Metrics

	mu  sync.Mutex
	gen uint64
}

// NewCreditCache returns nil when size is not positive.
func NewCreditCache(size int, m *metrics.Metrics) (*CreditCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[creditKey, map[string]int](size)
	if err != nil {
		return nil, err
	}
	return &CreditCache{lru: c, metrics: m}, nil
}

// Generation is read before computing a value and handed back to Add, so a
// value computed across a purge is dropped.
func (c *CreditCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *CreditCache) Get(k creditKey) (map[string]int, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.lru.Get(k)
	c.metrics.CreditCacheLookup(ok)
	if !ok {
		return nil, false
	}
	return copyCredits(v), true
}

func (c *CreditCache) Add(k creditKey, v map[string]int, gen uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.lru.Add(k, copyCredits(v))
}

func (c *CreditCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.lru.Purge()
}

func (c *CreditCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

func copyCredits(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

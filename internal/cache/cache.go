package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/tastythames/ssh-probe/internal/collector"
)

// Result is the latest outcome for one target. Report is nil when Err is a
// connection or credential failure.
type Result struct {
	At     time.Time
	Labels map[string]string
	Report *collector.Report
	Err    error
}

type Entry struct {
	Target string
	Result
}

// Cache is the interface used by scheduler/metrics.
type Cache interface {
	Set(target string, r Result)
	Get(target string) (Result, bool)
	Snapshot() []Entry
}

// MemCache keeps only the newest result per target; a new run replaces the
// previous one wholesale.
type MemCache struct {
	mu   sync.RWMutex
	data map[string]Result
}

func NewMemCache() *MemCache {
	return &MemCache{
		data: make(map[string]Result),
	}
}

func (c *MemCache) Set(target string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[target] = r
}

func (c *MemCache) Get(target string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.data[target]
	return r, ok
}

// Snapshot copies every entry, sorted by target name.
func (c *MemCache) Snapshot() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.data))
	for k, v := range c.data {
		out = append(out, Entry{Target: k, Result: v})
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out
}

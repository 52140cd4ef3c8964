package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemCache_SetOverwrites(t *testing.T) {
	c := NewMemCache()
	c.Set("a", Result{At: time.Unix(1, 0), Err: errors.New("first")})
	c.Set("a", Result{At: time.Unix(2, 0)})

	r, ok := c.Get("a")
	if !ok {
		t.Fatal("missing entry")
	}
	if r.Err != nil || !r.At.Equal(time.Unix(2, 0)) {
		t.Errorf("stale result kept: %+v", r)
	}
	if _, ok := c.Get("b"); ok {
		t.Error("unexpected entry for b")
	}
}

func TestMemCache_SnapshotSorted(t *testing.T) {
	c := NewMemCache()
	for _, k := range []string{"web-2", "db", "web-1"} {
		c.Set(k, Result{})
	}
	snap := c.Snapshot()
	want := []string{"db", "web-1", "web-2"}
	for i, e := range snap {
		if e.Target != want[i] {
			t.Errorf("snap[%d] = %s; want %s", i, e.Target, want[i])
		}
	}
}

func TestMemCache_Concurrent(t *testing.T) {
	c := NewMemCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(fmt.Sprintf("host-%d", i), Result{At: time.Now()})
			_ = c.Snapshot()
		}(i)
	}
	wg.Wait()
	if n := len(c.Snapshot()); n != 16 {
		t.Errorf("snapshot size = %d; want 16", n)
	}
}

package datasetkit

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gobeaver/datasetkit/datasetvalidator"
)

func sampleVerdict() datasetvalidator.Verdict {
	return datasetvalidator.Verdict{
		Status:  datasetvalidator.StatusWarning,
		Message: `JSON file "a.json" might be missing expected dataset keys.`,
		Issues:  []string{`Missing "labels" object`},
	}
}

func TestMemoryCache(t *testing.T) {
	t.Run("get and set", func(t *testing.T) {
		c := NewMemoryCache()
		if _, ok := c.Get("k"); ok {
			t.Fatal("empty cache should miss")
		}

		c.Set("k", sampleVerdict(), 0)
		got, ok := c.Get("k")
		if !ok {
			t.Fatal("expected hit")
		}
		if diff := cmp.Diff(sampleVerdict(), got); diff != "" {
			t.Errorf("cached verdict mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("stored verdicts are not aliased", func(t *testing.T) {
		c := NewMemoryCache()
		v := sampleVerdict()
		c.Set("k", v, 0)
		v.Issues[0] = "mutated"

		got, _ := c.Get("k")
		got.Issues[0] = "mutated again"

		again, _ := c.Get("k")
		if again.Issues[0] != `Missing "labels" object` {
			t.Errorf("cache entry was mutated: %q", again.Issues[0])
		}
	})

	t.Run("expiry", func(t *testing.T) {
		now := time.Unix(1000, 0)
		c := NewMemoryCache()
		c.now = func() time.Time { return now }

		c.Set("short", sampleVerdict(), time.Minute)
		c.Set("forever", sampleVerdict(), 0)

		now = now.Add(2 * time.Minute)
		if _, ok := c.Get("short"); ok {
			t.Error("expired entry should miss")
		}
		if _, ok := c.Get("forever"); !ok {
			t.Error("entry without TTL should never expire")
		}
	})

	t.Run("cleanup removes expired entries", func(t *testing.T) {
		now := time.Unix(1000, 0)
		c := NewMemoryCache()
		c.now = func() time.Time { return now }

		c.Set("a", sampleVerdict(), time.Second)
		c.Set("b", sampleVerdict(), time.Hour)
		now = now.Add(time.Minute)
		c.Cleanup()

		if size := c.Stats().Size; size != 1 {
			t.Errorf("expected 1 entry after cleanup, got %d", size)
		}
	})

	t.Run("delete and clear", func(t *testing.T) {
		c := NewMemoryCache()
		c.Set("a", sampleVerdict(), 0)
		c.Set("b", sampleVerdict(), 0)

		c.Delete("a")
		if _, ok := c.Get("a"); ok {
			t.Error("deleted entry should miss")
		}
		c.Clear()
		if size := c.Stats().Size; size != 0 {
			t.Errorf("expected empty cache, got %d entries", size)
		}
	})

	t.Run("stats", func(t *testing.T) {
		c := NewMemoryCache()
		c.Set("a", sampleVerdict(), 0)
		c.Get("a")
		c.Get("a")
		c.Get("missing")

		want := CacheStatistics{Hits: 2, Misses: 1, Size: 1, HitRate: 2.0 / 3.0}
		if diff := cmp.Diff(want, c.Stats()); diff != "" {
			t.Errorf("stats mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCacheKey(t *testing.T) {
	plain := cacheKey("abc", datasetvalidator.Options{})
	strict := cacheKey("abc", datasetvalidator.Options{CrossReferences: true})

	if plain == strict {
		t.Error("engine options must be part of the key")
	}
	if plain != "datasetkit:xref=false,types=false:abc" {
		t.Errorf("unexpected key %q", plain)
	}
}

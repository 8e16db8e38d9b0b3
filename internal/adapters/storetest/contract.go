// Package storetest holds behavioural checks shared by every EphemeralStore implementation.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fr0stylo/tokengate/internal/app/ports"
)

// Harness builds a fresh store and advances its notion of time.
type Harness struct {
	New     func(t *testing.T) ports.EphemeralStore
	Advance func(t *testing.T, d time.Duration)
}

// Run exercises the EphemeralStore contract.
func Run(t *testing.T, h Harness) {
	t.Run("set get delete", func(t *testing.T) {
		ctx := context.Background()
		store := h.New(t)

		if err := store.Set(ctx, "k1", []byte("v1"), time.Minute); err != nil {
			t.Fatalf("set: %v", err)
		}
		value, found, err := store.Get(ctx, "k1")
		if err != nil || !found || string(value) != "v1" {
			t.Fatalf("unexpected get: value=%q found=%v err=%v", value, found, err)
		}
		if err := store.Delete(ctx, "k1", "missing"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, found, _ := store.Get(ctx, "k1"); found {
			t.Fatal("expected key to be gone after delete")
		}
	})

	t.Run("missing key is not an error", func(t *testing.T) {
		_, found, err := h.New(t).Get(context.Background(), "nope")
		if err != nil || found {
			t.Fatalf("expected clean miss, found=%v err=%v", found, err)
		}
	})

	t.Run("entries expire", func(t *testing.T) {
		ctx := context.Background()
		store := h.New(t)
		if err := store.Set(ctx, "short", []byte("x"), 50*time.Millisecond); err != nil {
			t.Fatalf("set: %v", err)
		}
		h.Advance(t, 150*time.Millisecond)
		if _, found, _ := store.Get(ctx, "short"); found {
			t.Fatal("expected entry to expire")
		}
	})

	t.Run("set if absent claims once", func(t *testing.T) {
		ctx := context.Background()
		store := h.New(t)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				ok, err := store.SetIfAbsent(ctx, "claim", []byte(fmt.Sprint(i)), time.Minute)
				if err != nil {
					t.Errorf("claim: %v", err)
					return
				}
				if ok {
					wins.Add(1)
				}
			}(i)
		}
		wg.Wait()
		if wins.Load() != 1 {
			t.Fatalf("expected exactly one winning claim, got %d", wins.Load())
		}
	})

	t.Run("increment window counts atomically and expires", func(t *testing.T) {
		ctx := context.Background()
		store := h.New(t)

		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.IncrementWindow(ctx, "counter", 100*time.Millisecond); err != nil {
					t.Errorf("increment: %v", err)
				}
			}()
		}
		wg.Wait()

		count, err := store.IncrementWindow(ctx, "counter", 100*time.Millisecond)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if count != 41 {
			t.Fatalf("expected count 41, got %d", count)
		}

		h.Advance(t, 250*time.Millisecond)
		count, err = store.IncrementWindow(ctx, "counter", 100*time.Millisecond)
		if err != nil {
			t.Fatalf("increment after expiry: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected fresh window count 1, got %d", count)
		}
	})

	t.Run("scan prefix", func(t *testing.T) {
		ctx := context.Background()
		store := h.New(t)
		for _, key := range []string{"token:o1:meta", "token:o1:meta:1", "token:o1:meta:2", "token:o2:meta:3"} {
			if err := store.Set(ctx, key, []byte("x"), time.Minute); err != nil {
				t.Fatalf("set %s: %v", key, err)
			}
		}
		keys, err := store.ScanPrefix(ctx, "token:o1:meta:")
		if err != nil {
			t.Fatalf("scan: %v", err)
		}
		sort.Strings(keys)
		if len(keys) != 2 || keys[0] != "token:o1:meta:1" || keys[1] != "token:o1:meta:2" {
			t.Fatalf("unexpected scan result: %v", keys)
		}
	})
}

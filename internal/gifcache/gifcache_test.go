package gifcache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New("redis://"+mr.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGetRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key := Key("image", "fen", "brown")
	data := []byte("GIF89a\x00fake")

	if err := c.Put(ctx, key, data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("Get = %q, want %q", got, data)
	}
}

func TestMissReturnsNil(t *testing.T) {
	c := newTestCache(t)
	got, err := c.Get(context.Background(), Key("absent"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("Get miss = %q, want nil", got)
	}
}

func TestKeySeparatesParts(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide.
	if Key("ab", "c") == Key("a", "bc") {
		t.Fatalf("key parts not separated")
	}
	if Key("x") != Key("x") {
		t.Fatalf("key not deterministic")
	}
}

func TestNilCacheIsInert(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	if err := c.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("nil Put: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || got != nil {
		t.Fatalf("nil Get = %q, %v", got, err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}

func TestEmptyURLDisablesCache(t *testing.T) {
	c, err := New("", time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c != nil {
		t.Fatalf("empty url produced a live cache")
	}
}

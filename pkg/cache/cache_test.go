package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	var c Cache = NewNullCache()
	defer c.Close()

	key := NewDefaultKeyer().LayoutKey("scene", LayoutKeyOpts{})
	if err := c.Set(ctx, key, []byte(`{"positions":{}}`), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if data, hit, err := c.Get(ctx, key); err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v, want a plain miss", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}

	if HashValue(map[string]int{"a": 1}) != HashValue(map[string]int{"a": 1}) {
		t.Error("HashValue should be deterministic for equal maps")
	}
	if HashValue([]string{"a"}) == HashValue([]string{"b"}) {
		t.Error("HashValue should differ for different values")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	bk1 := k.BranchKey("n1", "event-split", "abc")
	bk2 := k.BranchKey("n1", "event-split", "abd")
	if bk1 == bk2 {
		t.Error("Different config hashes should produce different keys")
	}
	if !strings.HasPrefix(bk1, "branches:") {
		t.Errorf("BranchKey unexpected prefix: %s", bk1)
	}

	lk1 := k.LayoutKey("scene", LayoutKeyOpts{PreferredSpacing: 180})
	lk2 := k.LayoutKey("scene", LayoutKeyOpts{PreferredSpacing: 200})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "ws:1:")

	key := scoped.LayoutKey("scene", LayoutKeyOpts{})
	if !strings.HasPrefix(key, "ws:1:layout:") {
		t.Errorf("ScopedKeyer LayoutKey should be prefixed: %s", key)
	}

	branch := scoped.BranchKey("n", "ab-test", "h")
	if branch != "ws:1:"+NewDefaultKeyer().BranchKey("n", "ab-test", "h") {
		t.Errorf("ScopedKeyer BranchKey unexpected: %s", branch)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.BranchKey("n", "t", "h")
	if !strings.HasPrefix(key, "prefix:branches:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrBackend)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrBackend.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, ErrBackend) {
		t.Error("errors.Is should see through RetryableError")
	}
	if IsRetryable(ErrCacheMiss) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return ErrCacheMiss
	})
	if err != ErrCacheMiss {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrBackend)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}

	// Attempts are bounded
	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return Retryable(ErrBackend)
	})
	if !errors.Is(err, ErrBackend) || calls != 3 {
		t.Errorf("RetryWithBackoff() = %v after %d calls, want ErrBackend after 3", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, 3, time.Second, func() error {
		return Retryable(ErrBackend)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestClassifyRedisErr(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      error
		retryable bool
	}{
		{"nil", nil, nil, false},
		{"miss", redis.Nil, ErrCacheMiss, false},
		{"canceled", context.Canceled, context.Canceled, false},
		{"transport", errors.New("connection refused"), ErrBackend, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyRedisErr(tt.err)
			if tt.want == nil {
				if got != nil {
					t.Errorf("classifyRedisErr() = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("classifyRedisErr() = %v, want %v", got, tt.want)
			}
			if IsRetryable(got) != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", IsRetryable(got), tt.retryable)
			}
		})
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)
	defer c.Close()

	src := []byte("value")
	if err := c.Set(ctx, "a", src, 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	src[0] = 'X'

	data, hit, err := c.Get(ctx, "a")
	if err != nil || !hit {
		t.Fatalf("Get() = %v, %v, want hit", hit, err)
	}
	if string(data) != "value" {
		t.Errorf("Get() = %q, want %q (stored copy)", data, "value")
	}

	c.Set(ctx, "b", []byte("b"), 0)
	c.Set(ctx, "c", []byte("c"), 0)
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("least recently used entry should be evicted")
	}

	c.Delete(ctx, "b")
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("Delete should remove entry")
	}
	if _, hit, _ := c.Get(ctx, "c"); !hit {
		t.Error("newest entry should survive")
	}
}

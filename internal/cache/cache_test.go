package cache

import (
	"testing"
	"time"
)

// fakeClock is a controllable time source for expiry tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestCache(ttl time.Duration) (*ResponseCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	return NewResponseCache(ttl, clock.Now), clock
}

func TestCacheHit(t *testing.T) {
	c, _ := newTestCache(DefaultTTL)

	c.Put("key-a", "response-a")

	got, ok := c.Get("key-a")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "response-a" {
		t.Errorf("Get = %q, want %q", got, "response-a")
	}
}

func TestCacheMissUnknownKey(t *testing.T) {
	c, _ := newTestCache(DefaultTTL)

	if _, ok := c.Get("never-stored"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestCacheExpiry(t *testing.T) {
	c, clock := newTestCache(24 * time.Hour)

	c.Put("key-a", "response-a")

	// At exactly the TTL the entry is still valid.
	clock.Advance(24 * time.Hour)
	if _, ok := c.Get("key-a"); !ok {
		t.Error("entry at exactly the TTL should still be served")
	}

	// One step past the TTL it is stale.
	clock.Advance(time.Nanosecond)
	if _, ok := c.Get("key-a"); ok {
		t.Error("entry past the TTL should be a miss")
	}

	// Lazy expiry: the stale read removed the entry.
	if c.Len() != 0 {
		t.Errorf("Len = %d after stale read, want 0", c.Len())
	}
}

func TestCacheOverwriteRefreshesTimestamp(t *testing.T) {
	c, clock := newTestCache(time.Hour)

	c.Put("key-a", "old")
	clock.Advance(50 * time.Minute)
	c.Put("key-a", "new")
	clock.Advance(30 * time.Minute)

	// 80 minutes after the first write but only 30 after the second.
	got, ok := c.Get("key-a")
	if !ok {
		t.Fatal("rewritten entry should be fresh")
	}
	if got != "new" {
		t.Errorf("Get = %q, want %q", got, "new")
	}
}

func TestCacheNoEvictionGoroutine(t *testing.T) {
	c, clock := newTestCache(time.Hour)

	c.Put("key-a", "a")
	c.Put("key-b", "b")
	clock.Advance(2 * time.Hour)

	// Stale entries linger until read.
	if c.Len() != 2 {
		t.Errorf("Len = %d before any read, want 2", c.Len())
	}
	c.Get("key-a")
	if c.Len() != 1 {
		t.Errorf("Len = %d after one stale read, want 1", c.Len())
	}
}

func TestBuildKeyDeterministic(t *testing.T) {
	params := KeyParams{
		Model:           "gpt-4o-mini",
		Tone:            "casual",
		Length:          "medium",
		SpicyLevel:      "none",
		Style:           "standard",
		CreativeOptions: []string{"wordplay"},
		IncludeHashtags: true,
		MediaPayloads:   []string{"data:image/jpeg;base64,QUJD"},
		MaxTokens:       1200,
	}

	key1 := BuildKey(params)
	key2 := BuildKey(params)
	if key1 != key2 {
		t.Errorf("identical params produced different keys: %s != %s", key1, key2)
	}
	if len(key1) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(key1))
	}
}

func TestBuildKeyNilSlicesEqualEmpty(t *testing.T) {
	withNil := KeyParams{Model: "m", Tone: "casual"}
	withEmpty := KeyParams{
		Model: "m", Tone: "casual",
		CreativeOptions: []string{},
		MediaPayloads:   []string{},
	}

	if BuildKey(withNil) != BuildKey(withEmpty) {
		t.Error("nil and empty slices should produce the same key")
	}
}

func TestBuildKeySensitivity(t *testing.T) {
	base := KeyParams{
		Model: "gpt-4o-mini", UserPrompt: "Write 5 captions for the attached photo(s).",
		Tone: "casual", Length: "medium",
		SpicyLevel: "none", Style: "standard",
		MediaPayloads: []string{"payload-a"},
		MaxTokens:     1200,
	}

	testCases := []struct {
		name   string
		mutate func(p KeyParams) KeyParams
	}{
		{name: "model", mutate: func(p KeyParams) KeyParams { p.Model = "gpt-4o"; return p }},
		{name: "user prompt", mutate: func(p KeyParams) KeyParams { p.UserPrompt = "Write 1 fresh caption."; return p }},
		{name: "tone", mutate: func(p KeyParams) KeyParams { p.Tone = "funny"; return p }},
		{name: "length", mutate: func(p KeyParams) KeyParams { p.Length = "short"; return p }},
		{name: "spicy level", mutate: func(p KeyParams) KeyParams { p.SpicyLevel = "mild"; return p }},
		{name: "style", mutate: func(p KeyParams) KeyParams { p.Style = "poetic"; return p }},
		{name: "hashtags flag", mutate: func(p KeyParams) KeyParams { p.IncludeHashtags = true; return p }},
		{name: "emojis flag", mutate: func(p KeyParams) KeyParams { p.IncludeEmojis = true; return p }},
		{name: "media", mutate: func(p KeyParams) KeyParams { p.MediaPayloads = []string{"payload-b"}; return p }},
		{name: "max tokens", mutate: func(p KeyParams) KeyParams { p.MaxTokens = 800; return p }},
	}

	baseKey := BuildKey(base)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if BuildKey(tc.mutate(base)) == baseKey {
				t.Errorf("changing %s did not change the key", tc.name)
			}
		})
	}
}

package cache

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStoreThenLookupWithinTTLReturnsValue(t *testing.T) {
	c := New()
	defer c.Close()

	params := map[string]any{"chat_id": "42"}
	c.Store("get_chat", params, json.RawMessage(`{"id":42}`), time.Minute)

	got, ok := c.Lookup("get_chat", params)
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if string(got) != `{"id":42}` {
		t.Fatalf("unexpected cached value: %s", got)
	}
}

func TestLookupMissAfterTTLExpires(t *testing.T) {
	c := New()
	defer c.Close()

	params := map[string]any{"chat_id": "42"}
	c.Store("get_chat", params, json.RawMessage(`{"id":42}`), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Lookup("get_chat", params); ok {
		t.Fatal("expected the entry to have expired")
	}
}

func TestNonPositiveTTLIsANoOp(t *testing.T) {
	c := New()
	defer c.Close()

	c.Store("get_chat", map[string]any{"chat_id": "1"}, json.RawMessage(`{}`), 0)
	if c.Stats().Size != 0 {
		t.Fatal("expected zero-TTL store to be dropped")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	c := New()
	defer c.Close()

	c.Clear()
	c.Store("get_chat", map[string]any{"chat_id": "1"}, json.RawMessage(`{}`), time.Minute)
	c.Clear()
	c.Clear()

	if c.Stats().Size != 0 {
		t.Fatal("expected cache to be empty after Clear")
	}
}

func TestEvictMethodLeavesOtherMethodsUntouched(t *testing.T) {
	c := New()
	defer c.Close()

	c.Store("get_chat", map[string]any{"chat_id": "1"}, json.RawMessage(`{}`), time.Minute)
	c.Store("get_identity", map[string]any{}, json.RawMessage(`{}`), time.Minute)

	c.EvictMethod("get_chat")

	if _, ok := c.Lookup("get_chat", map[string]any{"chat_id": "1"}); ok {
		t.Fatal("expected get_chat entries to be evicted")
	}
	if _, ok := c.Lookup("get_identity", map[string]any{}); !ok {
		t.Fatal("expected get_identity entry to survive EvictMethod(\"get_chat\")")
	}
}

func TestDistinctParamsDoNotCollide(t *testing.T) {
	c := New()
	defer c.Close()

	c.Store("get_chat", map[string]any{"chat_id": "1"}, json.RawMessage(`{"id":1}`), time.Minute)
	c.Store("get_chat", map[string]any{"chat_id": "2"}, json.RawMessage(`{"id":2}`), time.Minute)

	v1, _ := c.Lookup("get_chat", map[string]any{"chat_id": "1"})
	v2, _ := c.Lookup("get_chat", map[string]any{"chat_id": "2"})
	if string(v1) == string(v2) {
		t.Fatal("expected distinct params to produce distinct cache entries")
	}
}

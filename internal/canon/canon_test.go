package canon

import "testing"

func TestEncodeSortsKeysAtEveryDepth(t *testing.T) {
	a := map[string]any{
		"b": 1.0,
		"a": map[string]any{"z": 1.0, "y": 2.0},
	}
	b := map[string]any{
		"a": map[string]any{"y": 2.0, "z": 1.0},
		"b": 1.0,
	}
	if Encode(a) != Encode(b) {
		t.Fatalf("expected key-order-independent encodings to match: %q vs %q", Encode(a), Encode(b))
	}
}

func TestEncodeDistinguishesValues(t *testing.T) {
	a := map[string]any{"chat_id": "123"}
	b := map[string]any{"chat_id": "124"}
	if Encode(a) == Encode(b) {
		t.Fatal("expected different values to encode differently")
	}
}

func TestKeyIncludesMethodName(t *testing.T) {
	params := map[string]any{"x": 1.0}
	k1 := Key("get_chat", params)
	k2 := Key("get_identity", params)
	if k1 == k2 {
		t.Fatal("expected keys to differ by method name")
	}
}

func TestKeyStableAcrossCalls(t *testing.T) {
	params := map[string]any{"chat_id": "1", "nested": map[string]any{"b": 1.0, "a": 2.0}}
	if Key("get_chat", params) != Key("get_chat", params) {
		t.Fatal("expected repeated encoding of the same map to be stable")
	}
}

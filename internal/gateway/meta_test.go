package gateway

import (
	"testing"

	"github.com/compresr/bot-gateway/internal/methods"
)

func TestFindMatchesOnNameSubstring(t *testing.T) {
	results := Find("send_text", "", 0)
	if len(results) == 0 {
		t.Fatal("expected at least one match for send_text")
	}
	if results[0].Name != "send_text" {
		t.Fatalf("expected exact name match to rank first, got %s", results[0].Name)
	}
}

func TestFindFiltersByCategory(t *testing.T) {
	results := Find("", "info", 50)
	for _, r := range results {
		if r.Category != "info" {
			t.Fatalf("expected only info-category results, got %s (%s)", r.Category, r.Name)
		}
		desc := methods.Lookup(r.Name)
		if !desc.Cacheable && (desc.DestinationScoped || len(desc.Uploads) > 0) {
			t.Fatalf("expected every info-category result to be cacheable or a bot-level method without upload slots, got %s", r.Name)
		}
	}
}

func TestFindDefaultLimitIsTen(t *testing.T) {
	results := Find("", "", 0)
	if len(results) > defaultFindLimit {
		t.Fatalf("expected at most %d results, got %d", defaultFindLimit, len(results))
	}
}

func TestFindLimitIsClampedToMax(t *testing.T) {
	results := Find("", "", 10000)
	if len(results) > maxFindLimit {
		t.Fatalf("expected at most %d results, got %d", maxFindLimit, len(results))
	}
}

func TestFindNoMatchReturnsEmpty(t *testing.T) {
	results := Find("zzzznonexistentmethodzzzz", "", 10)
	if len(results) != 0 {
		t.Fatalf("expected no matches, got %d", len(results))
	}
}

func TestMethodCategoryUpload(t *testing.T) {
	results := Find("send_photo", "", 5)
	if len(results) == 0 {
		t.Fatal("expected send_photo to be found")
	}
	if results[0].Category != "media" {
		t.Fatalf("expected send_photo to be categorized as media, got %s", results[0].Category)
	}
}

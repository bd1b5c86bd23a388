// meta.go implements the meta tool surface's find() ranking: scoring
// method descriptors by substring match, filtering by category, and
// truncating to a caller-supplied limit. Grounded on spec.md §9's own
// call-out that the meta surface needs concrete ranking behaviour the
// distilled spec leaves unsaid.
package gateway

import (
	"sort"
	"strings"

	"github.com/compresr/bot-gateway/internal/methods"
)

const (
	defaultFindLimit = 10
	maxFindLimit     = 50
)

// Category buckets a descriptor for find()'s category filter. A method
// can only belong to one bucket; the checks are ordered so the most
// specific property wins (an uploadable admin action would be unusual,
// but media beats chat-admin if it ever occurs).
func methodCategory(desc *methods.Descriptor) string {
	switch {
	case desc.Cacheable:
		return "info"
	case len(desc.Uploads) > 0:
		return "media"
	case desc.DestinationScoped && isAdminMethod(desc.Name):
		return "chat-admin"
	case desc.DestinationScoped:
		return "messaging"
	default:
		return "info"
	}
}

var adminPrefixes = []string{
	"ban_", "unban_", "restrict_", "promote_", "set_chat_", "pin_",
	"unpin_", "leave_chat", "export_chat_invite_link", "delete_chat_photo",
}

func isAdminMethod(name string) bool {
	for _, p := range adminPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// MethodSummary is the shape find() returns per match: enough for a
// client to decide whether to call the method, without the full
// parameter schema a call() description would need.
type MethodSummary struct {
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Required   []string `json:"required"`
	Optional   []string `json:"optional"`
	Cacheable  bool     `json:"cacheable"`
	Uploadable bool     `json:"uploadable"`
}

func summarize(desc *methods.Descriptor) MethodSummary {
	return MethodSummary{
		Name:       desc.Name,
		Category:   methodCategory(desc),
		Required:   desc.Required,
		Optional:   desc.Optional,
		Cacheable:  desc.Cacheable,
		Uploadable: len(desc.Uploads) > 0,
	}
}

type scoredMethod struct {
	summary MethodSummary
	score   int
}

// Find scores every registered method against query (case-insensitive
// substring match, a name match weighted above a match on the category
// label only), optionally restricts to category, and returns at most limit
// results ordered by descending score then name. limit <= 0 uses
// defaultFindLimit; limit above maxFindLimit is clamped.
func Find(query, category string, limit int) []MethodSummary {
	if limit <= 0 {
		limit = defaultFindLimit
	}
	if limit > maxFindLimit {
		limit = maxFindLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var matches []scoredMethod
	for _, desc := range methods.Table {
		sum := summarize(desc)
		if category != "" && sum.Category != category {
			continue
		}
		score := matchScore(sum, q)
		if q != "" && score == 0 {
			continue
		}
		matches = append(matches, scoredMethod{summary: sum, score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].summary.Name < matches[j].summary.Name
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]MethodSummary, len(matches))
	for i, m := range matches {
		out[i] = m.summary
	}
	return out
}

func matchScore(sum MethodSummary, q string) int {
	if q == "" {
		return 1
	}
	name := strings.ToLower(sum.Name)
	if strings.Contains(name, q) {
		return 2
	}
	if strings.Contains(strings.ToLower(sum.Category), q) {
		return 1
	}
	return 0
}

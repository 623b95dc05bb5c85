// Package llm is the boundary to the external text-generation service.
package llm

import (
	"context"
	"strings"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion carries the generated text and the usage metadata the service
// reported for the call. TotalTokens is zero when the service omits usage.
type Completion struct {
	Text        string
	TotalTokens int
}

// Client produces a completion for an ordered list of role-tagged messages.
// Transport, auth, and rate-limit failures surface as errors; the retry
// policy lives with the caller.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Completion, error)
}

// StripCodeFence removes surrounding markdown fences from generated SQL.
func StripCodeFence(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}

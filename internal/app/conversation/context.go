package conversation

import "github.com/PabloGalante/voicebot/internal/domain"

// DefaultHistoryLimit is how many stored turns follow the persona prompt.
const DefaultHistoryLimit = 10

// ContextOptions bounds the assembled context.
type ContextOptions struct {
	HistoryLimit int // <= 0 means DefaultHistoryLimit
	MaxTokens    int // estimated token budget for history; 0 disables it
}

// BuildContext returns [system(persona)] followed by the most recent turns,
// oldest first. It never mutates history and always keeps the system turn at
// index 0, even when the token budget is smaller than the persona itself.
func BuildContext(history []domain.Turn, persona string, opts ContextOptions) []domain.Turn {
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	recent := history
	if len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}

	if opts.MaxTokens > 0 {
		total := 0
		for _, t := range recent {
			total += EstimateTokens(t.Content)
		}
		for total > opts.MaxTokens && len(recent) > 0 {
			total -= EstimateTokens(recent[0].Content)
			recent = recent[1:]
		}
	}

	out := make([]domain.Turn, 0, len(recent)+1)
	out = append(out, domain.SystemTurn(persona))
	out = append(out, recent...)
	return out
}

// EstimateTokens weighs ASCII at ~4 chars per token and everything else
// (CJK, Cyrillic, emoji) at ~1 char per token.
func EstimateTokens(text string) int {
	weight := 0
	for _, r := range text {
		if r <= 127 {
			weight++
		} else {
			weight += 4
		}
	}
	return (weight + 3) / 4
}

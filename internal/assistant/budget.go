package assistant

// EstimateTokens approximates the token count of a text as len/4. Rough but
// model-agnostic, and consistent on both sides of the budget check.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// estimateMessages sums the token estimate over a message list. Content
// length is the whole cost; roles are not charged.
func estimateMessages(msgs []ChatMessage) int {
	total := 0
	for _, m := range msgs {
		total += EstimateTokens(m.Content)
	}
	return total
}

// EnforceBudget trims msgs to fit maxTokens. The system message at index 0
// is pinned; history is evicted oldest-first from index 1. The input slice
// is never mutated. The returned flag reports whether even the irreducible
// prompt (system message plus the final user message) exceeds the budget.
func EnforceBudget(msgs []ChatMessage, maxTokens int) ([]ChatMessage, bool) {
	if len(msgs) == 0 {
		return nil, false
	}

	kept := make([]ChatMessage, len(msgs))
	copy(kept, msgs)

	for estimateMessages(kept) > maxTokens && len(kept) > 2 {
		// drop the oldest non-system message
		kept = append(kept[:1], kept[2:]...)
	}

	return kept, estimateMessages(kept) > maxTokens
}

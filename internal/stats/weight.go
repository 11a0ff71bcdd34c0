package stats

// DifficultyWeight returns the difficulty multiplier used by the mastery score.
// Brackets weigh most, then separators and quotes, then operators.
func DifficultyWeight(codePoint int) float64 {
	switch rune(codePoint) {
	case '{', '}', '(', ')', '[', ']':
		return 2.0
	case ';', '.', ',', '_', '"', '\'':
		return 1.5
	case '<', '>', '=', '+', '-', '*', '/', '&', '|', '!':
		return 1.3
	default:
		return 1.0
	}
}

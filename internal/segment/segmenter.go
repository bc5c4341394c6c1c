package segment

import "strings"

// DefaultDelimiter is the sentence terminator used when none is configured.
const DefaultDelimiter = "。"

// Split divides text into sentence-like pieces on delimiter. Each piece is
// trimmed and re-suffixed with the delimiter, except the final piece when
// the source text itself did not end with the delimiter. Empty pieces
// (consecutive delimiters, surrounding whitespace) are dropped.
//
// Split is pure: empty or whitespace-only input yields an empty slice, and
// text without the delimiter yields a single trimmed piece.
func Split(text, delimiter string) []string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	var pieces []string
	for _, piece := range strings.Split(text, delimiter) {
		trimmed := strings.TrimSpace(piece)
		if trimmed != "" {
			pieces = append(pieces, trimmed)
		}
	}
	if len(pieces) == 0 {
		return nil
	}

	endsWithDelimiter := strings.HasSuffix(text, delimiter)
	for i := range pieces {
		if i < len(pieces)-1 || endsWithDelimiter {
			pieces[i] += delimiter
		}
	}

	return pieces
}

package search

import "strings"

// special are FTS5 operator characters and punctuation classes that
// commonly carry token-breaking semantics; both are replaced with a
// space. Grounded on the original Rust search.rs's sanitize_query,
// extended with spec §4.9's auto-prefix detection.
const special = `*"():^@~-_./\[]{}+!=><&|`

// Sanitize implements spec §4.9: trims, detects auto-prefix, strips FTS5
// special characters and token-breaking punctuation, collapses
// whitespace, and appends '*' when the trimmed input ended in '-' or '_'.
// A trailing '*' also counts as auto-prefix, so Sanitize(Sanitize(q)) ==
// Sanitize(q).
func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	autoPrefix := strings.HasSuffix(trimmed, "-") || strings.HasSuffix(trimmed, "_") ||
		strings.HasSuffix(trimmed, "*")

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteRune(r)
		case strings.ContainsRune(special, r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	collapsed := strings.Join(strings.Fields(b.String()), " ")
	if autoPrefix && collapsed != "" {
		collapsed += "*"
	}
	return collapsed
}

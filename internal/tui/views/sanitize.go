package views

import (
	"strings"
	"unicode/utf8"
)

// sanitizeForTerminal removes codepoints that break tcell/tview rendering
// or could drive the terminal:
// - Skin tone modifiers (U+1F3FB..U+1F3FF) that create multi-codepoint emoji
// - Zero Width Joiner (U+200D) used in emoji sequences like family/couple emoji
// - Variation Selectors (U+FE00..U+FE0F) that modify preceding characters
// - C0/C1 control characters other than newline and tab, including ESC
// Invalid UTF-8 is replaced with U+FFFD.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			b.WriteRune(utf8.RuneError)
		case r == '\r':
		case !isProblematicRune(r):
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	case r == '\n' || r == '\t':
		return false
	// C0 controls and DEL.
	case r < 0x20 || r == 0x7F:
		return true
	// C1 controls.
	case r >= 0x80 && r <= 0x9F:
		return true
	// Skin tone modifiers.
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	// Zero Width Joiner.
	case r == 0x200D:
		return true
	// Variation Selectors.
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	// Variation Selectors Supplement.
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	default:
		return false
	}
}

// oneLine collapses s to a single line for table cells.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package wa

import "regexp"

var (
	boldRe   = regexp.MustCompile(`\*(.*?)\*`)
	italicRe = regexp.MustCompile(`_(.*?)_`)
)

// ToMarkdown rewrites WhatsApp inline formatting into common markdown:
// *bold* becomes **bold** and _italic_ becomes *italic*. Bold runs first so
// the asterisks it emits are not mistaken for italics. ~strike~ is left
// alone; the markdown renderer accepts single and double tildes.
func ToMarkdown(text string) string {
	text = boldRe.ReplaceAllString(text, "**$1**")
	return italicRe.ReplaceAllString(text, "*$1*")
}

package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/wachats/internal/tui/ui"
	"github.com/matheus3301/wachats/internal/wa"
	"github.com/rivo/tview"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// BubbleKind classifies a message by delivery status.
type BubbleKind int

const (
	BubbleIncoming BubbleKind = iota
	BubbleSent
	BubbleRead
	BubbleFailed
)

func (k BubbleKind) String() string {
	switch k {
	case BubbleIncoming:
		return "incoming"
	case BubbleSent:
		return "sent"
	case BubbleRead:
		return "read"
	case BubbleFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BubbleStyle is the placement and color class of a message bubble.
type BubbleStyle struct {
	Align int // tview.AlignLeft or tview.AlignRight
	Kind  BubbleKind
}

// StyleForStatus maps a message status to its bubble style. Incoming
// messages sit on the left, everything sent by the operator on the right.
func StyleForStatus(status string) BubbleStyle {
	switch status {
	case wa.StatusIncoming:
		return BubbleStyle{Align: tview.AlignLeft, Kind: BubbleIncoming}
	case wa.StatusFailed:
		return BubbleStyle{Align: tview.AlignRight, Kind: BubbleFailed}
	case wa.StatusRead:
		return BubbleStyle{Align: tview.AlignRight, Kind: BubbleRead}
	default:
		return BubbleStyle{Align: tview.AlignRight, Kind: BubbleSent}
	}
}

// Color returns the theme color of the bubble.
func (s BubbleStyle) Color(theme *ui.Theme) tcell.Color {
	switch s.Kind {
	case BubbleFailed:
		return theme.FailedColor
	case BubbleRead:
		return theme.ReadColor
	case BubbleSent:
		return theme.SentColor
	default:
		return theme.IncomingColor
	}
}

// MediaURLFunc builds the URL of a media object.
type MediaURLFunc func(phoneNumberID, mediaID string) string

// Renderer turns message payloads into tview-tagged text.
type Renderer struct {
	theme    *ui.Theme
	md       goldmark.Markdown
	mediaURL MediaURLFunc
}

// NewRenderer creates a renderer. mediaURL may be nil, in which case media
// is shown by id only.
func NewRenderer(theme *ui.Theme, mediaURL MediaURLFunc) *Renderer {
	return &Renderer{
		theme: theme,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
		),
		mediaURL: mediaURL,
	}
}

// Content renders the body of msg in conv. base is the tview color name the
// surrounding bubble uses; formatting tags restore it when they close.
func (r *Renderer) Content(conv wa.Conversation, c wa.Content, base string) string {
	switch c.Type {
	case wa.KindText:
		if c.Text != nil {
			return r.Markdown(c.Text.Body, base)
		}
	case wa.KindImage, wa.KindVideo:
		if id, ok := c.MediaID(); ok {
			return r.media(conv, c, id, base)
		}
	case wa.KindTemplate:
		if c.Template != nil {
			return escape(c.Template.Name)
		}
	case wa.KindButton:
		if c.Button != nil {
			return escape(c.Button.Text)
		}
	case wa.KindUnsupported:
		return "unsupported message"
	}
	return escape(c.RawString())
}

func (r *Renderer) media(conv wa.Conversation, c wa.Content, id, base string) string {
	target := id
	if r.mediaURL != nil {
		target = r.mediaURL(conv.PhoneNumberID, id)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[::b]%s[::-] [%s::u]%s[%s::-]",
		c.Type, ui.ColorName(r.theme.LinkColor), escape(target), base)

	var caption string
	switch {
	case c.Type == wa.KindImage && c.Image != nil:
		caption = c.Image.Caption
	case c.Type == wa.KindVideo && c.Video != nil:
		caption = c.Video.Caption
	}
	if caption != "" {
		b.WriteString("\n")
		b.WriteString(r.Markdown(caption, base))
	}
	return b.String()
}

// Markdown renders WhatsApp formatted text. The text is rewritten to
// markdown, parsed, and the AST is printed with tview style tags.
func (r *Renderer) Markdown(body, base string) string {
	src := []byte(wa.ToMarkdown(body))
	doc := r.md.Parser().Parse(text.NewReader(src))
	w := &tagWriter{
		src:  src,
		base: base,
		link: ui.ColorName(r.theme.LinkColor),
		code: ui.ColorName(r.theme.CodeColor),
	}
	_ = ast.Walk(doc, w.walk)
	w.flush()
	return strings.TrimRight(w.b.String(), "\n")
}

// tagWriter prints a goldmark AST as tview text. Attributes are tracked as
// counters so nested emphasis emits the full attribute set on every change.
type tagWriter struct {
	b       strings.Builder
	pending strings.Builder
	src     []byte
	base    string
	link    string
	code    string

	bold, italic, strike, underline, mono int
	listDepth                             int
	blockquote                            int
}

func (w *tagWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := n.(type) {
	case *ast.Document:
	case *ast.Paragraph, *ast.TextBlock:
		if !entering {
			w.text("\n")
		} else {
			w.quotePrefix()
		}
	case *ast.Heading:
		if entering {
			w.bold++
		} else {
			w.bold--
			w.text("\n")
		}
		w.style()
	case *ast.List:
		if entering {
			w.listDepth++
		} else {
			w.listDepth--
		}
	case *ast.ListItem:
		if entering {
			marker := "•"
			if list, ok := n.Parent().(*ast.List); ok && list.IsOrdered() {
				marker = fmt.Sprintf("%d.", list.Start+indexOf(n))
			}
			w.text(strings.Repeat("  ", w.listDepth-1) + marker + " ")
		}
	case *ast.Blockquote:
		if entering {
			w.blockquote++
		} else {
			w.blockquote--
		}
	case *ast.ThematicBreak:
		if entering {
			w.text("───\n")
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		if entering {
			w.mono++
			w.style()
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				w.text(string(seg.Value(w.src)))
			}
			w.mono--
			w.style()
		}
		return ast.WalkSkipChildren, nil
	case *ast.Emphasis:
		delta := 1
		if !entering {
			delta = -1
		}
		if n.Level >= 2 {
			w.bold += delta
		} else {
			w.italic += delta
		}
		w.style()
	case *east.Strikethrough:
		if entering {
			w.strike++
		} else {
			w.strike--
		}
		w.style()
	case *ast.CodeSpan:
		if entering {
			w.mono++
		} else {
			w.mono--
		}
		w.style()
	case *ast.Link:
		if entering {
			w.underline++
			w.style()
		} else {
			w.underline--
			w.style()
			dest := string(n.Destination)
			if dest != "" && dest != plainText(n, w.src) {
				w.text(" (" + dest + ")")
			}
		}
	case *ast.AutoLink:
		if entering {
			w.underline++
			w.style()
			w.text(string(n.URL(w.src)))
			w.underline--
			w.style()
		}
		return ast.WalkSkipChildren, nil
	case *ast.Image:
		if entering {
			w.text(string(n.Destination))
		}
		return ast.WalkSkipChildren, nil
	case *ast.RawHTML:
		if entering {
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				w.text(string(seg.Value(w.src)))
			}
		}
		return ast.WalkSkipChildren, nil
	case *ast.String:
		if entering {
			w.text(string(n.Value))
		}
	case *ast.Text:
		if entering {
			w.text(string(n.Segment.Value(w.src)))
			if n.SoftLineBreak() || n.HardLineBreak() {
				w.text("\n")
				w.quotePrefix()
			}
		}
	}
	return ast.WalkContinue, nil
}

func (w *tagWriter) quotePrefix() {
	if w.blockquote > 0 {
		w.text(strings.Repeat("│ ", w.blockquote))
	}
}

// style emits a tag that sets the color and attributes implied by the
// current counters.
func (w *tagWriter) style() {
	fg := w.base
	switch {
	case w.mono > 0:
		fg = w.code
	case w.underline > 0:
		fg = w.link
	}
	var attrs strings.Builder
	if w.bold > 0 {
		attrs.WriteByte('b')
	}
	if w.italic > 0 {
		attrs.WriteByte('i')
	}
	if w.strike > 0 {
		attrs.WriteByte('s')
	}
	if w.underline > 0 {
		attrs.WriteByte('u')
	}
	a := attrs.String()
	if a == "" {
		a = "-"
	}
	w.flush()
	fmt.Fprintf(&w.b, "[%s::%s]", fg, a)
}

// text queues literal output. Adjacent literals are escaped together so
// brackets split across AST nodes cannot form a style tag.
func (w *tagWriter) text(s string) {
	w.pending.WriteString(s)
}

func (w *tagWriter) flush() {
	if w.pending.Len() == 0 {
		return
	}
	w.b.WriteString(escape(w.pending.String()))
	w.pending.Reset()
}

func indexOf(item ast.Node) int {
	i := 0
	for s := item.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		i++
	}
	return i
}

func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func escape(s string) string {
	return tview.Escape(sanitizeForTerminal(s))
}

package extract

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/brunobiangulo/pdfword/layout"
)

// Flatten joins every line of every page with newlines. Pages are ordered by
// page number; lines keep their order within a page.
func Flatten(pages []Page) string {
	ordered := make([]Page, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	var lines []string
	for _, p := range ordered {
		for _, l := range p.Lines {
			lines = append(lines, l.Text)
		}
	}
	return norm.NFC.String(strings.Join(lines, "\n"))
}

var wordRe = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// WordCount counts contiguous runs of word characters.
func WordCount(text string) int {
	if text == "" {
		return 0
	}
	return len(wordRe.FindAllStringIndex(text, -1))
}

var glyphEscapeRe = regexp.MustCompile(`\(cid:(\d+)\)`)

// glyphEscapes maps the character codes seen most often in unmapped symbol
// fonts to their intended characters.
var glyphEscapes = map[string]string{
	"127": "•",
	"120": "–",
	"121": "—",
	"133": "…",
}

// NormalizeGlyphEscapes replaces "(cid:N)" markers using a small lookup
// table. Unknown codes are removed.
func NormalizeGlyphEscapes(text string) string {
	return glyphEscapeRe.ReplaceAllStringFunc(text, func(m string) string {
		code := glyphEscapeRe.FindStringSubmatch(m)[1]
		return glyphEscapes[code]
	})
}

// HasGlyphEscapes reports whether any "(cid:" marker is left in text.
func HasGlyphEscapes(text string) bool {
	return strings.Contains(text, "(cid:")
}

// AlignedLines flattens pages into one ordered sequence of text and
// alignment. Every line is kept. Lines without a position are left aligned.
func AlignedLines(pages []Page) []layout.AlignedLine {
	ordered := make([]Page, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	var out []layout.AlignedLine
	for _, p := range ordered {
		for _, l := range p.Lines {
			a := l.Alignment
			if a == "" {
				a = layout.Left
			}
			out = append(out, layout.AlignedLine{Text: l.Text, Alignment: a})
		}
	}
	return out
}

// splitLines returns the trimmed, non-empty lines of text.
func splitLines(text string) []Line {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(raw); s != "" {
			lines = append(lines, Line{Text: s})
		}
	}
	return lines
}

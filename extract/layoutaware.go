package extract

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/brunobiangulo/pdfword/layout"
)

// letterWidth is the page width assumed when no MediaBox can be found.
const letterWidth = 612.0

// LayoutBackend groups positioned glyphs into visual lines. Each line records
// the mean x of its spans and the alignment inferred against the page width.
type LayoutBackend struct{}

func NewLayoutBackend() *LayoutBackend { return &LayoutBackend{} }

func (b *LayoutBackend) Name() string { return LayoutName }

func (b *LayoutBackend) Extract(ctx context.Context, data []byte) (pages []Page, err error) {
	// The parser panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: %v", ErrExtraction, LayoutName, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtraction, LayoutName, err)
	}

	total := reader.NumPage()
	pages = make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, Page{Number: i})
			continue
		}
		width := pageWidth(page.V)
		pages = append(pages, Page{Number: i, Lines: groupGlyphs(page.Content().Text, width)})
	}
	return pages, nil
}

// pageWidth reads the MediaBox width, following Parent links for inherited
// boxes.
func pageWidth(v pdf.Value) float64 {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			x0, ok0 := number(box.Index(0))
			x1, ok1 := number(box.Index(2))
			if ok0 && ok1 && math.Abs(x1-x0) > 0 {
				return math.Abs(x1 - x0)
			}
		}
		v = v.Key("Parent")
	}
	return letterWidth
}

func number(v pdf.Value) (float64, bool) {
	switch v.Kind() {
	case pdf.Integer:
		return float64(v.Int64()), true
	case pdf.Real:
		return v.Float64(), true
	}
	return 0, false
}

type glyphLine struct {
	y float64
	// spanX holds the start x of each run of glyphs sharing font and size.
	spanX []float64
	out   strings.Builder
}

// groupGlyphs builds lines from glyphs in content-stream order. A new line
// starts when the baseline moves by more than a fraction of the font size.
// Within a line a new span starts whenever the font or size changes. A
// horizontal gap wider than a fifth of the font size becomes a space.
func groupGlyphs(glyphs []pdf.Text, width float64) []Line {
	var lines []Line
	var cur *glyphLine
	var prev pdf.Text

	flush := func() {
		if cur == nil {
			return
		}
		if l, ok := cur.line(width); ok {
			lines = append(lines, l)
		}
		cur = nil
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		tol := math.Max(1, g.FontSize*0.3)
		if cur != nil && math.Abs(g.Y-cur.y) > tol {
			flush()
		}
		if cur == nil {
			cur = &glyphLine{y: g.Y}
		}

		blank := strings.TrimSpace(g.S) == ""
		n := len(cur.spanX)
		newSpan := n == 0 || g.Font != prev.Font || g.FontSize != prev.FontSize
		if n > 0 && !blank && gapBetween(prev, g) {
			if !strings.HasSuffix(cur.out.String(), " ") {
				cur.out.WriteByte(' ')
			}
		}
		if blank {
			if cur.out.Len() > 0 && !strings.HasSuffix(cur.out.String(), " ") {
				cur.out.WriteByte(' ')
			}
			prev = g
			continue
		}
		if newSpan {
			cur.spanX = append(cur.spanX, g.X)
		}
		cur.out.WriteString(g.S)
		prev = g
	}
	flush()
	return lines
}

// gapBetween reports whether g starts visibly to the right of where prev
// ended.
func gapBetween(prev, g pdf.Text) bool {
	threshold := math.Max(1, g.FontSize*0.2)
	return g.X-(prev.X+prev.W) > threshold
}

func (gl *glyphLine) line(width float64) (Line, bool) {
	text := strings.Join(strings.Fields(gl.out.String()), " ")
	if text == "" || len(gl.spanX) == 0 {
		return Line{}, false
	}
	var sum float64
	for _, x := range gl.spanX {
		sum += x
	}
	x := sum / float64(len(gl.spanX))
	return Line{
		Text:       text,
		Positioned: true,
		Alignment:  layout.Infer(x, width),
		X:          x,
		PageWidth:  width,
	}, true
}

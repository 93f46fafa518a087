// Package extract pulls per-page text lines out of PDF files.
//
// Three backends implement the Backend interface:
//
//   - PlainBackend ("pdfcpu") scans page content streams for text operators
//     and knows nothing about positions.
//   - LayoutBackend ("ledongthuc") groups positioned glyphs into visual lines
//     and records each line's x position and inferred alignment.
//   - ReadingOrderBackend ("pdftotext") shells out to poppler through docconv
//     and is only used as a fallback.
//
// A Selector runs the first two, keeps the richer result and falls back to
// the third when glyph-escape artifacts survive normalization.
package extract

import (
	"context"
	"errors"

	"github.com/brunobiangulo/pdfword/layout"
)

// ErrExtraction is wrapped by every backend failure.
var ErrExtraction = errors.New("extract: backend could not read PDF")

// Backend extracts pages of text from raw PDF bytes.
type Backend interface {
	Name() string
	Extract(ctx context.Context, pdf []byte) ([]Page, error)
}

// Page is the text of one PDF page. Number is 1-based.
type Page struct {
	Number int    `json:"page_number"`
	Lines  []Line `json:"lines"`
}

// Line is one line of page text. Positioned lines carry the mean x of their
// spans, the page width and the alignment inferred from both.
type Line struct {
	Text       string           `json:"text"`
	Positioned bool             `json:"positioned,omitempty"`
	Alignment  layout.Alignment `json:"alignment,omitempty"`
	X          float64          `json:"x,omitempty"`
	PageWidth  float64          `json:"page_width,omitempty"`
}

// Result is the text chosen by a Selector.
type Result struct {
	Text   string `json:"text"`
	Source string `json:"source"`

	// WordCounts holds the word count of each candidate that ran.
	WordCounts map[string]int `json:"word_counts,omitempty"`
	// FellBack is set when the reading-order fallback replaced the text.
	FellBack bool `json:"fell_back,omitempty"`

	// LayoutPages is the layout backend's output, kept so callers can build
	// aligned lines without parsing the PDF again. Nil if that backend failed.
	LayoutPages []Page `json:"-"`
}

// Package pdftest builds small PDF fixtures for tests.
package pdftest

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"
)

// PageWidth is the width in points of the US Letter pages Build produces.
const PageWidth = 612.0

// Text is a string placed with its baseline at (X, Y), measured in points
// from the top-left corner of the page.
type Text struct {
	X, Y float64
	S    string
}

// Lines places each string on its own baseline at x=72, 20pt apart.
func Lines(lines ...string) []Text {
	out := make([]Text, len(lines))
	for i, s := range lines {
		out[i] = Text{X: 72, Y: 72 + float64(i)*20, S: s}
	}
	return out
}

// Build renders one Helvetica 12pt page per element of pages.
func Build(pages ...[]Text) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(false)
	pdf.SetFont("Helvetica", "", 12)
	for _, texts := range pages {
		pdf.AddPage()
		for _, t := range texts {
			pdf.Text(t.X, t.Y, t.S)
		}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

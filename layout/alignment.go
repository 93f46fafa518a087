// Package layout infers horizontal alignment from line positions and assigns
// the inferred alignment to rendered paragraphs.
package layout

import (
	"fmt"
	"strings"
)

// Alignment is the horizontal placement of a line on its page.
type Alignment string

const (
	Left   Alignment = "left"
	Center Alignment = "center"
	Right  Alignment = "right"
)

// Fractions of the page width used by Infer.
const (
	centerLow  = 0.40
	centerHigh = 0.60
	rightEdge  = 0.75
)

// Infer classifies a line starting at x on a page of the given width.
// x in [0.40w, 0.60w] is center, x >= 0.75w is right, anything else is left.
func Infer(x, pageWidth float64) Alignment {
	if pageWidth <= 0 {
		return Left
	}
	if x >= pageWidth*centerLow && x <= pageWidth*centerHigh {
		return Center
	}
	if x >= pageWidth*rightEdge {
		return Right
	}
	return Left
}

// ParseAlignment parses "left", "center" or "right" (case-insensitive).
func ParseAlignment(s string) (Alignment, error) {
	switch a := Alignment(strings.ToLower(strings.TrimSpace(s))); a {
	case Left, Center, Right:
		return a, nil
	default:
		return "", fmt.Errorf("unknown alignment %q", s)
	}
}

// AlignedLine is one extracted line with its inferred alignment.
type AlignedLine struct {
	Text      string    `json:"text"`
	Alignment Alignment `json:"alignment"`
}

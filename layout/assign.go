package layout

import (
	"fmt"
	"strings"
)

// Mode selects how aligned lines are matched to rendered content lines.
type Mode string

const (
	// None renders every content line left aligned.
	None Mode = "none"
	// Positional gives the i-th content line the i-th aligned line's
	// alignment. The aligned sequence still contains the title, headings and
	// front matter, so the two drift apart on most real documents.
	Positional Mode = "positional"
	// Matched walks the aligned sequence with a forward cursor and only
	// takes an alignment from a line whose text equals the content line.
	Matched Mode = "matched"
)

// ParseMode parses a Mode name. The empty string means Positional.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Positional, nil
	case None, Positional, Matched:
		return m, nil
	default:
		return "", fmt.Errorf("unknown alignment mode %q", s)
	}
}

// Assigner hands out one alignment per rendered content line, in order.
type Assigner interface {
	Next(text string) Alignment
}

// NewAssigner returns the Assigner for mode over lines.
func NewAssigner(mode Mode, lines []AlignedLine) Assigner {
	switch mode {
	case Positional:
		return &positional{lines: lines}
	case Matched:
		return &matched{lines: lines}
	default:
		return leftOnly{}
	}
}

type leftOnly struct{}

func (leftOnly) Next(string) Alignment { return Left }

type positional struct {
	lines []AlignedLine
	i     int
}

func (p *positional) Next(string) Alignment {
	defer func() { p.i++ }()
	if p.i >= len(p.lines) {
		return Left
	}
	return orLeft(p.lines[p.i].Alignment)
}

type matched struct {
	lines  []AlignedLine
	cursor int
}

func (m *matched) Next(text string) Alignment {
	want := collapse(text)
	for j := m.cursor; j < len(m.lines); j++ {
		if collapse(m.lines[j].Text) == want {
			m.cursor = j + 1
			return orLeft(m.lines[j].Alignment)
		}
	}
	return Left
}

func orLeft(a Alignment) Alignment {
	if a == "" {
		return Left
	}
	return a
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

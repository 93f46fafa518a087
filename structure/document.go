package structure

import (
	"fmt"
	"strings"
)

// Section is a heading and the content lines that follow it.
type Section struct {
	Heading string   `json:"heading"`
	Lines   []string `json:"lines"`
}

// Document is the structured result of grouping.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Lookup returns the content lines under heading.
func (d *Document) Lookup(heading string) ([]string, bool) {
	for _, s := range d.Sections {
		if s.Heading == heading {
			return s.Lines, true
		}
	}
	return nil, false
}

// Headings returns the section keys in order.
func (d *Document) Headings() []string {
	out := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		out[i] = s.Heading
	}
	return out
}

// ContentLines returns every content line in rendering order.
func (d *Document) ContentLines() []string {
	var out []string
	for _, s := range d.Sections {
		out = append(out, s.Lines...)
	}
	return out
}

// Text flattens the document back into newline-separated text: the title,
// then each heading followed by its lines.
func (d *Document) Text() string {
	var b strings.Builder
	write := func(s string) {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s)
	}
	if d.Title != "" {
		write(d.Title)
	}
	for _, s := range d.Sections {
		write(s.Heading)
		for _, line := range s.Lines {
			write(line)
		}
	}
	return b.String()
}

// DuplicatePolicy decides what happens when a heading recurs.
type DuplicatePolicy int

const (
	// ResetDuplicates keeps the section where it first appeared and empties
	// its content, so the last occurrence wins.
	ResetDuplicates DuplicatePolicy = iota
	// MergeDuplicates appends later content to the first section.
	MergeDuplicates
	// NumberDuplicates opens a new section keyed "HEADING (n)".
	NumberDuplicates
)

// ParseDuplicatePolicy accepts "reset", "merge" or "number". The empty string
// means reset.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reset":
		return ResetDuplicates, nil
	case "merge":
		return MergeDuplicates, nil
	case "number":
		return NumberDuplicates, nil
	default:
		return 0, fmt.Errorf("unknown duplicate heading policy %q", s)
	}
}

func (p DuplicatePolicy) String() string {
	switch p {
	case MergeDuplicates:
		return "merge"
	case NumberDuplicates:
		return "number"
	default:
		return "reset"
	}
}

// Option configures Group.
type Option func(*options)

type options struct {
	duplicates DuplicatePolicy
}

// WithDuplicatePolicy overrides the default ResetDuplicates policy.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(o *options) { o.duplicates = p }
}

// Group normalizes text, detects the title and collects content lines under
// their most recent heading. Lines before the first heading are dropped.
func Group(text string, opts ...Option) *Document {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	lines := NormalizeLines(text)
	title := DetectTitle(lines)
	return Assemble(title, Classify(lines, title), o.duplicates)
}

// Assemble runs the section state machine over already classified lines.
func Assemble(title string, lines []ClassifiedLine, policy DuplicatePolicy) *Document {
	doc := &Document{Title: title, Sections: []Section{}}
	index := make(map[string]int)
	seen := make(map[string]int)
	current := -1

	for _, cl := range lines {
		switch cl.Kind {
		case Title, Discarded:
			continue
		case Heading:
			key := cl.Text
			seen[key]++
			i, exists := index[key]
			switch {
			case !exists:
				i = len(doc.Sections)
				index[key] = i
				doc.Sections = append(doc.Sections, Section{Heading: key, Lines: []string{}})
			case policy == MergeDuplicates:
			case policy == NumberDuplicates:
				key = numbered(key, seen, index)
				i = len(doc.Sections)
				index[key] = i
				doc.Sections = append(doc.Sections, Section{Heading: key, Lines: []string{}})
			default:
				doc.Sections[i].Lines = []string{}
			}
			current = i
		case Content:
			if current < 0 {
				continue
			}
			doc.Sections[current].Lines = append(doc.Sections[current].Lines, cl.Text)
		}
	}
	return doc
}

// numbered finds the next free "HEADING (n)" key.
func numbered(heading string, seen, index map[string]int) string {
	for n := seen[heading]; ; n++ {
		key := fmt.Sprintf("%s (%d)", heading, n)
		if _, taken := index[key]; !taken {
			return key
		}
	}
}

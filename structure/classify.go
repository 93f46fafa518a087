// Package structure turns extracted plain text into a titled document with
// headed sections.
//
// Classification is purely structural: a heading is a short, mostly
// uppercase line that does not read like prose. No font or layout metadata
// is consulted.
package structure

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxHeadingRunes = 50
	minUpperRatio   = 0.70
	titleWindow     = 5
)

// NormalizeLines splits text into lines, trims them, drops blank ones and
// collapses internal whitespace runs to a single space.
func NormalizeLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// LooksLikeSentence reports whether line ends with a period or contains a
// comma.
func LooksLikeSentence(line string) bool {
	return strings.HasSuffix(line, ".") || strings.Contains(line, ",")
}

// IsHeading reports whether line looks like a section heading.
func IsHeading(line string) bool {
	if utf8.RuneCountInString(line) > maxHeadingRunes {
		return false
	}

	letters, upper := 0, 0
	for _, r := range line {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return false
	}
	if float64(upper)/float64(letters) < minUpperRatio {
		return false
	}
	return !LooksLikeSentence(line)
}

// DetectTitle returns the first heading-like line among the first five
// lines, or "" when none qualifies.
func DetectTitle(lines []string) string {
	for i, line := range lines {
		if i == titleWindow {
			break
		}
		if IsHeading(line) {
			return line
		}
	}
	return ""
}

// Kind tags a classified line.
type Kind int

const (
	Title Kind = iota
	Heading
	Content
	// Discarded marks content that appears before the first heading, such as
	// contact details under a name.
	Discarded
)

func (k Kind) String() string {
	switch k {
	case Title:
		return "title"
	case Heading:
		return "heading"
	case Content:
		return "content"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// ClassifiedLine is a normalized line together with its role.
type ClassifiedLine struct {
	Text string `json:"text"`
	Kind Kind   `json:"kind"`
}

// Classify tags every line. Any line equal to title is a Title, even when it
// recurs further down.
func Classify(lines []string, title string) []ClassifiedLine {
	out := make([]ClassifiedLine, 0, len(lines))
	seenHeading := false
	for _, line := range lines {
		var k Kind
		switch {
		case title != "" && line == title:
			k = Title
		case IsHeading(line):
			k = Heading
			seenHeading = true
		case seenHeading:
			k = Content
		default:
			k = Discarded
		}
		out = append(out, ClassifiedLine{Text: line, Kind: k})
	}
	return out
}

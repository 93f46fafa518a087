package pdfword

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/brunobiangulo/pdfword/docx"
	"github.com/brunobiangulo/pdfword/extract"
	"github.com/brunobiangulo/pdfword/internal/pdftest"
	"github.com/brunobiangulo/pdfword/layout"
	"github.com/brunobiangulo/pdfword/structure"
)

// stubBackend returns fixed pages.
type stubBackend struct {
	name  string
	pages []extract.Page
	err   error
}

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) Extract(ctx context.Context, _ []byte) ([]extract.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.pages, b.err
}

func positioned(text string, a layout.Alignment) extract.Line {
	return extract.Line{Text: text, Positioned: true, Alignment: a, PageWidth: 612}
}

func plainPage(lines ...string) []extract.Page {
	p := extract.Page{Number: 1}
	for _, l := range lines {
		p.Lines = append(p.Lines, extract.Line{Text: l})
	}
	return []extract.Page{p}
}

// reportPages is a title, one heading and one right aligned content line.
func reportPages() []extract.Page {
	return []extract.Page{{Number: 1, Lines: []extract.Line{
		positioned("ANNUAL REPORT", layout.Center),
		positioned("SUMMARY", layout.Left),
		positioned("Revenue grew this year.", layout.Right),
	}}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConverter(t *testing.T, cfg Config, plain, aware extract.Backend) Converter {
	t.Helper()
	c, err := New(cfg,
		WithLogger(quietLogger()),
		WithSelectorOptions(extract.WithCandidates(plain, aware), extract.WithFallback(nil)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func readDOCX(t *testing.T, data []byte) *docx.Package {
	t.Helper()
	pkg, err := docx.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("reading docx: %v", err)
	}
	return pkg
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"alignment", func(c *Config) { c.Alignment = "justify" }},
		{"duplicates", func(c *Config) { c.DuplicateHeadings = "drop" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Extract / Structure
// ---------------------------------------------------------------------------

func TestExtractEmptyInput(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(),
		&stubBackend{name: "a"}, &stubBackend{name: "b"})
	if _, err := c.Extract(context.Background(), nil); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestExtractBothBackendsFail(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(),
		&stubBackend{name: "a", err: errors.New("broken xref")},
		&stubBackend{name: "b", err: errors.New("no pages")})

	_, err := c.Extract(context.Background(), []byte("%PDF"))
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	if !errors.Is(err, extract.ErrExtraction) {
		t.Fatalf("expected wrapped extract.ErrExtraction, got %v", err)
	}
}

func TestExtractCancelled(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(),
		&stubBackend{name: "a"}, &stubBackend{name: "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Extract(ctx, []byte("%PDF"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrExtractionFailed) {
		t.Fatal("cancellation should not be reported as extraction failure")
	}
}

func TestStructure(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(),
		&stubBackend{name: "a", pages: plainPage("ANNUAL REPORT")},
		&stubBackend{name: "b", pages: reportPages()})

	doc, res, err := c.Structure(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != "b" {
		t.Errorf("source = %q, want b", res.Source)
	}
	if doc.Title != "ANNUAL REPORT" {
		t.Errorf("title = %q", doc.Title)
	}
	lines, ok := doc.Lookup("SUMMARY")
	if !ok || len(lines) != 1 || lines[0] != "Revenue grew this year." {
		t.Errorf("SUMMARY = %v, %v", lines, ok)
	}
}

// ---------------------------------------------------------------------------
// Convert
// ---------------------------------------------------------------------------

func TestConvertAlignmentModes(t *testing.T) {
	tests := []struct {
		mode layout.Mode
		want string
	}{
		// The first aligned line is the centered title.
		{layout.Positional, "center"},
		{layout.Matched, "right"},
		{layout.None, "left"},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			c := newTestConverter(t, DefaultConfig(),
				&stubBackend{name: "a", pages: plainPage("x")},
				&stubBackend{name: "b", pages: reportPages()})

			conv, err := c.Convert(context.Background(), []byte("%PDF"), WithAlignmentMode(tt.mode))
			if err != nil {
				t.Fatal(err)
			}
			paras := readDOCX(t, conv.DOCX).Paragraphs()
			if len(paras) != 4 {
				t.Fatalf("got %d paragraphs, want 4: %+v", len(paras), paras)
			}
			content := paras[3]
			if content.Text != "Revenue grew this year." {
				t.Fatalf("content = %q", content.Text)
			}
			if content.Alignment != tt.want {
				t.Errorf("alignment = %q, want %q", content.Alignment, tt.want)
			}
			if tt.mode == layout.None && conv.Aligned != nil {
				t.Errorf("aligned lines computed for mode none: %v", conv.Aligned)
			}
		})
	}
}

func TestConvertUsesConfiguredMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alignment = "matched"
	c := newTestConverter(t, cfg,
		&stubBackend{name: "a", pages: plainPage("x")},
		&stubBackend{name: "b", pages: reportPages()})

	conv, err := c.Convert(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatal(err)
	}
	paras := readDOCX(t, conv.DOCX).Paragraphs()
	if got := paras[len(paras)-1].Alignment; got != "right" {
		t.Errorf("alignment = %q, want right", got)
	}
	if conv.Source != "b" {
		t.Errorf("source = %q", conv.Source)
	}
}

func TestConvertLayoutFailureRendersLeft(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(),
		&stubBackend{name: "a", pages: plainPage("ANNUAL REPORT", "SUMMARY", "Revenue grew this year.")},
		&stubBackend{name: "b", err: errors.New("malformed")})

	conv, err := c.Convert(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatal(err)
	}
	if conv.Source != "a" {
		t.Errorf("source = %q, want a", conv.Source)
	}
	for _, l := range conv.Aligned {
		if l.Alignment != layout.Left {
			t.Errorf("%q aligned %q, want left", l.Text, l.Alignment)
		}
	}
	paras := readDOCX(t, conv.DOCX).Paragraphs()
	if got := paras[len(paras)-1].Alignment; got != "left" {
		t.Errorf("alignment = %q, want left", got)
	}
}

func TestConvertDuplicatePolicy(t *testing.T) {
	pages := plainPage("REPORT", "INTRO", "first line.", "INTRO", "second line.")
	tests := []struct {
		policy   structure.DuplicatePolicy
		headings []string
	}{
		{structure.ResetDuplicates, []string{"INTRO"}},
		{structure.MergeDuplicates, []string{"INTRO"}},
		{structure.NumberDuplicates, []string{"INTRO", "INTRO (2)"}},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			c := newTestConverter(t, DefaultConfig(),
				&stubBackend{name: "a", pages: pages},
				&stubBackend{name: "b", pages: pages})
			conv, err := c.Convert(context.Background(), []byte("%PDF"), WithDuplicatePolicy(tt.policy))
			if err != nil {
				t.Fatal(err)
			}
			got := conv.Document.Headings()
			if len(got) != len(tt.headings) {
				t.Fatalf("headings = %v, want %v", got, tt.headings)
			}
			for i := range got {
				if got[i] != tt.headings[i] {
					t.Errorf("heading %d = %q, want %q", i, got[i], tt.headings[i])
				}
			}
		})
	}
}

func TestConvertFormTable(t *testing.T) {
	c := newTestConverter(t, DefaultConfig(),
		&stubBackend{name: "a", pages: plainPage("x")},
		&stubBackend{name: "b", pages: reportPages()})

	rows := [][]string{{"1", "Name", "Value"}, {"2", "Date"}}
	conv, err := c.Convert(context.Background(), []byte("%PDF"), WithFormTable(rows))
	if err != nil {
		t.Fatal(err)
	}
	tables := readDOCX(t, conv.DOCX).Tables()
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	if got := tables[0].Rows[1]; len(got) != 3 || got[2] != "" {
		t.Errorf("second row = %q, want padded to 3 cells", got)
	}
}

func TestConvertGeneratedPDF(t *testing.T) {
	data, err := pdftest.Build(pdftest.Lines(
		"QUARTERLY REPORT",
		"HIGHLIGHTS",
		"Sales rose in every region.",
		"OUTLOOK",
		"We expect steady growth.",
	))
	if err != nil {
		t.Fatalf("building PDF: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Fallback = false
	c, err := New(cfg, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	conv, err := c.Convert(context.Background(), data)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if conv.Document.Title != "QUARTERLY REPORT" {
		t.Errorf("title = %q", conv.Document.Title)
	}
	for _, h := range []string{"HIGHLIGHTS", "OUTLOOK"} {
		if _, ok := conv.Document.Lookup(h); !ok {
			t.Errorf("missing section %q in %v", h, conv.Document.Headings())
		}
	}
	pkg := readDOCX(t, conv.DOCX)
	if pkg.Title != "QUARTERLY REPORT" {
		t.Errorf("core title = %q", pkg.Title)
	}
}

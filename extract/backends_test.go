package extract

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/brunobiangulo/pdfword/internal/pdftest"
	"github.com/brunobiangulo/pdfword/layout"
)

func buildPDF(t *testing.T, pages ...[]pdftest.Text) []byte {
	t.Helper()
	data, err := pdftest.Build(pages...)
	if err != nil {
		t.Fatalf("building PDF: %v", err)
	}
	return data
}

func pageTexts(pages []Page) map[string]Line {
	out := make(map[string]Line)
	for _, p := range pages {
		for _, l := range p.Lines {
			out[l.Text] = l
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Plain backend
// ---------------------------------------------------------------------------

func TestPlainBackendExtract(t *testing.T) {
	data := buildPDF(t,
		pdftest.Lines("JOHN SMITH", "EXPERIENCE", "Built systems."),
		pdftest.Lines("EDUCATION"),
	)

	pages, err := NewPlainBackend().Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Errorf("page numbers = %d, %d", pages[0].Number, pages[1].Number)
	}
	got := pageTexts(pages[:1])
	for _, want := range []string{"JOHN SMITH", "EXPERIENCE", "Built systems."} {
		l, ok := got[want]
		if !ok {
			t.Errorf("page 1 missing %q (have %v)", want, got)
			continue
		}
		if l.Positioned {
			t.Errorf("plain line %q claims a position", want)
		}
	}
	if Flatten(pages[1:]) != "EDUCATION" {
		t.Errorf("page 2 = %q", Flatten(pages[1:]))
	}
}

func TestCompositeFontsSimplePage(t *testing.T) {
	data := buildPDF(t, pdftest.Lines("Hello Team"))
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	if got := compositeFonts(pctx, 1); len(got) != 0 {
		t.Errorf("compositeFonts = %v, want none for Helvetica", got)
	}
	if got := compositeFonts(pctx, 2); got != nil {
		t.Errorf("compositeFonts(missing page) = %v, want nil", got)
	}
}

func TestPlainBackendRejectsGarbage(t *testing.T) {
	_, err := NewPlainBackend().Extract(context.Background(), []byte("not a pdf"))
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("error = %v, want ErrExtraction", err)
	}
}

// ---------------------------------------------------------------------------
// Layout backend
// ---------------------------------------------------------------------------

func TestLayoutBackendAlignment(t *testing.T) {
	data := buildPDF(t, []pdftest.Text{
		{X: 270, Y: 72, S: "JOHN SMITH"},
		{X: 72, Y: 100, S: "EXPERIENCE"},
		{X: 470, Y: 130, S: "2019"},
	})

	pages, err := NewLayoutBackend().Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}

	got := pageTexts(pages)
	tests := []struct {
		text string
		want layout.Alignment
	}{
		{"JOHN SMITH", layout.Center},
		{"EXPERIENCE", layout.Left},
		{"2019", layout.Right},
	}
	for _, tt := range tests {
		l, ok := got[tt.text]
		if !ok {
			t.Errorf("missing line %q (have %v)", tt.text, got)
			continue
		}
		if !l.Positioned {
			t.Errorf("%q not positioned", tt.text)
		}
		if l.PageWidth != pdftest.PageWidth {
			t.Errorf("%q page width = %v, want %v", tt.text, l.PageWidth, pdftest.PageWidth)
		}
		if l.Alignment != tt.want {
			t.Errorf("%q alignment = %s (x=%.1f), want %s", tt.text, l.Alignment, l.X, tt.want)
		}
	}
}

func TestLayoutBackendRejectsGarbage(t *testing.T) {
	_, err := NewLayoutBackend().Extract(context.Background(), []byte("%PDF-1.4 truncated"))
	if !errors.Is(err, ErrExtraction) {
		t.Errorf("error = %v, want ErrExtraction", err)
	}
}

func TestGroupGlyphs(t *testing.T) {
	glyphs := []pdf.Text{
		{Font: "Helvetica-Bold", FontSize: 12, X: 250, Y: 700, W: 8, S: "J"},
		{Font: "Helvetica-Bold", FontSize: 12, X: 258, Y: 700, W: 8, S: "O"},
		{Font: "Helvetica-Bold", FontSize: 12, X: 266, Y: 700, W: 4, S: " "},
		{Font: "Helvetica", FontSize: 12, X: 350, Y: 700, W: 8, S: "X"},
		{Font: "Helvetica", FontSize: 10, X: 72, Y: 680, W: 6, S: "a"},
		{Font: "Helvetica", FontSize: 10, X: 78, Y: 680, W: 6, S: "b"},
		{Font: "Helvetica", FontSize: 10, X: 100, Y: 680.5, W: 6, S: "c"},
		{Font: "Helvetica", FontSize: 10, X: 72, Y: 660, W: 0, S: " "},
	}
	lines := groupGlyphs(glyphs, 600)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %+v", len(lines), lines)
	}

	first := lines[0]
	if first.Text != "JO X" {
		t.Errorf("first text = %q", first.Text)
	}
	if first.X != 300 || first.Alignment != layout.Center {
		t.Errorf("first x = %v alignment = %s, want mean of span starts 300 and center", first.X, first.Alignment)
	}

	second := lines[1]
	if second.Text != "ab c" {
		t.Errorf("second text = %q", second.Text)
	}
	if second.X != 72 || second.Alignment != layout.Left {
		t.Errorf("second x = %v alignment = %s", second.X, second.Alignment)
	}
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	want := []string{LayoutName, PlainName, ReadingOrderName}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("Names = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if _, err := r.Get("ocr"); err == nil {
		t.Error("expected error for unknown backend")
	}
	r.Register(&fakeBackend{name: "ocr"})
	if b, err := r.Get("ocr"); err != nil || b.Name() != "ocr" {
		t.Errorf("Get(ocr) = %v, %v", b, err)
	}
}

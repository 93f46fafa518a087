package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/pdfword/layout"
)

// Selector runs the plain and layout backends, keeps the candidate with more
// words and escalates to the reading-order backend when glyph escapes
// survive normalization.
type Selector struct {
	plain    Backend
	layout   Backend
	fallback Backend
	logger   *slog.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithCandidates replaces the two backends that compete on word count.
func WithCandidates(plain, layoutAware Backend) SelectorOption {
	return func(s *Selector) {
		s.plain = plain
		s.layout = layoutAware
	}
}

// WithRegistry takes all three backends from r by their built-in names.
// Names missing from r keep the current backend.
func WithRegistry(r *Registry) SelectorOption {
	return func(s *Selector) {
		for name, slot := range map[string]*Backend{
			PlainName:        &s.plain,
			LayoutName:       &s.layout,
			ReadingOrderName: &s.fallback,
		} {
			if b, err := r.Get(name); err == nil {
				*slot = b
			}
		}
	}
}

// WithFallback sets the backend used when glyph escapes remain. Nil disables
// the fallback.
func WithFallback(b Backend) SelectorOption {
	return func(s *Selector) { s.fallback = b }
}

func WithLogger(l *slog.Logger) SelectorOption {
	return func(s *Selector) { s.logger = l }
}

// NewSelector returns a selector over the backends of the default registry.
func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{logger: slog.Default()}
	WithRegistry(NewRegistry())(s)
	for _, o := range opts {
		o(s)
	}
	return s
}

type candidate struct {
	name  string
	pages []Page
	text  string
	words int
	err   error
}

// Select extracts text from pdf and reports which backend produced it.
func (s *Selector) Select(ctx context.Context, pdf []byte) (*Result, error) {
	plain := candidate{name: s.plain.Name()}
	aware := candidate{name: s.layout.Name()}

	var g errgroup.Group
	run := func(b Backend, c *candidate) {
		g.Go(func() error {
			c.pages, c.err = b.Extract(ctx, pdf)
			if c.err == nil {
				c.text = Flatten(c.pages)
				c.words = WordCount(c.text)
			}
			return nil
		})
	}
	run(s.plain, &plain)
	run(s.layout, &aware)
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{WordCounts: make(map[string]int)}
	for _, c := range []*candidate{&plain, &aware} {
		if c.err != nil {
			s.logger.Warn("extract: backend failed", "backend", c.name, "error", c.err)
			continue
		}
		res.WordCounts[c.name] = c.words
	}
	if aware.err == nil {
		res.LayoutPages = aware.pages
	}

	var chosen *candidate
	switch {
	case plain.err != nil && aware.err != nil:
		return nil, fmt.Errorf("%w: %w", ErrExtraction, errors.Join(plain.err, aware.err))
	case aware.err != nil:
		chosen = &plain
	case plain.err != nil:
		chosen = &aware
	case plain.words > aware.words:
		chosen = &plain
	default:
		chosen = &aware
	}

	res.Source = chosen.name
	res.Text = NormalizeGlyphEscapes(chosen.text)

	s.logger.Debug("extract: candidate selected",
		"source", res.Source,
		"plain_words", plain.words,
		"layout_words", aware.words,
	)

	if HasGlyphEscapes(res.Text) && s.fallback != nil {
		res.Source = chosen.name + " + " + s.fallback.Name()
		res.FellBack = true
		res.Text = ""
		pages, err := s.fallback.Extract(ctx, pdf)
		if err != nil {
			s.logger.Warn("extract: fallback failed", "backend", s.fallback.Name(), "error", err)
		} else {
			res.Text = Flatten(pages)
			res.WordCounts[s.fallback.Name()] = WordCount(res.Text)
		}
	}
	return res, nil
}

// Aligned returns the layout backend's lines with their alignment. When the
// layout backend cannot read the file, every line of the plain backend is
// returned left aligned.
func (s *Selector) Aligned(ctx context.Context, pdf []byte) ([]layout.AlignedLine, error) {
	pages, err := s.layout.Extract(ctx, pdf)
	if err == nil {
		return AlignedLines(pages), nil
	}
	s.logger.Warn("extract: layout backend failed, alignment unavailable", "error", err)
	pages, perr := s.plain.Extract(ctx, pdf)
	if perr != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, errors.Join(err, perr))
	}
	return AlignedLines(pages), nil
}

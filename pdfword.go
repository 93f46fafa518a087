// Package pdfword converts PDF documents into editable word processing
// documents. Text is extracted with several backends, grouped under detected
// headings, and rendered as .docx with the alignment inferred from the page
// layout.
package pdfword

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brunobiangulo/pdfword/docx"
	"github.com/brunobiangulo/pdfword/extract"
	"github.com/brunobiangulo/pdfword/layout"
	"github.com/brunobiangulo/pdfword/structure"
)

// Converter is the main entry point for PDF conversion. Calls are independent
// and safe for concurrent use.
type Converter interface {
	// Extract selects the best text for pdf among the extraction backends.
	Extract(ctx context.Context, pdf []byte) (*extract.Result, error)

	// Structure extracts pdf and groups its lines under headings.
	Structure(ctx context.Context, pdf []byte) (*structure.Document, *extract.Result, error)

	// Convert runs the whole pipeline and renders a .docx.
	Convert(ctx context.Context, pdf []byte, opts ...ConvertOption) (*Conversion, error)
}

// Conversion is the result of Convert.
type Conversion struct {
	DOCX     []byte               `json:"-"`
	Document *structure.Document  `json:"document"`
	Source   string               `json:"source"`
	Aligned  []layout.AlignedLine `json:"aligned,omitempty"`
	Result   *extract.Result      `json:"extraction"`
}

// ConvertOption overrides the configured behaviour of one Convert call.
type ConvertOption func(*convertOptions)

type convertOptions struct {
	mode       layout.Mode
	duplicates structure.DuplicatePolicy
	table      [][]string
}

// WithAlignmentMode selects how inferred alignment reaches content lines.
func WithAlignmentMode(m layout.Mode) ConvertOption {
	return func(o *convertOptions) { o.mode = m }
}

// WithFormTable appends a bordered table built from rows.
func WithFormTable(rows [][]string) ConvertOption {
	return func(o *convertOptions) { o.table = rows }
}

// WithDuplicatePolicy decides how recurring headings are grouped.
func WithDuplicatePolicy(p structure.DuplicatePolicy) ConvertOption {
	return func(o *convertOptions) { o.duplicates = p }
}

// Option configures New.
type Option func(*converter)

// WithLogger sets the logger used by the converter and its selector.
func WithLogger(l *slog.Logger) Option {
	return func(c *converter) { c.logger = l }
}

// WithSelectorOptions passes options to the extraction selector, for example
// to swap backends.
func WithSelectorOptions(opts ...extract.SelectorOption) Option {
	return func(c *converter) { c.selectorOpts = append(c.selectorOpts, opts...) }
}

type converter struct {
	selector     *extract.Selector
	selectorOpts []extract.SelectorOption
	logger       *slog.Logger
	defaults     convertOptions
}

// New creates a Converter from cfg.
func New(cfg Config, opts ...Option) (Converter, error) {
	mode, err := layout.ParseMode(cfg.Alignment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	policy, err := structure.ParseDuplicatePolicy(cfg.DuplicateHeadings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	c := &converter{
		logger:   slog.Default(),
		defaults: convertOptions{mode: mode, duplicates: policy},
	}
	for _, fn := range opts {
		fn(c)
	}

	selOpts := []extract.SelectorOption{extract.WithLogger(c.logger)}
	if !cfg.Fallback {
		selOpts = append(selOpts, extract.WithFallback(nil))
	}
	c.selector = extract.NewSelector(append(selOpts, c.selectorOpts...)...)
	return c, nil
}

func (c *converter) Extract(ctx context.Context, pdf []byte) (*extract.Result, error) {
	if len(pdf) == 0 {
		return nil, ErrEmptyInput
	}
	res, err := c.selector.Select(ctx, pdf)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	c.logger.Debug("pdfword: extracted", "source", res.Source, "words", extract.WordCount(res.Text))
	return res, nil
}

func (c *converter) Structure(ctx context.Context, pdf []byte) (*structure.Document, *extract.Result, error) {
	return c.structure(ctx, pdf, c.defaults.duplicates)
}

func (c *converter) structure(ctx context.Context, pdf []byte, policy structure.DuplicatePolicy) (*structure.Document, *extract.Result, error) {
	res, err := c.Extract(ctx, pdf)
	if err != nil {
		return nil, nil, err
	}
	doc := structure.Group(res.Text, structure.WithDuplicatePolicy(policy))
	return doc, res, nil
}

func (c *converter) Convert(ctx context.Context, pdf []byte, opts ...ConvertOption) (*Conversion, error) {
	o := c.defaults
	for _, fn := range opts {
		fn(&o)
	}

	doc, res, err := c.structure(ctx, pdf, o.duplicates)
	if err != nil {
		return nil, err
	}

	var aligned []layout.AlignedLine
	if o.mode != layout.None {
		aligned, err = c.aligned(ctx, pdf, res)
		if err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	err = docx.Render(&buf, doc,
		docx.WithAlignment(layout.NewAssigner(o.mode, aligned)),
		docx.WithFormTable(o.table),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	c.logger.Info("pdfword: converted",
		"source", res.Source,
		"title", doc.Title,
		"sections", len(doc.Sections),
		"alignment", string(o.mode),
		"bytes", buf.Len(),
	)
	return &Conversion{
		DOCX:     buf.Bytes(),
		Document: doc,
		Source:   res.Source,
		Aligned:  aligned,
		Result:   res,
	}, nil
}

// aligned reuses the layout-aware pages from selection when they exist.
func (c *converter) aligned(ctx context.Context, pdf []byte, res *extract.Result) ([]layout.AlignedLine, error) {
	if res.LayoutPages != nil {
		return extract.AlignedLines(res.LayoutPages), nil
	}
	lines, err := c.selector.Aligned(ctx, pdf)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("pdfword: alignment unavailable, rendering left aligned", "error", err)
		return nil, nil
	}
	return lines, nil
}

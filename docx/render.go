// Package docx writes structured documents as Office Open XML word
// processing packages and reads them back.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/brunobiangulo/pdfword/layout"
	"github.com/brunobiangulo/pdfword/structure"
)

// ContentType is the media type of a .docx file.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var (
	ErrRender  = errors.New("docx: cannot render document")
	ErrNotDOCX = errors.New("docx: not a word processing package")
)

// Font sizes are in half-points, spacing in twentieths of a point.
const (
	titleSize         = 32
	headingSize       = 24
	contentSpaceAfter = 120
)

// RenderOption configures Render.
type RenderOption func(*renderOptions)

type renderOptions struct {
	align   layout.Assigner
	table   [][]string
	creator string
	now     func() time.Time
}

// WithAlignment sets the source of content line alignment. Without it every
// content line is left aligned.
func WithAlignment(a layout.Assigner) RenderOption {
	return func(o *renderOptions) { o.align = a }
}

// WithFormTable appends a bordered table holding rows after the sections.
// Empty rows render no table.
func WithFormTable(rows [][]string) RenderOption {
	return func(o *renderOptions) { o.table = rows }
}

// WithCreator sets the dc:creator core property.
func WithCreator(name string) RenderOption {
	return func(o *renderOptions) { o.creator = name }
}

// WithClock sets the clock used for the created and modified properties.
func WithClock(now func() time.Time) RenderOption {
	return func(o *renderOptions) { o.now = now }
}

// Render writes doc as a .docx package to w.
func Render(w io.Writer, doc *structure.Document, opts ...RenderOption) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrRender)
	}
	o := renderOptions{
		align:   layout.NewAssigner(layout.None, nil),
		creator: "pdfword",
		now:     time.Now,
	}
	for _, fn := range opts {
		fn(&o)
	}

	body := buildBody(doc, o)
	stamp := o.now().UTC().Format(time.RFC3339)

	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		v    any
	}{
		{partContentTypes, packageContentTypes()},
		{partRootRels, rootRelationships()},
		{partDocument, wDocument{W: nsMain, Body: body}},
		{partDocumentRels, relationships{
			Xmlns: nsRelationships,
			Rels:  []relationship{{ID: "rId1", Type: relStyles, Target: "styles.xml"}},
		}},
		{partCore, coreProperties{
			CP:       "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
			DC:       "http://purl.org/dc/elements/1.1/",
			DCTerms:  "http://purl.org/dc/terms/",
			XSI:      "http://www.w3.org/2001/XMLSchema-instance",
			Title:    doc.Title,
			Creator:  o.creator,
			Created:  w3cDateTime{Type: "dcterms:W3CDTF", Value: stamp},
			Modified: w3cDateTime{Type: "dcterms:W3CDTF", Value: stamp},
		}},
	}
	for _, p := range parts {
		if err := writeXMLPart(zw, p.name, p.v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrRender, p.name, err)
		}
	}
	if err := writeRawPart(zw, partStyles, stylesXML); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRender, partStyles, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrRender, err)
	}
	return nil
}

func buildBody(doc *structure.Document, o renderOptions) wBody {
	var blocks []any
	if doc.Title != "" {
		p := textParagraph(doc.Title, boldRun(titleSize))
		p.PPr = &wPPr{Jc: &wVal{string(layout.Center)}}
		blocks = append(blocks, p)
	}
	blocks = append(blocks, &wParagraph{})

	for _, s := range doc.Sections {
		blocks = append(blocks, textParagraph(s.Heading, boldRun(headingSize)))
		for _, line := range s.Lines {
			p := textParagraph(line, nil)
			p.PPr = &wPPr{
				Spacing: &wSpacing{After: contentSpaceAfter},
				Jc:      &wVal{string(o.align.Next(line))},
			}
			blocks = append(blocks, p)
		}
	}

	if t := formTable(o.table); t != nil {
		blocks = append(blocks, t)
		// Word requires a paragraph after a table that ends the body.
		blocks = append(blocks, &wParagraph{})
	}
	blocks = append(blocks, letterSection())
	return wBody{Blocks: blocks}
}

func textParagraph(text string, rpr *wRPr) *wParagraph {
	return &wParagraph{Runs: []wRun{{RPr: rpr, Text: newText(text)}}}
}

func boldRun(halfPoints int) *wRPr {
	size := strconv.Itoa(halfPoints)
	return &wRPr{Bold: &wEmpty{}, Size: &wVal{size}, SizeCs: &wVal{size}}
}

func newText(s string) wText {
	t := wText{Value: s}
	if s != strings.TrimSpace(s) {
		t.Space = "preserve"
	}
	return t
}

// letterSection is a US Letter page with one inch margins.
func letterSection() *wSectPr {
	return &wSectPr{
		PgSz:  wPgSz{W: 12240, H: 15840},
		PgMar: wPgMar{Top: 1440, Right: 1440, Bottom: 1440, Left: 1440, Header: 720, Footer: 720},
	}
}

func packageContentTypes() contentTypes {
	return contentTypes{
		Xmlns: nsContentTypes,
		Defaults: []contentDefault{
			{Extension: "rels", ContentType: ctRelationships},
			{Extension: "xml", ContentType: "application/xml"},
		},
		Overrides: []contentOverride{
			{PartName: "/" + partDocument, ContentType: ctDocument},
			{PartName: "/" + partStyles, ContentType: ctStyles},
			{PartName: "/" + partCore, ContentType: ctCore},
		},
	}
}

func rootRelationships() relationships {
	return relationships{
		Xmlns: nsRelationships,
		Rels: []relationship{
			{ID: "rId1", Type: relOfficeDocument, Target: partDocument},
			{ID: "rId2", Type: relCoreProperties, Target: partCore},
		},
	}
}

func writeXMLPart(zw *zip.Writer, name string, v any) error {
	f, err := zw.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f, xml.Header); err != nil {
		return err
	}
	return xml.NewEncoder(f).Encode(v)
}

func writeRawPart(zw *zip.Writer, name, content string) error {
	f, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.WriteString(f, content)
	return err
}

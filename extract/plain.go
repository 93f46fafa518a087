package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// PlainBackend reads text operators straight out of each page's content
// stream. Lines carry no position.
type PlainBackend struct{}

func NewPlainBackend() *PlainBackend {
	// pdfcpu otherwise creates a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)
	return &PlainBackend{}
}

func (b *PlainBackend) Name() string { return PlainName }

func (b *PlainBackend) Extract(ctx context.Context, pdf []byte) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: %v", ErrExtraction, PlainName, r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtraction, PlainName, err)
	}

	pages = make([]Page, 0, pctx.PageCount)
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, Page{Number: pageNr, Lines: splitLines(pageText(pctx, pageNr))})
	}
	return pages, nil
}

// pageText returns the raw text of one page, one line per visual line.
// Pages without a readable content stream yield "".
func pageText(pctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return streamText(data, compositeFonts(pctx, pageNr))
}

// compositeFonts returns the resource names of the page's Type0 fonts,
// whose strings carry two-byte codes.
func compositeFonts(pctx *model.Context, pageNr int) map[string]bool {
	_, _, attrs, err := pctx.PageDict(pageNr, false)
	if err != nil || attrs == nil || attrs.Resources == nil {
		return nil
	}
	obj, ok := attrs.Resources.Find("Font")
	if !ok {
		return nil
	}
	fonts, err := pctx.DereferenceDict(obj)
	if err != nil || fonts == nil {
		return nil
	}
	composite := make(map[string]bool)
	for name, ref := range fonts {
		font, err := pctx.DereferenceDict(ref)
		if err != nil || font == nil {
			continue
		}
		if subtype := font.NameEntry("Subtype"); subtype != nil && *subtype == "Type0" {
			composite[name] = true
		}
	}
	return composite
}

// streamText scans a decoded content stream for shown text. composite
// names the fonts whose strings are two-byte codes.
func streamText(data []byte, composite map[string]bool) string {
	tc := textCollector{composite: composite}
	scanContent(data, tc.handle)
	return tc.text()
}

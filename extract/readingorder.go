package extract

import (
	"bytes"
	"context"
	"fmt"

	"code.sajari.com/docconv"
)

const pdfContentType = "application/pdf"

// ReadingOrderBackend extracts text in reading order through poppler's
// pdftotext, via docconv. It needs the pdftotext binary on PATH.
type ReadingOrderBackend struct{}

func NewReadingOrderBackend() *ReadingOrderBackend { return &ReadingOrderBackend{} }

func (b *ReadingOrderBackend) Name() string { return ReadingOrderName }

func (b *ReadingOrderBackend) Extract(ctx context.Context, pdf []byte) ([]Page, error) {
	type result struct {
		body string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		res, err := docconv.Convert(bytes.NewReader(pdf), pdfContentType, false)
		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{body: res.Body}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrExtraction, ReadingOrderName, r.err)
		}
		return bodyPage(r.body), nil
	}
}

// bodyPage wraps pdftotext output in one page. docconv runs pdftotext with
// -nopgbrk, so page boundaries are not recoverable.
func bodyPage(body string) []Page {
	return []Page{{Number: 1, Lines: splitLines(body)}}
}

package pdfword

import "errors"

var (
	// ErrEmptyInput is returned when a conversion is asked for no bytes.
	ErrEmptyInput = errors.New("pdfword: empty input")

	// ErrExtractionFailed is returned when no extraction backend could read
	// the PDF.
	ErrExtractionFailed = errors.New("pdfword: text extraction failed")

	// ErrRenderFailed is returned when the document cannot be written.
	ErrRenderFailed = errors.New("pdfword: rendering failed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("pdfword: invalid configuration")
)

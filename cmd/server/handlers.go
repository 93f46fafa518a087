package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brunobiangulo/pdfword"
	"github.com/brunobiangulo/pdfword/docx"
	"github.com/brunobiangulo/pdfword/layout"
	"github.com/brunobiangulo/pdfword/store"
	"github.com/brunobiangulo/pdfword/structure"
	"github.com/brunobiangulo/pdfword/tables"
)

const (
	headerConversionID     = "X-Conversion-ID"
	headerExtractionSource = "X-Extraction-Source"

	// multipartMemory is how much of a form is kept in memory before
	// spilling to temporary files.
	multipartMemory = 8 << 20
)

//go:embed upload.html
var uploadHTML string

var uploadPage = template.Must(template.New("upload").Parse(uploadHTML))

type server struct {
	conv  pdfword.Converter
	store store.Store
	cfg   pdfword.Config
}

func newServer(cfg pdfword.Config, conv pdfword.Converter, st store.Store) *server {
	return &server{conv: conv, store: st, cfg: cfg}
}

// routes wires the middleware chain and endpoints:
// request id -> real ip -> recovery -> cors -> auth -> logging -> handlers.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recoveryMiddleware)
	r.Use(corsMiddleware(s.cfg.CORSOrigins))
	r.Use(authMiddleware(s.cfg.APIKey))
	r.Use(logMiddleware)

	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Get("/documents/{id}", s.handleDocument)
	r.Get("/health", s.handleHealth)
	return r
}

// GET /
// The page asks for the API key when authentication is enabled.
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := uploadPage.Execute(w, struct{ Auth bool }{s.cfg.APIKey != ""}); err != nil {
		slog.Error("rendering upload page", "error", err)
	}
}

// POST /upload
// Multipart form: file (PDF, required), table (XLSX, optional), sheet,
// alignment and duplicates (optional overrides).
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxUploadMB)<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form with a file")
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, msg := convertOptions(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	pdf, err := formBytes(r, "file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	if len(pdf) == 0 {
		writeError(w, http.StatusBadRequest, "file is empty")
		return
	}

	rows, err := formTable(r)
	if err != nil {
		slog.Warn("reading form table", "request_id", reqID, "error", err)
		writeError(w, http.StatusBadRequest, "invalid table workbook")
		return
	}
	if rows != nil {
		opts = append(opts, pdfword.WithFormTable(rows))
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.ConvertTimeout))
	defer cancel()

	upload := store.NewHandle(store.KindUpload)
	if err := s.store.Put(ctx, upload, pdf); err != nil {
		slog.Error("storing upload", "request_id", reqID, "id", upload.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "conversion failed")
		return
	}

	conv, err := s.conv.Convert(ctx, pdf, opts...)
	if err != nil {
		slog.Error("conversion error", "request_id", reqID, "id", upload.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "conversion failed")
		return
	}

	output := store.Handle{ID: upload.ID, Kind: store.KindOutput}
	if err := s.store.Put(ctx, output, conv.DOCX); err != nil {
		slog.Error("storing output", "request_id", reqID, "id", output.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "conversion failed")
		return
	}

	slog.Info("converted upload",
		"request_id", reqID,
		"id", upload.ID,
		"source", conv.Source,
		"sections", len(conv.Document.Sections),
	)

	w.Header().Set(headerConversionID, upload.ID)
	w.Header().Set(headerExtractionSource, conv.Source)
	writeDOCX(w, "converted.docx", conv.DOCX)
}

// GET /documents/{id}
func (s *server) handleDocument(w http.ResponseWriter, r *http.Request) {
	h := store.Handle{ID: chi.URLParam(r, "id"), Kind: store.KindOutput}
	data, err := s.store.Get(r.Context(), h)
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidHandle):
		writeError(w, http.StatusNotFound, "document not found")
		return
	case err != nil:
		slog.Error("reading document", "id", h.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read document")
		return
	}
	writeDOCX(w, h.ID+".docx", data)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// convertOptions reads the optional per-request overrides. A non-empty
// message reports a bad value.
func convertOptions(r *http.Request) ([]pdfword.ConvertOption, string) {
	var opts []pdfword.ConvertOption
	if v := r.FormValue("alignment"); v != "" {
		mode, err := layout.ParseMode(v)
		if err != nil {
			return nil, "invalid alignment mode"
		}
		opts = append(opts, pdfword.WithAlignmentMode(mode))
	}
	if v := r.FormValue("duplicates"); v != "" {
		policy, err := structure.ParseDuplicatePolicy(v)
		if err != nil {
			return nil, "invalid duplicate heading policy"
		}
		opts = append(opts, pdfword.WithDuplicatePolicy(policy))
	}
	return opts, ""
}

func formBytes(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// formTable loads the optional table workbook; nil without one.
func formTable(r *http.Request) ([][]string, error) {
	f, _, err := r.FormFile("table")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tables.LoadXLSX(f, r.FormValue("sheet"))
}

func writeDOCX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", docx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

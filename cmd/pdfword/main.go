// Command pdfword converts PDFs to .docx from the command line and exposes the
// intermediate pipeline stages for inspection.
//
// Usage:
//
//	pdfword convert [-o out.docx] [-align none|positional|matched]
//	                [-duplicates reset|merge|number] [-table t.xlsx] in.pdf
//	pdfword extract [-backend pdfcpu|ledongthuc|pdftotext] [-json] in.pdf
//	pdfword structure [-json] in.pdf
//	pdfword inspect [-json] out.docx
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/brunobiangulo/pdfword"
	"github.com/brunobiangulo/pdfword/docx"
	"github.com/brunobiangulo/pdfword/extract"
	"github.com/brunobiangulo/pdfword/layout"
	"github.com/brunobiangulo/pdfword/structure"
	"github.com/brunobiangulo/pdfword/tables"
)

const usage = `usage: pdfword <command> [flags] <file>

commands:
  convert    convert a PDF to .docx
  extract    print the selected text and its source
  structure  print the detected title and sections
  inspect    print the paragraphs and tables of a .docx
`

// errUsage marks command line mistakes; run reports them with exit code 2.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmds := map[string]func(context.Context, []string, io.Writer, io.Writer) error{
		"convert":   cmdConvert,
		"extract":   cmdExtract,
		"structure": cmdStructure,
		"inspect":   cmdInspect,
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err := cmd(ctx, args[1:], stdout, stderr); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			if !errors.Is(err, flag.ErrHelp) {
				fmt.Fprintln(stderr, err)
			}
			return 2
		}
		fmt.Fprintf(stderr, "pdfword %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

// common holds the flags every pipeline command shares.
type common struct {
	configPath string
	verbose    bool
	noFallback bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file (YAML or JSON)")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
	fs.BoolVar(&c.noFallback, "no-fallback", false, "never run the pdftotext fallback")
}

func (c *common) config() (pdfword.Config, error) {
	cfg := pdfword.DefaultConfig()
	if c.configPath != "" {
		var err error
		if cfg, err = pdfword.LoadConfigFile(c.configPath); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if c.noFallback {
		cfg.Fallback = false
	}
	return cfg, nil
}

func (c *common) logger(stderr io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// parse parses args and returns the single positional argument.
func parse(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%w: pdfword %s [flags] <file>", errUsage, fs.Name())
	}
	return fs.Arg(0), nil
}

func newConverter(c *common, cfg pdfword.Config, stderr io.Writer) (pdfword.Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return pdfword.New(cfg, pdfword.WithLogger(c.logger(stderr)))
}

// ---------------------------------------------------------------------------
// convert
// ---------------------------------------------------------------------------

func cmdConvert(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var c common
	fs := newFlagSet("convert", stderr)
	c.register(fs)
	out := fs.String("o", "", "output path (default: input name with .docx)")
	align := fs.String("align", "", "alignment mode: none, positional, matched")
	dups := fs.String("duplicates", "", "duplicate headings: reset, merge, number")
	tablePath := fs.String("table", "", "XLSX workbook holding a form table")
	sheet := fs.String("sheet", "", "sheet of the table workbook (default: first)")
	in, err := parse(fs, args)
	if err != nil {
		return err
	}

	cfg, err := c.config()
	if err != nil {
		return err
	}
	if *align != "" {
		cfg.Alignment = *align
	}
	if *dups != "" {
		cfg.DuplicateHeadings = *dups
	}
	conv, err := newConverter(&c, cfg, stderr)
	if err != nil {
		return err
	}

	var opts []pdfword.ConvertOption
	if *tablePath != "" {
		rows, err := loadTable(*tablePath, *sheet)
		if err != nil {
			return err
		}
		opts = append(opts, pdfword.WithFormTable(rows))
	}

	pdf, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	res, err := conv.Convert(ctx, pdf, opts...)
	if err != nil {
		return err
	}

	if *out == "" {
		*out = strings.TrimSuffix(in, filepath.Ext(in)) + ".docx"
	}
	if err := os.WriteFile(*out, res.DOCX, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %d sections from %s\n", *out, len(res.Document.Sections), res.Source)
	return nil
}

func loadTable(path, sheet string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tables.LoadXLSX(f, sheet)
}

// ---------------------------------------------------------------------------
// extract
// ---------------------------------------------------------------------------

func cmdExtract(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var c common
	fs := newFlagSet("extract", stderr)
	c.register(fs)
	backend := fs.String("backend", "", "run one backend instead of the selector: "+
		strings.Join(extract.NewRegistry().Names(), ", "))
	asJSON := fs.Bool("json", false, "print JSON")
	in, err := parse(fs, args)
	if err != nil {
		return err
	}
	pdf, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	var res *extract.Result
	if *backend != "" {
		b, err := extract.NewRegistry().Get(*backend)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		pages, err := b.Extract(ctx, pdf)
		if err != nil {
			return err
		}
		text := extract.NormalizeGlyphEscapes(extract.Flatten(pages))
		res = &extract.Result{
			Text:       text,
			Source:     b.Name(),
			WordCounts: map[string]int{b.Name(): extract.WordCount(text)},
		}
	} else {
		cfg, err := c.config()
		if err != nil {
			return err
		}
		conv, err := newConverter(&c, cfg, stderr)
		if err != nil {
			return err
		}
		if res, err = conv.Extract(ctx, pdf); err != nil {
			return err
		}
	}

	if *asJSON {
		return writeJSON(stdout, res)
	}
	fmt.Fprintf(stdout, "source: %s\nwords: %d\n\n%s\n", res.Source, extract.WordCount(res.Text), res.Text)
	return nil
}

// ---------------------------------------------------------------------------
// structure
// ---------------------------------------------------------------------------

func cmdStructure(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var c common
	fs := newFlagSet("structure", stderr)
	c.register(fs)
	dups := fs.String("duplicates", "", "duplicate headings: reset, merge, number")
	asJSON := fs.Bool("json", false, "print JSON")
	in, err := parse(fs, args)
	if err != nil {
		return err
	}

	cfg, err := c.config()
	if err != nil {
		return err
	}
	if *dups != "" {
		cfg.DuplicateHeadings = *dups
	}
	conv, err := newConverter(&c, cfg, stderr)
	if err != nil {
		return err
	}
	pdf, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	doc, res, err := conv.Structure(ctx, pdf)
	if err != nil {
		return err
	}

	if *asJSON {
		return writeJSON(stdout, struct {
			Source string `json:"source"`
			*structure.Document
		}{res.Source, doc})
	}
	printDocument(stdout, doc, res.Source)
	return nil
}

func printDocument(w io.Writer, doc *structure.Document, source string) {
	fmt.Fprintf(w, "source: %s\n", source)
	if doc.Title != "" {
		fmt.Fprintf(w, "title: %s\n", doc.Title)
	} else {
		fmt.Fprintln(w, "title: (none)")
	}
	for _, s := range doc.Sections {
		fmt.Fprintf(w, "\n%s\n", s.Heading)
		for _, l := range s.Lines {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
}

// ---------------------------------------------------------------------------
// inspect
// ---------------------------------------------------------------------------

func cmdInspect(_ context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("inspect", stderr)
	asJSON := fs.Bool("json", false, "print JSON")
	in, err := parse(fs, args)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	pkg, err := docx.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}

	if *asJSON {
		return writeJSON(stdout, pkg)
	}
	if pkg.Title != "" {
		fmt.Fprintf(stdout, "title: %s\n", pkg.Title)
	}
	for _, b := range pkg.Blocks {
		switch {
		case b.Paragraph != nil:
			p := b.Paragraph
			align := p.Alignment
			if align == "" {
				align = string(layout.Left)
			}
			flags := ""
			if p.Bold {
				flags = " bold"
			}
			if p.Size > 0 {
				flags += fmt.Sprintf(" %gpt", float64(p.Size)/2)
			}
			fmt.Fprintf(stdout, "[%s%s] %s\n", align, flags, p.Text)
		case b.Table != nil:
			fmt.Fprintf(stdout, "[table %d cols, widths %v]\n", len(b.Table.Widths), b.Table.Widths)
			for _, row := range b.Table.Rows {
				fmt.Fprintf(stdout, "  | %s |\n", strings.Join(row, " | "))
			}
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

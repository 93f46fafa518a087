package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Package is the readable content of a .docx file.
type Package struct {
	Title  string  `json:"title,omitempty"`
	Blocks []Block `json:"blocks"`
}

// Block is either a paragraph or a table, in body order.
type Block struct {
	Paragraph *Paragraph `json:"paragraph,omitempty"`
	Table     *Table     `json:"table,omitempty"`
}

// Paragraph holds the text and the formatting pdfword emits. Size is in
// half-points and SpaceAfter in twentieths of a point; both are zero when
// unset.
type Paragraph struct {
	Text       string `json:"text"`
	Style      string `json:"style,omitempty"`
	Alignment  string `json:"alignment,omitempty"`
	Bold       bool   `json:"bold,omitempty"`
	Size       int    `json:"size,omitempty"`
	SpaceAfter int    `json:"space_after,omitempty"`
}

type Table struct {
	Style   string     `json:"style,omitempty"`
	Widths  []int      `json:"widths,omitempty"`
	Borders []Border   `json:"borders,omitempty"`
	Rows    [][]string `json:"rows"`
}

type Border struct {
	Edge  string `json:"edge"`
	Val   string `json:"val"`
	Size  int    `json:"size"`
	Color string `json:"color"`
}

// Paragraphs returns the paragraphs outside tables.
func (p *Package) Paragraphs() []Paragraph {
	var out []Paragraph
	for _, b := range p.Blocks {
		if b.Paragraph != nil {
			out = append(out, *b.Paragraph)
		}
	}
	return out
}

func (p *Package) Tables() []Table {
	var out []Table
	for _, b := range p.Blocks {
		if b.Table != nil {
			out = append(out, *b.Table)
		}
	}
	return out
}

// Read parses the document body of a .docx package.
func Read(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDOCX, err)
	}

	fileIndex := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		fileIndex[f.Name] = f
	}
	docFile := fileIndex[partDocument]
	if docFile == nil {
		return nil, fmt.Errorf("%w: %s not found", ErrNotDOCX, partDocument)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", partDocument, err)
	}
	defer rc.Close()

	blocks, err := parseBody(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", partDocument, err)
	}
	return &Package{Title: readCoreTitle(fileIndex[partCore]), Blocks: blocks}, nil
}

// DOCX XML structures, read side. Matching is on local names only.

type docxPara struct {
	PPr  *docxParaPr `xml:"pPr"`
	Runs []docxRun   `xml:"r"`
}

type docxParaPr struct {
	PStyle  *docxVal     `xml:"pStyle"`
	Jc      *docxVal     `xml:"jc"`
	Spacing *docxSpacing `xml:"spacing"`
}

type docxVal struct {
	Val string `xml:"val,attr"`
}

type docxSpacing struct {
	After string `xml:"after,attr"`
}

type docxRun struct {
	RPr  *docxRunPr `xml:"rPr"`
	Text []docxText `xml:"t"`
}

type docxRunPr struct {
	Bold *docxVal `xml:"b"`
	Size *docxVal `xml:"sz"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

type docxTable struct {
	TblPr *docxTablePr `xml:"tblPr"`
	Grid  *docxGrid    `xml:"tblGrid"`
	Rows  []docxRow    `xml:"tr"`
}

type docxTablePr struct {
	Style   *docxVal     `xml:"tblStyle"`
	Borders *docxBorders `xml:"tblBorders"`
}

type docxBorders struct {
	Edges []docxBorder `xml:",any"`
}

type docxBorder struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"`
	Size    string `xml:"sz,attr"`
	Color   string `xml:"color,attr"`
}

type docxGrid struct {
	Widths []docxGridCol `xml:"gridCol"`
}

type docxGridCol struct {
	W string `xml:"w,attr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paras []docxPara `xml:"p"`
}

func parseBody(r io.Reader) ([]Block, error) {
	dec := xml.NewDecoder(r)
	var blocks []Block
	inBody := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !inBody {
				inBody = t.Name.Local == "body"
				continue
			}
			switch t.Name.Local {
			case "p":
				var p docxPara
				if err := dec.DecodeElement(&p, &t); err != nil {
					return nil, err
				}
				blocks = append(blocks, Block{Paragraph: convertPara(p)})
			case "tbl":
				var tbl docxTable
				if err := dec.DecodeElement(&tbl, &t); err != nil {
					return nil, err
				}
				blocks = append(blocks, Block{Table: convertTable(tbl)})
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "body" {
				inBody = false
			}
		}
	}
	return blocks, nil
}

func convertPara(p docxPara) *Paragraph {
	out := &Paragraph{Text: extractParaText(p)}
	if p.PPr != nil {
		if p.PPr.PStyle != nil {
			out.Style = p.PPr.PStyle.Val
		}
		if p.PPr.Jc != nil {
			out.Alignment = p.PPr.Jc.Val
		}
		if p.PPr.Spacing != nil {
			out.SpaceAfter, _ = strconv.Atoi(p.PPr.Spacing.After)
		}
	}
	for _, run := range p.Runs {
		if run.RPr == nil {
			continue
		}
		if b := run.RPr.Bold; b != nil && b.Val != "0" && b.Val != "false" {
			out.Bold = true
		}
		if run.RPr.Size != nil && out.Size == 0 {
			out.Size, _ = strconv.Atoi(run.RPr.Size.Val)
		}
	}
	return out
}

func extractParaText(para docxPara) string {
	var b strings.Builder
	for _, run := range para.Runs {
		for _, t := range run.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

func convertTable(tbl docxTable) *Table {
	out := &Table{}
	if tbl.TblPr != nil {
		if tbl.TblPr.Style != nil {
			out.Style = tbl.TblPr.Style.Val
		}
		if tbl.TblPr.Borders != nil {
			for _, e := range tbl.TblPr.Borders.Edges {
				size, _ := strconv.Atoi(e.Size)
				out.Borders = append(out.Borders, Border{Edge: e.XMLName.Local, Val: e.Val, Size: size, Color: e.Color})
			}
		}
	}
	if tbl.Grid != nil {
		for _, c := range tbl.Grid.Widths {
			w, _ := strconv.Atoi(c.W)
			out.Widths = append(out.Widths, w)
		}
	}
	for _, row := range tbl.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			var parts []string
			for _, p := range cell.Paras {
				parts = append(parts, extractParaText(p))
			}
			cells = append(cells, strings.Join(parts, "\n"))
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

type docxCore struct {
	Title string `xml:"title"`
}

func readCoreTitle(f *zip.File) string {
	if f == nil {
		return ""
	}
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()
	var core docxCore
	if err := xml.NewDecoder(rc).Decode(&core); err != nil {
		return ""
	}
	return core.Title
}

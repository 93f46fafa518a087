package docx

// Widths are in twentieths of a point (1440 per inch).
const (
	textWidth = 9360

	borderSize  = 12
	borderColor = "000000"
)

// formColumns are the fixed widths of a three column form: 0.6in, 2.5in
// and 3.0in.
var formColumns = []int{864, 3600, 4320}

// formTable lays rows out as a TableGrid table with explicit single borders.
// Ragged rows are padded with empty cells. Nil when rows hold no cells.
func formTable(rows [][]string) *wTable {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	if cols == 0 {
		return nil
	}

	widths := formColumns
	if cols != len(formColumns) {
		widths = make([]int, cols)
		for i := range widths {
			widths[i] = textWidth / cols
		}
	}
	total := 0
	for _, w := range widths {
		total += w
	}

	edge := wBorder{Val: "single", Size: borderSize, Space: 0, Color: borderColor}
	t := &wTable{
		TblPr: wTblPr{
			Style: wVal{"TableGrid"},
			Width: wWidth{W: total, Type: "dxa"},
			Borders: wBorders{
				Top: edge, Left: edge, Bottom: edge, Right: edge,
				InsideH: edge, InsideV: edge,
			},
			Layout: &wLayout{Type: "fixed"},
		},
	}
	for _, w := range widths {
		t.Grid.Cols = append(t.Grid.Cols, wGridCol{W: w})
	}

	for _, r := range rows {
		row := wRow{Cells: make([]wCell, cols)}
		for c := range cols {
			var text string
			if c < len(r) {
				text = r[c]
			}
			p := wParagraph{PPr: &wPPr{Jc: &wVal{"left"}}}
			if text != "" {
				p.Runs = []wRun{{Text: newText(text)}}
			}
			row.Cells[c] = wCell{
				TcPr:  &wTcPr{Width: wWidth{W: widths[c], Type: "dxa"}},
				Paras: []wParagraph{p},
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

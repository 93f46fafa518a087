package tables

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes cells (sheet -> cell ref -> value) into an in-memory
// workbook. The default "Sheet1" is kept first.
func buildWorkbook(t *testing.T, sheets map[string]map[string]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for name, cells := range sheets {
		if name != "Sheet1" {
			if _, err := f.NewSheet(name); err != nil {
				t.Fatalf("NewSheet(%s): %v", name, err)
			}
		}
		for ref, v := range cells {
			if err := f.SetCellValue(name, ref, v); err != nil {
				t.Fatalf("SetCellValue(%s, %s): %v", name, ref, err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf
}

func TestLoadXLSXFirstSheet(t *testing.T) {
	buf := buildWorkbook(t, map[string]map[string]string{
		"Sheet1": {
			"A1": "No.", "B1": "Field", "C1": "Value",
			"A2": "1", "B2": "Name", "C2": "John Smith",
			"A3": "2", "B3": "Date",
		},
		"Other": {"A1": "ignored"},
	})

	rows, err := LoadXLSX(buf, "")
	if err != nil {
		t.Fatalf("LoadXLSX: %v", err)
	}
	want := [][]string{
		{"No.", "Field", "Value"},
		{"1", "Name", "John Smith"},
		{"2", "Date", ""},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %q, want %q", rows, want)
	}
}

func TestLoadXLSXNamedSheet(t *testing.T) {
	buf := buildWorkbook(t, map[string]map[string]string{
		"Sheet1": {"A1": "first"},
		"Form":   {"A1": "a", "B2": "b"},
	})
	rows, err := LoadXLSX(buf, "Form")
	if err != nil {
		t.Fatalf("LoadXLSX: %v", err)
	}
	want := [][]string{{"a", ""}, {"", "b"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %q, want %q", rows, want)
	}
}

func TestLoadXLSXMissingSheet(t *testing.T) {
	buf := buildWorkbook(t, map[string]map[string]string{"Sheet1": {"A1": "x"}})
	if _, err := LoadXLSX(buf, "Nope"); !errors.Is(err, ErrSheetMissing) {
		t.Errorf("error = %v, want ErrSheetMissing", err)
	}
}

func TestLoadXLSXEmptySheet(t *testing.T) {
	buf := buildWorkbook(t, map[string]map[string]string{"Sheet1": {}})
	rows, err := LoadXLSX(buf, "")
	if err != nil {
		t.Fatalf("LoadXLSX: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %q, want none", rows)
	}
}

func TestLoadXLSXGarbage(t *testing.T) {
	if _, err := LoadXLSX(bytes.NewReader([]byte("not a workbook")), ""); !errors.Is(err, ErrWorkbook) {
		t.Errorf("error = %v, want ErrWorkbook", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   [][]string
		want [][]string
	}{
		{"nil", nil, [][]string{}},
		{"trailing blank rows", [][]string{{"a"}, {""}, {}}, [][]string{{"a"}}},
		{"inner blank rows kept", [][]string{{"a"}, {}, {"b", "c"}}, [][]string{{"a", ""}, {"", ""}, {"b", "c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalize = %q, want %q", got, tt.want)
			}
		})
	}
}

package extract

import (
	"testing"
)

func TestStreamText(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		fonts  map[string]bool
		want   string
	}{
		{
			name:   "one text object per line",
			stream: "BT /F1 12 Tf 72.00 720.00 Td (JOHN SMITH) Tj ET\nBT 72.00 700.00 Td (EXPERIENCE) Tj ET",
			want:   "JOHN SMITH\nEXPERIENCE",
		},
		{
			name:   "same baseline joins with a space",
			stream: "BT 72 720 Td (Left) Tj ET BT 300 720 Td (Right) Tj ET",
			want:   "Left Right",
		},
		{
			name:   "relative moves",
			stream: "BT 72 720 Td (first) Tj 0 -14 Td (second) Tj ET",
			want:   "first\nsecond",
		},
		{
			name:   "kerning gap becomes a space",
			stream: "BT 1 0 0 1 72 700 Tm [(Hel) -20 (lo) -300 (World)] TJ ET",
			want:   "Hello World",
		},
		{
			name:   "next-line operators",
			stream: "BT 72 700 Td 14 TL (one) Tj T* (two) Tj (three) ' 0 0 (four) \" ET",
			want:   "one\ntwo\nthree\nfour",
		},
		{
			name:   "escapes and nesting",
			stream: `BT 72 700 Td (a\(b\)c \\ \101 nested (x)) Tj ET`,
			want:   `a(b)c \ A nested (x)`,
		},
		{
			name:   "windows-1252 bytes",
			stream: `BT 72 700 Td (caf\351 \223quoted\224) Tj ET`,
			want:   "café “quoted”",
		},
		{
			name:   "moves scale with the text matrix",
			stream: "BT /F1 1 Tf 12 0 0 12 72 700 Tm (EXPERIENCE) Tj 0 -1 Td (Built systems.) Tj ET",
			want:   "EXPERIENCE\nBuilt systems.",
		},
		{
			name:   "small vertical move starts a line",
			stream: "BT /F1 12 Tf 72 700 Td (HELLO) Tj 0 -0.8 Td (world) Tj ET",
			want:   "HELLO\nworld",
		},
		{
			name:   "scaled horizontal move stays on the line",
			stream: "BT 10 0 0 10 72 700 Tm (one) Tj 5 0 Td (two) Tj ET",
			want:   "one two",
		},
		{
			name:   "composite font hex codes",
			stream: "BT /C0 12 Tf 72 700 Td <007F> Tj /F1 12 Tf ( item) Tj ET",
			fonts:  map[string]bool{"C0": true},
			want:   "(cid:127) item",
		},
		{
			name:   "simple font hex strings decode as text",
			stream: "BT /F1 12 Tf 72 700 Td <48656C6C6F> Tj ( ) Tj <5465616D> Tj ET",
			fonts:  map[string]bool{"C0": true},
			want:   "Hello Team",
		},
		{
			name:   "comments are skipped",
			stream: "% (hidden) Tj\nBT 72 700 Td (shown) Tj ET",
			want:   "shown",
		},
		{
			name:   "marked content dictionaries",
			stream: "/Span <</MCID 0>> BDC BT 72 700 Td (marked) Tj ET EMC",
			want:   "marked",
		},
		{
			name:   "inline images are skipped",
			stream: "BI /W 1 /H 1 /BPC 8 ID \x00\xff(\x42 EI BT 72 700 Td (after) Tj ET",
			want:   "after",
		},
		{
			name:   "no text",
			stream: "0 0 m 100 100 l S",
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := streamText([]byte(tt.stream), tt.fonts); got != tt.want {
				t.Errorf("streamText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeStringTwoByte(t *testing.T) {
	o := operand{kind: literalOperand, raw: []byte{0x00, 0x41, 0x00, 0x7F}}
	if got, want := decodeString(o, true), "(cid:65)(cid:127)"; got != want {
		t.Errorf("decodeString = %q, want %q", got, want)
	}
}

func TestDecodeStringEvenHexSimpleFont(t *testing.T) {
	o := operand{kind: hexOperand, raw: []byte("Team")}
	if got, want := NormalizeGlyphEscapes(decodeString(o, false)), "Team"; got != want {
		t.Errorf("decodeString = %q, want %q", got, want)
	}
}

func TestDecodeStringDropsControls(t *testing.T) {
	o := operand{kind: literalOperand, raw: []byte("a\x07b\tc")}
	if got, want := decodeString(o, false), "ab c"; got != want {
		t.Errorf("decodeString = %q, want %q", got, want)
	}
}

func TestScanContentOperands(t *testing.T) {
	var ops []string
	var tfSize float64
	scanContent([]byte("q 1 0 0 1 10 20 cm /F1 9.5 Tf [1 [2] 3] TJ Q"), func(op string, args []operand) {
		ops = append(ops, op)
		if op == "Tf" && len(args) == 2 {
			tfSize = args[1].num
		}
		if op == "TJ" {
			if len(args) != 1 || args[0].kind != arrayOperand || len(args[0].items) != 3 {
				t.Errorf("TJ args = %+v", args)
			}
		}
	})
	want := []string{"q", "cm", "Tf", "TJ", "Q"}
	if len(ops) != len(want) {
		t.Fatalf("ops = %q, want %q", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op %d = %q, want %q", i, ops[i], want[i])
		}
	}
	if tfSize != 9.5 {
		t.Errorf("Tf size = %v, want 9.5", tfSize)
	}
}

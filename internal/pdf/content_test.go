package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextRuns(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   []string
	}{
		{
			name:   "single Tj",
			stream: "BT /F1 12 Tf 72 720 Td (Hello World) Tj ET",
			want:   []string{"Hello World"},
		},
		{
			name:   "multiple Tj in order",
			stream: "BT (First) Tj 0 -14 Td (Second) Tj ET",
			want:   []string{"First", "Second"},
		},
		{
			name:   "TJ array is one run",
			stream: "BT [(Hel) -20 (lo) 120 (!)] TJ ET",
			want:   []string{"Hello!"},
		},
		{
			name:   "quote operators",
			stream: "BT (line one) ' 1 2 (line two) \" ET",
			want:   []string{"line one", "line two"},
		},
		{
			name:   "escapes and nested parens",
			stream: `BT (a \(b\) (c) d\\e) Tj ET`,
			want:   []string{`a (b) (c) d\e`},
		},
		{
			name:   "octal escape",
			stream: `BT (caf\351) Tj ET`,
			want:   []string{"café"},
		},
		{
			name:   "winansi punctuation",
			stream: `BT /F1 12 Tf (It\222s \200 5) Tj ET`,
			want:   []string{"It’s € 5"},
		},
		{
			name:   "hex string",
			stream: "BT <48656C6C6F> Tj ET",
			want:   []string{"Hello"},
		},
		{
			name:   "odd hex digit count pads with zero",
			stream: "BT <4142 4> Tj ET",
			want:   []string{"AB@"},
		},
		{
			name:   "utf16 with byte order mark",
			stream: "BT <FEFF00480069> Tj ET",
			want:   []string{"Hi"},
		},
		{
			name:   "blank runs are skipped",
			stream: "BT (   ) Tj (x) Tj [( ) 10] TJ ET",
			want:   []string{"x"},
		},
		{
			name:   "comments ignored",
			stream: "% a comment (not text) Tj\nBT (real) Tj ET",
			want:   []string{"real"},
		},
		{
			name:   "inline image skipped",
			stream: "BI /W 2 /H 2 /BPC 8 ID \x00(Tj)\xff EI BT (after) Tj ET",
			want:   []string{"after"},
		},
		{
			name:   "dictionary operands ignored",
			stream: "/Span << /ActualText (ignored) >> BDC BT (shown) Tj ET EMC",
			want:   []string{"shown"},
		},
		{
			name:   "no text operators",
			stream: "q 1 0 0 1 0 0 cm 0 0 100 100 re f Q",
			want:   nil,
		},
		{
			name:   "unterminated string",
			stream: "BT (dangling",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textRuns([]byte(tt.stream)))
		})
	}
}

func TestDecodeText(t *testing.T) {
	assert.Equal(t, "abc", decodeText([]byte("abc")))
	assert.Equal(t, "ü", decodeText([]byte{0xFC}))
	assert.Equal(t, "’", decodeText([]byte{0x92}))
	assert.Equal(t, "“quoted” – €", decodeText([]byte{0x93, 'q', 'u', 'o', 't', 'e', 'd', 0x94, ' ', 0x96, ' ', 0x80}))
	assert.Equal(t, "é", decodeText([]byte{0xFE, 0xFF, 0x00, 0xE9}))
	assert.Equal(t, "", decodeText(nil))
}

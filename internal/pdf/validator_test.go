package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/qr-pdf-preview/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		wantErr     bool
	}{
		{
			name:        "signature with octet-stream",
			data:        []byte{0x25, 0x50, 0x44, 0x46, 0x2D, '1', '.', '4'},
			contentType: "application/octet-stream",
		},
		{
			name:        "signature without content type",
			data:        []byte("%PDF-2.0\n"),
			contentType: "",
		},
		{
			name:        "content type alone",
			data:        []byte("<html>not really</html>"),
			contentType: "application/pdf",
		},
		{
			name:        "content type with parameters",
			data:        []byte("garbage"),
			contentType: "application/x-pdf; charset=binary",
		},
		{
			name:        "neither",
			data:        []byte("<html></html>"),
			contentType: "text/html; charset=utf-8",
			wantErr:     true,
		},
		{
			name:        "signature not at start",
			data:        []byte("  %PDF-1.4"),
			contentType: "text/plain",
			wantErr:     true,
		},
		{
			name:        "short body",
			data:        []byte("%PD"),
			contentType: "application/octet-stream",
			wantErr:     true,
		},
		{
			name:        "uppercase content type is not matched",
			data:        []byte("x"),
			contentType: "APPLICATION/PDF",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.data, tt.contentType)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			e, ok := domain.AsError(err)
			require.True(t, ok)
			assert.Equal(t, domain.ErrorKindFormat, e.Kind)
			assert.Equal(t, "Fetched file isn't a valid PDF", e.Message)
		})
	}
}

func TestVersion(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"1.7", []byte("%PDF-1.7\n%âãÏÓ\n"), "1.7"},
		{"2.0", []byte("%PDF-2.0"), "2.0"},
		{"leading bytes inside window", []byte("\xef\xbb\xbf%PDF-1.5"), "1.5"},
		{"pattern past first 12 bytes", []byte("0123456789ab%PDF-1.4"), "unknown"},
		{"no version digits", []byte("%PDF-x.y"), "unknown"},
		{"empty", nil, "unknown"},
		{"not a pdf", []byte("hello world"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Version(tt.data))
		})
	}
}

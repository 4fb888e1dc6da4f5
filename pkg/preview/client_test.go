package preview

import (
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/qr-pdf-preview/internal/domain"
)

func pdfServer(t *testing.T, contentType string) *httptest.Server {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "coa.pdf"))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/coa.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	})
	r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>sign in</html>"))
	})
	return httptest.NewServer(r)
}

func newTestClient(t *testing.T, backend string) *Client {
	t.Helper()
	c, err := NewClientWithConfig(&Config{Backend: backend})
	require.NoError(t, err)
	return c
}

func TestClient_ExtractURL(t *testing.T) {
	srv := pdfServer(t, "application/octet-stream")
	defer srv.Close()

	for _, backend := range []string{"pdfcpu", "ledongthuc"} {
		t.Run(backend, func(t *testing.T) {
			res, err := newTestClient(t, backend).ExtractURL(context.Background(), srv.URL+"/coa.pdf")
			require.NoError(t, err)

			assert.Equal(t, "1.4", res.Version)
			assert.Equal(t, 2, res.PageCount)
			assert.Contains(t, res.Text, "Certificate of Analysis")
			assert.Contains(t, res.Text, "Batch 7 released")
			assert.Equal(t, 1, strings.Count(res.Text, "\n"))
			assert.Equal(t, res.Chars(), len([]rune(res.Text)))
		})
	}
}

func TestClient_ExtractURLErrors(t *testing.T) {
	srv := pdfServer(t, "application/pdf")
	defer srv.Close()
	c := newTestClient(t, "")

	_, err := c.ExtractURL(context.Background(), srv.URL+"/missing.pdf")
	e, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorKindNetwork, e.Kind)
	assert.Equal(t, "HTTP 404", e.Message)

	_, err = c.ExtractURL(context.Background(), srv.URL+"/login")
	e, ok = domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorKindFormat, e.Kind)
	assert.Equal(t, "Fetched file isn't a valid PDF", e.Message)

	_, err = c.ExtractURL(context.Background(), "ftp://example.com/a.pdf")
	assert.Error(t, err)
}

func TestClient_ExtractBytes(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "coa.pdf"))
	require.NoError(t, err)

	res, err := newTestClient(t, "").ExtractBytes(context.Background(), data, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.PageCount)

	_, err = newTestClient(t, "").ExtractBytes(context.Background(), []byte("GIF89a"), "image/gif")
	assert.Equal(t, ErrorKindFormat, domain.KindOf(err))
}

func TestClient_DecodeImage(t *testing.T) {
	bm, err := qrcode.NewQRCodeWriter().Encode("https://example.com/coa.pdf", gozxing.BarcodeFormat_QR_CODE, 200, 200, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "qr.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, bm))
	require.NoError(t, f.Close())

	c := newTestClient(t, "")
	payload, found, err := c.DecodeImage(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://example.com/coa.pdf", payload)
	assert.True(t, IsURL(payload))

	_, _, err = c.DecodeImage(filepath.Join(t.TempDir(), "nope.png"))
	assert.Error(t, err)
}

func TestNewClientWithConfig_UnknownBackend(t *testing.T) {
	_, err := NewClientWithConfig(&Config{Backend: "poppler"})
	assert.Error(t, err)
}

func TestResult_Preview(t *testing.T) {
	r := &Result{Text: strings.Repeat("é", 5)}
	assert.Equal(t, "éé\n… (truncated)", r.Preview(2))
	assert.Equal(t, 5, r.Chars())
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("HTTPS://EXAMPLE.COM"))
	assert.False(t, IsURL("mailto:a@b.c"))
}

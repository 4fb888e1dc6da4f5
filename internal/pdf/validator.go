package pdf

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/spherical/qr-pdf-preview/internal/domain"
)

// UnknownVersion is reported when the header carries no version.
const UnknownVersion = "unknown"

var (
	pdfSignature = []byte("%PDF-")
	versionRe    = regexp.MustCompile(`%PDF-(\d\.\d)`)
)

// versionWindow is how many leading bytes are searched for the version.
const versionWindow = 12

// HasSignature reports whether data starts with the PDF magic bytes.
func HasSignature(data []byte) bool {
	return bytes.HasPrefix(data, pdfSignature)
}

// Validate accepts data when it carries the PDF signature or the server said it
// is a PDF. This is a sniff, not a format check: a broken file with the right
// header passes and fails later in extraction.
func Validate(data []byte, contentType string) error {
	if HasSignature(data) || strings.Contains(contentType, "pdf") {
		return nil
	}
	return domain.FormatError(domain.MsgInvalidPDF)
}

// Version returns the header version ("1.7") or UnknownVersion.
func Version(data []byte) string {
	head := data
	if len(head) > versionWindow {
		head = head[:versionWindow]
	}
	m := versionRe.FindSubmatch(head)
	if m == nil {
		return UnknownVersion
	}
	return string(m[1])
}

package domain

import (
	"image"
	"regexp"
	"time"
	"unicode/utf8"
)

// Frame is one raster image captured from a camera.
type Frame struct {
	Image      image.Image
	CapturedAt time.Time
}

func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// ScanResult is the outcome of one decode attempt.
type ScanResult struct {
	Text  string
	Found bool
}

// Decoded returns a ScanResult carrying text.
func Decoded(text string) ScanResult {
	return ScanResult{Text: text, Found: true}
}

// NotFound returns an empty ScanResult.
func NotFound() ScanResult {
	return ScanResult{}
}

// Payload is the raw string decoded from a QR symbol.
type Payload string

// PayloadKind tells how a payload is handled downstream
type PayloadKind int

const (
	OpaquePayload PayloadKind = iota
	URLPayload
)

func (k PayloadKind) String() string {
	if k == URLPayload {
		return "url"
	}
	return "opaque"
}

var urlPayloadRe = regexp.MustCompile(`(?i)^https?://`)

// Classify reports whether the payload is a URL the pipeline should fetch.
func Classify(p Payload) PayloadKind {
	if urlPayloadRe.MatchString(string(p)) {
		return URLPayload
	}
	return OpaquePayload
}

// PdfBytes is a fetched document plus what was observed at fetch time.
type PdfBytes struct {
	URL         string
	Data        []byte
	ContentType string
	Version     string
}

// Release drops the buffer once extraction has consumed it.
func (b *PdfBytes) Release() {
	b.Data = nil
}

// ExtractedText is the page-ordered text of a document.
type ExtractedText struct {
	Text      string
	PageCount int
}

// Len returns the number of characters in the text.
func (t ExtractedText) Len() int {
	return utf8.RuneCountInString(t.Text)
}

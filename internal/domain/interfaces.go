package domain

import "context"

// FrameSource exposes successive frames from a started camera
type FrameSource interface {
	// Start acquires the camera. Fails with a camera error when no device is usable.
	Start(ctx context.Context) error

	// CurrentFrame returns the latest frame once the device has enough data.
	// It never blocks; callers retry on the next tick when ok is false.
	CurrentFrame() (frame Frame, ok bool)

	// Stop releases the camera. Safe to call any number of times.
	Stop()
}

// QRDecoder turns one frame into a scan result
type QRDecoder interface {
	Decode(frame Frame) ScanResult
}

// PDFFetcher retrieves and sniffs a PDF over HTTP
type PDFFetcher interface {
	Fetch(ctx context.Context, url string) (*PdfBytes, error)
}

// TextExtractor produces the page-ordered text of a PDF
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, progress PageProgress) (ExtractedText, error)
}

// PageProgress is called after each page is extracted.
type PageProgress func(page, total int)

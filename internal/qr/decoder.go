// Package qr decodes QR symbols from camera frames using gozxing.
package qr

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/spherical/qr-pdf-preview/internal/domain"
)

// Options tunes the decoder.
type Options struct {
	// TryHarder spends more time per frame looking for a symbol.
	TryHarder bool
}

// Decoder implements domain.QRDecoder.
// Inverted symbols (light on dark) are not searched for.
type Decoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

var _ domain.QRDecoder = (*Decoder)(nil)

// NewDecoder creates a QR decoder.
func NewDecoder(opts Options) *Decoder {
	hints := map[gozxing.DecodeHintType]interface{}{}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	return &Decoder{hints: hints}
}

// Decode returns the text of the first QR symbol found in the frame.
// Any failure to locate or read a symbol is reported as NotFound.
func (d *Decoder) Decode(frame domain.Frame) domain.ScanResult {
	text, err := d.decodeImage(frame.Image)
	if err != nil {
		return domain.NotFound()
	}
	return domain.Decoded(text)
}

func (d *Decoder) decodeImage(img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", errors.New("empty frame")
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize frame: %w", err)
	}

	// A fresh reader per call keeps Decode free of shared state.
	result, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		return "", err
	}
	return result.GetText(), nil
}

// DecodeFile decodes a QR symbol from an image file.
func (d *Decoder) DecodeFile(path string) (domain.ScanResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.NotFound(), fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return domain.NotFound(), fmt.Errorf("decode image %s: %w", path, err)
	}
	return d.Decode(domain.Frame{Image: img}), nil
}

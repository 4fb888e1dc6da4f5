package pipeline

import (
	"fmt"
	"strings"

	"github.com/spherical/qr-pdf-preview/internal/domain"
)

const (
	// DefaultPreviewChars is how much extracted text the output area shows.
	DefaultPreviewChars = 20000

	TruncationMarker = "\n… (truncated)"

	LabelStart = "Start Scan"
	LabelAgain = "Scan Again"
)

// View is what a display surface shows for a State.
type View struct {
	Status        string
	Link          string // URL to render as a hyperlink after Status, if any
	Output        string
	ButtonLabel   string
	ButtonEnabled bool
}

// Render projects s onto a View. previewChars <= 0 uses DefaultPreviewChars.
func Render(s State, previewChars int) View {
	v := View{
		ButtonLabel:   LabelAgain,
		ButtonEnabled: !s.Phase.Busy(),
	}

	switch s.Phase {
	case Idle:
		v.ButtonLabel = LabelStart
	case CameraActive:
		v.ButtonLabel = LabelStart
		v.Status = "Opening camera…"
	case AwaitingDecode:
		v.ButtonLabel = LabelStart
		v.Status = "Point camera at QR code…"
	case Fetching:
		v.Status = "⏬ Fetching PDF:"
		v.Link = s.URL
	case Parsing:
		v.Status = "📖 Parsing PDF…"
		v.Link = s.URL
	case Success:
		if s.Opaque() {
			v.Status = "QR content (not URL): " + s.Text
			break
		}
		v.Status = fmt.Sprintf("✅ Extracted %d chars (PDF %s)", s.Chars(), s.Version)
		v.Link = s.URL
		v.Output = Preview(s.Text, previewChars)
	case Failed:
		v.Status = failureStatus(s)
		v.Link = s.URL
		if s.URL == "" {
			// the camera never produced a payload
			v.ButtonLabel = LabelStart
		}
	}
	return v
}

func failureStatus(s State) string {
	if s.Err == nil {
		return "❌ Unknown error"
	}
	if s.Err.Kind == domain.ErrorKindCamera {
		return "❌ Camera error: " + s.Err.Message
	}
	return "❌ " + s.Err.Message
}

// Preview returns the first limit characters of text, followed by
// TruncationMarker when text is longer. limit <= 0 uses DefaultPreviewChars.
func Preview(text string, limit int) string {
	if limit <= 0 {
		limit = DefaultPreviewChars
	}

	n := 0
	for i := range text {
		if n == limit {
			var sb strings.Builder
			sb.Grow(i + len(TruncationMarker))
			sb.WriteString(text[:i])
			sb.WriteString(TruncationMarker)
			return sb.String()
		}
		n++
	}
	return text
}

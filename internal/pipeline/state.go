// Package pipeline sequences one scan attempt: camera, QR decode, URL
// classification, PDF fetch and text extraction.
package pipeline

import (
	"time"

	"github.com/spherical/qr-pdf-preview/internal/domain"
)

// Phase is where an attempt currently is.
type Phase int

const (
	Idle Phase = iota
	CameraActive
	AwaitingDecode
	Fetching
	Parsing
	Success
	Failed
)

var phaseNames = [...]string{
	Idle:           "idle",
	CameraActive:   "camera_active",
	AwaitingDecode: "awaiting_decode",
	Fetching:       "fetching",
	Parsing:        "parsing",
	Success:        "success",
	Failed:         "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Busy reports whether an attempt is in flight.
func (p Phase) Busy() bool {
	switch p {
	case CameraActive, AwaitingDecode, Fetching, Parsing:
		return true
	}
	return false
}

// transitions lists the phases reachable from each phase. Any busy phase may
// return to Idle on cancellation.
var transitions = map[Phase][]Phase{
	Idle:           {CameraActive},
	CameraActive:   {AwaitingDecode, Failed, Idle},
	AwaitingDecode: {Fetching, Success, Failed, Idle},
	Fetching:       {Parsing, Failed, Idle},
	Parsing:        {Success, Failed, Idle},
	Success:        {Idle},
	Failed:         {Idle},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// State is a snapshot of one attempt.
type State struct {
	Phase     Phase
	ScanID    string
	Payload   domain.Payload
	URL       string // set once the payload is classified as a URL
	Text      string // full extracted text, or the raw payload when opaque
	Version   string
	PageCount int
	Err       *domain.Error
	UpdatedAt time.Time
}

// Opaque reports a successful attempt whose payload was not a URL.
func (s State) Opaque() bool {
	return s.Phase == Success && s.URL == ""
}

// Chars is the character count of the extracted text.
func (s State) Chars() int {
	return domain.ExtractedText{Text: s.Text}.Len()
}

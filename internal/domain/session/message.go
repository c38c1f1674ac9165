package session

import (
	"bytes"
	"math"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/webterm/internal/terminal"
)

// ControlTypeResize is the type field of a resize control message.
const ControlTypeResize = "resize"

// Kind classifies an inbound frame.
type Kind int

const (
	// KindRawInput is literal shell input.
	KindRawInput Kind = iota
	// KindResize is a well-formed resize request.
	KindResize
	// KindMalformedControl is a resize request with unusable dimensions.
	KindMalformedControl
)

func (k Kind) String() string {
	switch k {
	case KindRawInput:
		return "input"
	case KindResize:
		return "resize"
	case KindMalformedControl:
		return "malformed_control"
	default:
		return "unknown"
	}
}

// Message is the tagged result of Classify. Cols and Rows are set for
// KindResize; Payload always holds the original frame.
type Message struct {
	Kind    Kind
	Cols    int
	Rows    int
	Payload []byte
}

// Classify decides whether payload is a resize control message or raw input.
func Classify(payload []byte) Message {
	raw := Message{Kind: KindRawInput, Payload: payload}

	// only a JSON object can be a control message; skip parsing keystrokes
	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}

	var obj map[string]interface{}
	if err := sonic.Unmarshal(payload, &obj); err != nil || obj == nil {
		return raw
	}

	if typ, ok := obj["type"].(string); !ok || typ != ControlTypeResize {
		return raw
	}

	cols, okCols := dimension(obj["cols"])
	rows, okRows := dimension(obj["rows"])
	if !okCols || !okRows || !terminal.ValidDimensions(cols, rows) {
		return Message{Kind: KindMalformedControl, Payload: payload}
	}

	return Message{Kind: KindResize, Cols: cols, Rows: rows, Payload: payload}
}

// dimension accepts JSON numbers with no fractional part.
func dimension(v interface{}) (int, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < 0 || f > terminal.MaxDimension {
		return 0, false
	}
	return int(f), true
}

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    Kind
		cols    int
		rows    int
	}{
		{"keystrokes", "ls -la\n", KindRawInput, 0, 0},
		{"escape sequence", "\x1b[A", KindRawInput, 0, 0},
		{"empty", "", KindRawInput, 0, 0},
		{"broken json", `{"type":"resize"`, KindRawInput, 0, 0},
		{"json array", `[{"type":"resize"}]`, KindRawInput, 0, 0},
		{"json string", `"resize"`, KindRawInput, 0, 0},
		{"json null", `null`, KindRawInput, 0, 0},
		{"no type", `{"cols":80,"rows":24}`, KindRawInput, 0, 0},
		{"other type", `{"type":"input","data":"x"}`, KindRawInput, 0, 0},
		{"type not string", `{"type":1,"cols":80,"rows":24}`, KindRawInput, 0, 0},
		{"resize uppercase", `{"type":"RESIZE","cols":80,"rows":24}`, KindRawInput, 0, 0},

		{"resize", `{"type":"resize","cols":100,"rows":40}`, KindResize, 100, 40},
		{"resize padded", " \n{\"type\":\"resize\",\"cols\":1,\"rows\":1}\n", KindResize, 1, 1},
		{"resize extra fields", `{"type":"resize","cols":132,"rows":50,"x":true}`, KindResize, 132, 50},
		{"resize exponent", `{"type":"resize","cols":1e2,"rows":4e1}`, KindResize, 100, 40},
		{"resize max", `{"type":"resize","cols":65535,"rows":65535}`, KindResize, 65535, 65535},

		{"zero cols", `{"type":"resize","cols":0,"rows":40}`, KindMalformedControl, 0, 0},
		{"zero rows", `{"type":"resize","cols":100,"rows":0}`, KindMalformedControl, 0, 0},
		{"negative", `{"type":"resize","cols":-5,"rows":40}`, KindMalformedControl, 0, 0},
		{"fractional", `{"type":"resize","cols":80.5,"rows":24}`, KindMalformedControl, 0, 0},
		{"string dims", `{"type":"resize","cols":"80","rows":"24"}`, KindMalformedControl, 0, 0},
		{"missing rows", `{"type":"resize","cols":80}`, KindMalformedControl, 0, 0},
		{"null dims", `{"type":"resize","cols":null,"rows":null}`, KindMalformedControl, 0, 0},
		{"too large", `{"type":"resize","cols":65536,"rows":24}`, KindMalformedControl, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Classify([]byte(tt.payload))
			assert.Equal(t, tt.kind, msg.Kind)
			assert.Equal(t, tt.cols, msg.Cols)
			assert.Equal(t, tt.rows, msg.Rows)
			assert.Equal(t, tt.payload, string(msg.Payload))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "input", KindRawInput.String())
	assert.Equal(t, "resize", KindResize.String())
	assert.Equal(t, "malformed_control", KindMalformedControl.String())
	assert.Equal(t, "unknown", Kind(9).String())
}

package classify

import (
	"encoding/json"
	"io"
)

// Sink consumes classified events.
type Sink interface {
	Emit(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) error {
	return f(ev)
}

// JSONSink writes one JSON object per event.
type JSONSink struct {
	enc *json.Encoder
}

// NewJSONSink returns a sink serializing events to w. Each event is followed
// by the newline the encoder writes; no other delimiter is added.
func NewJSONSink(w io.Writer) *JSONSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONSink{enc: enc}
}

// Emit encodes ev.
func (s *JSONSink) Emit(ev Event) error {
	return s.enc.Encode(ev)
}

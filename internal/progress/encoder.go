package progress

import (
	"fmt"
	"io"

	"github.com/gin-contrib/sse"
)

type flusher interface {
	Flush()
}

// Encoder writes events as `event:<name>` / `data:<json>` frames and flushes
// after each one when the writer supports it.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes one frame.
func (e *Encoder) Encode(ev Event) error {
	if err := sse.Encode(e.w, sse.Event{Event: string(ev.Name), Data: ev.Payload}); err != nil {
		return fmt.Errorf("encode %s frame: %w", ev.Name, err)
	}
	if f, ok := e.w.(flusher); ok {
		f.Flush()
	}
	return nil
}

// EncodeRaw writes a frame with an arbitrary event name and payload. The
// scraper wire protocol reuses the frame format with its own event names.
func (e *Encoder) EncodeRaw(name string, payload any) error {
	return e.Encode(Event{Name: EventName(name), Payload: payload})
}

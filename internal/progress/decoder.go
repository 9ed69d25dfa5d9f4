package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	defaultChunkSize    = 4 << 10
	defaultMaxFrameSize = 1 << 20
)

// ErrFrameTooLarge is returned when a single line outgrows the frame limit.
var ErrFrameTooLarge = errors.New("progress frame exceeds maximum size")

// Frame is one decoded data line together with the event name it belongs to.
type Frame struct {
	Event string
	Data  []byte
}

// Decode unmarshals the JSON payload of the frame.
func (f Frame) Decode(v any) error {
	return json.Unmarshal(f.Data, v)
}

// Decoder reads frames incrementally from a growing buffer. It only reads
// from the underlying reader when the caller asks for a frame and none is
// buffered, so a slow consumer slows the producer down.
//
// Every `data:` line is a complete frame tagged with the most recent
// `event:` name seen on the stream. Blank lines, comments (`:`) and other
// fields are ignored.
type Decoder struct {
	r            io.Reader
	buf          []byte
	start        int
	chunk        []byte
	maxFrameSize int
	lastEvent    string
	err          error
}

// DecoderOption tunes a Decoder.
type DecoderOption func(*Decoder)

// WithChunkSize sets how many bytes are requested per read.
func WithChunkSize(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.chunk = make([]byte, n)
		}
	}
}

// WithMaxFrameSize caps the length of a single line.
func WithMaxFrameSize(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.maxFrameSize = n
		}
	}
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		r:            r,
		chunk:        make([]byte, defaultChunkSize),
		maxFrameSize: defaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// LastEvent is the most recent event name seen.
func (d *Decoder) LastEvent() string {
	return d.lastEvent
}

// Buffered is the number of bytes read but not yet turned into frames.
func (d *Decoder) Buffered() int {
	return len(d.buf) - d.start
}

// Next returns the next frame, or io.EOF once the stream is exhausted.
func (d *Decoder) Next() (Frame, error) {
	for {
		if frame, ok := d.nextBufferedFrame(); ok {
			return frame, nil
		}
		if d.err != nil {
			if frame, ok := d.flushRemainder(); ok {
				return frame, nil
			}
			if errors.Is(d.err, io.EOF) {
				return Frame{}, io.EOF
			}
			return Frame{}, fmt.Errorf("read progress stream: %w", d.err)
		}
		if d.Buffered() > d.maxFrameSize {
			d.start = len(d.buf)
			d.err = ErrFrameTooLarge
			continue
		}
		d.fill()
	}
}

// nextBufferedFrame consumes complete lines until one yields a frame.
func (d *Decoder) nextBufferedFrame() (Frame, bool) {
	for {
		pending := d.buf[d.start:]
		idx := bytes.IndexByte(pending, '\n')
		if idx < 0 {
			return Frame{}, false
		}
		line := pending[:idx]
		d.start += idx + 1
		if frame, ok := d.parseLine(line); ok {
			return frame, true
		}
	}
}

func (d *Decoder) parseLine(line []byte) (Frame, bool) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 || line[0] == ':' {
		return Frame{}, false
	}
	field, value, found := bytes.Cut(line, []byte(":"))
	if !found {
		return Frame{}, false
	}
	value = bytes.TrimPrefix(value, []byte(" "))
	switch string(field) {
	case "event":
		d.lastEvent = string(value)
	case "data":
		data := make([]byte, len(value))
		copy(data, value)
		return Frame{Event: d.lastEvent, Data: data}, true
	}
	return Frame{}, false
}

// fill reads one chunk, compacting the retained remainder first.
func (d *Decoder) fill() {
	if d.start > 0 {
		n := copy(d.buf, d.buf[d.start:])
		d.buf = d.buf[:n]
		d.start = 0
	}
	n, err := d.r.Read(d.chunk)
	if n > 0 {
		d.buf = append(d.buf, d.chunk[:n]...)
	}
	if err != nil {
		d.err = err
	}
}

// flushRemainder parses a final unterminated line once the reader is done.
func (d *Decoder) flushRemainder() (Frame, bool) {
	if d.Buffered() == 0 {
		return Frame{}, false
	}
	line := d.buf[d.start:]
	d.start = len(d.buf)
	return d.parseLine(line)
}

package frame

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/danmuck/indictl/internal/protocol"
	"github.com/rs/zerolog/log"
)

var (
	// ErrMalformedElement is recoverable: the element is dropped and scanning resumes.
	ErrMalformedElement = protocol.ErrMalformedElement
	// ErrElementTooLarge is unrecoverable for the stream; the session must reconnect.
	ErrElementTooLarge = errors.New("frame: element too large")
)

// DefaultMaxElementBytes caps one buffered element. Real BLOB frames run to
// tens of megabytes.
const DefaultMaxElementBytes = 64 * 1024 * 1024

// Limits constrains framer memory use.
type Limits struct {
	MaxElementBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxElementBytes: DefaultMaxElementBytes,
	}
}

// Framer rebuilds complete top-level elements from an arbitrarily chunked
// byte stream. It is not safe for concurrent use.
type Framer struct {
	limits    Limits
	starts    [][]byte
	buf       []byte
	tag       string
	closeSeq  []byte
	headerEnd int
	scanFrom  int
	discarded uint64
}

// NewFramer returns a framer recognizing the protocol's inbound top-level tags.
func NewFramer(limits Limits) *Framer {
	return NewFramerForTags(limits, protocol.InboundTags())
}

// NewFramerForTags returns a framer recognizing only the given top-level tags.
func NewFramerForTags(limits Limits, tags []string) *Framer {
	if limits.MaxElementBytes <= 0 {
		limits = DefaultLimits()
	}
	starts := make([][]byte, 0, len(tags))
	for _, t := range tags {
		starts = append(starts, []byte("<"+t))
	}
	return &Framer{
		limits:    limits,
		starts:    starts,
		headerEnd: -1,
	}
}

// Write appends one chunk read from the stream.
func (f *Framer) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	return len(p), nil
}

// Buffered returns the number of bytes held for the next element.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Discarded returns the total count of noise bytes skipped while scanning.
func (f *Framer) Discarded() uint64 {
	return f.discarded
}

// Reset drops all buffered state.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
	f.resetElement()
}

// Next returns the next complete element. ok=false with a nil error means
// more data is needed. ErrMalformedElement errors are recoverable and the
// caller should keep calling Next; ErrElementTooLarge is not.
func (f *Framer) Next() (protocol.Element, bool, error) {
	if f.tag == "" && !f.findStart() {
		return protocol.Element{}, false, nil
	}

	end, ok := f.findEnd()
	if !ok {
		if len(f.buf) > f.limits.MaxElementBytes {
			tag := f.tag
			size := len(f.buf)
			f.Reset()
			return protocol.Element{}, false, fmt.Errorf("%w: <%s> exceeds %d bytes (buffered=%d)", ErrElementTooLarge, tag, f.limits.MaxElementBytes, size)
		}
		return protocol.Element{}, false, nil
	}

	raw := make([]byte, end)
	copy(raw, f.buf[:end])
	f.consume(end)
	tag := f.tag
	f.resetElement()

	el, err := protocol.Parse(raw)
	if err != nil {
		log.Debug().Str("tag", tag).Int("bytes", len(raw)).Err(err).Msg("frame.Framer.Next dropped malformed element")
		if !errors.Is(err, protocol.ErrMalformedElement) {
			err = fmt.Errorf("%w: %v", ErrMalformedElement, err)
		}
		return protocol.Element{}, false, err
	}
	return el, true, nil
}

// findStart locates a recognized start tag, discarding noise before it.
func (f *Framer) findStart() bool {
	trimmed := bytes.TrimLeft(f.buf, " \t\r\n")
	if len(trimmed) != len(f.buf) {
		f.consume(len(f.buf) - len(trimmed))
	}

	offset := 0
	for offset < len(f.buf) {
		i := bytes.IndexByte(f.buf[offset:], '<')
		if i < 0 {
			break
		}
		i += offset
		match, partial := f.matchStart(f.buf[i:])
		if match != "" {
			if i > 0 {
				f.skip(i)
			}
			f.tag = match
			f.closeSeq = []byte("</" + match + ">")
			f.headerEnd = -1
			f.scanFrom = len(match) + 1
			return true
		}
		if partial {
			if i > 0 {
				f.skip(i)
			}
			return false
		}
		offset = i + 1
	}
	if len(f.buf) > 0 {
		f.skip(len(f.buf))
	}
	return false
}

// matchStart reports a full match of a start tag at the head of b, or that b
// is too short to decide yet.
func (f *Framer) matchStart(b []byte) (string, bool) {
	partial := false
	for _, start := range f.starts {
		if len(b) > len(start) {
			if bytes.HasPrefix(b, start) && isNameEnd(b[len(start)]) {
				return string(start[1:]), false
			}
			continue
		}
		if bytes.HasPrefix(start, b) {
			partial = true
		}
	}
	return "", partial
}

// findEnd returns the length of the complete element at the head of buf.
func (f *Framer) findEnd() (int, bool) {
	if f.headerEnd < 0 {
		end, ok := startTagEnd(f.buf, len(f.tag)+1)
		if !ok {
			return 0, false
		}
		f.headerEnd = end
		if f.buf[end-1] == '/' {
			return end + 1, true
		}
		f.scanFrom = end + 1
	}

	from := f.scanFrom
	if from > len(f.buf) {
		from = len(f.buf)
	}
	k := bytes.Index(f.buf[from:], f.closeSeq)
	if k < 0 {
		// closing sequence may straddle the next chunk boundary
		next := len(f.buf) - len(f.closeSeq) + 1
		if next > f.scanFrom {
			f.scanFrom = next
		}
		return 0, false
	}
	return from + k + len(f.closeSeq), true
}

// startTagEnd finds the '>' closing the start tag, honoring quoted attributes.
func startTagEnd(b []byte, from int) (int, bool) {
	var quote byte
	for i := from; i < len(b); i++ {
		c := b[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i, true
		}
	}
	return 0, false
}

func (f *Framer) skip(n int) {
	f.discarded += uint64(n)
	log.Trace().Int("bytes", n).Msg("frame.Framer skipped unrecognized bytes")
	f.consume(n)
}

func (f *Framer) consume(n int) {
	remaining := copy(f.buf, f.buf[n:])
	f.buf = f.buf[:remaining]
}

func (f *Framer) resetElement() {
	f.tag = ""
	f.closeSeq = nil
	f.headerEnd = -1
	f.scanFrom = 0
}

func isNameEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '/', '>':
		return true
	default:
		return false
	}
}

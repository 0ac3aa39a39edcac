package frame

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/indictl/internal/protocol"
	"github.com/danmuck/indictl/internal/testutil/testlog"
)

const defNumber = `<defNumberVector device="Scope" name="EqCoord" label="Eq" group="Main" state="Idle" perm="rw" timeout="60">
  <defNumber name="RA" label="RA" format="%010.6m" min="0" max="24" step="0">12:30:00</defNumber>
  <defNumber name="DEC" label="Dec" format="%010.6m" min="-90" max="90" step="0">45:00:00</defNumber>
</defNumberVector>`

func drain(t *testing.T, f *Framer) []protocol.Element {
	t.Helper()
	var out []protocol.Element
	for {
		el, ok, err := f.Next()
		if err != nil {
			if errors.Is(err, ErrMalformedElement) {
				continue
			}
			t.Fatalf("next: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, el)
	}
}

func TestFramerWholeElement(t *testing.T) {
	testlog.Start(t)
	f := NewFramer(DefaultLimits())
	_, _ = f.Write([]byte(defNumber))
	got := drain(t, f)
	if len(got) != 1 {
		t.Fatalf("expected 1 element, got %d", len(got))
	}
	if got[0].Tag != protocol.TagDefNumberVector || len(got[0].Children) != 2 {
		t.Fatalf("unexpected element: %+v", got[0])
	}
	if f.Buffered() != 0 {
		t.Fatalf("expected empty buffer, got %d", f.Buffered())
	}
}

func TestFramerOneByteChunksMatchWhole(t *testing.T) {
	testlog.Start(t)
	whole := NewFramer(DefaultLimits())
	_, _ = whole.Write([]byte(defNumber))
	want := drain(t, whole)

	f := NewFramer(DefaultLimits())
	var got []protocol.Element
	for i := 0; i < len(defNumber); i++ {
		_, _ = f.Write([]byte{defNumber[i]})
		got = append(got, drain(t, f)...)
	}
	if len(got) != 1 || len(want) != 1 {
		t.Fatalf("got=%d want=%d elements", len(got), len(want))
	}
	a, _ := protocol.Marshal(got[0])
	b, _ := protocol.Marshal(want[0])
	if string(a) != string(b) {
		t.Fatalf("chunked element differs:\n%s\nvs\n%s", a, b)
	}
}

func TestFramerSkipsNoisePrefix(t *testing.T) {
	testlog.Start(t)
	f := NewFramer(DefaultLimits())
	noise := "\x00\x01garbage <foo>bar</foo> <messag"
	_, _ = f.Write([]byte(noise + "\n" + `<message device="Scope" message="hello"/>`))
	got := drain(t, f)
	if len(got) != 1 {
		t.Fatalf("expected 1 element, got %d", len(got))
	}
	if got[0].Tag != protocol.TagMessage || got[0].AttrOr(protocol.AttrMessage, "") != "hello" {
		t.Fatalf("unexpected element: %+v", got[0])
	}
	if f.Discarded() == 0 {
		t.Fatalf("expected discarded noise bytes")
	}
	if f.Buffered() != 0 {
		t.Fatalf("expected no residual bytes, got %d", f.Buffered())
	}
}

func TestFramerUnrecognizedChunkIsDropped(t *testing.T) {
	testlog.Start(t)
	f := NewFramer(DefaultLimits())
	_, _ = f.Write([]byte("no tags in here at all"))
	if got := drain(t, f); len(got) != 0 {
		t.Fatalf("expected nothing, got %d", len(got))
	}
	if f.Buffered() != 0 {
		t.Fatalf("expected buffer dropped, got %d", f.Buffered())
	}
}

func TestFramerMultipleElementsInOneChunk(t *testing.T) {
	testlog.Start(t)
	f := NewFramer(DefaultLimits())
	in := `<delProperty device="A"/>` + defNumber + `<message device="A" message="x"></message>`
	_, _ = f.Write([]byte(in))
	got := drain(t, f)
	if len(got) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(got))
	}
	tags := []string{got[0].Tag, got[1].Tag, got[2].Tag}
	want := []string{protocol.TagDelProperty, protocol.TagDefNumberVector, protocol.TagMessage}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("tag[%d]=%q want %q", i, tags[i], want[i])
		}
	}
}

func TestFramerClosingTagSplitAcrossChunks(t *testing.T) {
	testlog.Start(t)
	f := NewFramer(DefaultLimits())
	in := `<setSwitchVector device="A" name="B"><oneSwitch name="C">On</oneSwitch></setSwitchVector>`
	split := strings.LastIndex(in, "</setSw") + 4
	_, _ = f.Write([]byte(in[:split]))
	if got := drain(t, f); len(got) != 0 {
		t.Fatalf("element completed early")
	}
	_, _ = f.Write([]byte(in[split:]))
	if got := drain(t, f); len(got) != 1 {
		t.Fatalf("expected element after closing tag completed, got %d", len(got))
	}
}

func TestFramerQuotedGreaterThanInStartTag(t *testing.T) {
	testlog.Start(t)
	f := NewFramer(DefaultLimits())
	_, _ = f.Write([]byte(`<message device="A" message="a > b /"/>`))
	got := drain(t, f)
	if len(got) != 1 || got[0].AttrOr(protocol.AttrMessage, "") != "a > b /" {
		t.Fatalf("unexpected: %+v", got)
	}
}

func TestFramerMalformedElementRecovers(t *testing.T) {
	testlog.Start(t)
	f := NewFramer(DefaultLimits())
	_, _ = f.Write([]byte(`<message device="A"><bad</message>` + `<message device="B"/>`))
	_, ok, err := f.Next()
	if ok || !errors.Is(err, ErrMalformedElement) {
		t.Fatalf("expected malformed element, ok=%v err=%v", ok, err)
	}
	el, ok, err := f.Next()
	if err != nil || !ok || el.AttrOr(protocol.AttrDevice, "") != "B" {
		t.Fatalf("expected recovery, ok=%v err=%v el=%+v", ok, err, el)
	}
}

func TestFramerElementTooLarge(t *testing.T) {
	testlog.Start(t)
	f := NewFramer(Limits{MaxElementBytes: 64})
	_, _ = f.Write([]byte(`<setTextVector device="A" name="B"><oneText name="C">` + strings.Repeat("x", 128)))
	_, _, err := f.Next()
	if !errors.Is(err, ErrElementTooLarge) {
		t.Fatalf("expected ErrElementTooLarge, got %v", err)
	}
	if f.Buffered() != 0 {
		t.Fatalf("expected reset buffer")
	}
}

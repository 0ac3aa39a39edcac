package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/indictl/internal/testutil/testlog"
)

func TestRoundTripEncodeParse(t *testing.T) {
	testlog.Start(t)
	el := NewElement(TagNewNumberVector)
	el.SetAttr(AttrDevice, "Scope")
	el.SetAttr(AttrName, "EqCoord")
	ra := NewElement(TagOneNumber)
	ra.SetAttr(AttrName, "RA")
	ra.Text = "13:00:00"
	dec := NewElement(TagOneNumber)
	dec.SetAttr(AttrName, "DEC")
	dec.Text = "45:00:00"
	el.Append(ra, dec)

	b, err := Marshal(el)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Parse(b)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Tag != TagNewNumberVector || got.AttrOr(AttrDevice, "") != "Scope" {
		t.Fatalf("unexpected root: %+v", got)
	}
	if len(got.Children) != 2 {
		t.Fatalf("unexpected children: %d", len(got.Children))
	}
	if got.Children[0].AttrOr(AttrName, "") != "RA" || strings.TrimSpace(got.Children[0].Text) != "13:00:00" {
		t.Fatalf("unexpected first child: %+v", got.Children[0])
	}
}

func TestMarshalSelfClosingAndEscaping(t *testing.T) {
	testlog.Start(t)
	el := NewElement(TagGetProperties)
	el.SetAttr(AttrVersion, Version)
	el.SetAttr(AttrDevice, `a<b>"c"&`)
	b, err := Marshal(el)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `<getProperties version="1.7" device="a&lt;b&gt;&quot;c&quot;&amp;"/>` + "\n"
	if string(b) != want {
		t.Fatalf("got=%q want=%q", string(b), want)
	}
	got, err := Parse(b)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v, _ := got.Attr(AttrDevice); v != `a<b>"c"&` {
		t.Fatalf("unescaped attr mismatch: %q", v)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	testlog.Start(t)
	if _, err := Parse([]byte(`<message device="x">`)); !errors.Is(err, ErrMalformedElement) {
		t.Fatalf("expected ErrMalformedElement, got %v", err)
	}
	if _, err := Parse([]byte(`<a></b>`)); !errors.Is(err, ErrMalformedElement) {
		t.Fatalf("expected ErrMalformedElement for mismatched end, got %v", err)
	}
	if _, err := Parse([]byte("  \n")); !errors.Is(err, ErrEmptyElement) {
		t.Fatalf("expected ErrEmptyElement, got %v", err)
	}
	if _, err := Parse([]byte(`<a/><b/>`)); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("expected ErrTrailingData, got %v", err)
	}
}

func TestMarshalRequiresTag(t *testing.T) {
	testlog.Start(t)
	if _, err := Marshal(Element{}); !errors.Is(err, ErrMissingTag) {
		t.Fatalf("expected ErrMissingTag, got %v", err)
	}
}

func TestSetAttrReplacesInPlace(t *testing.T) {
	testlog.Start(t)
	el := NewElement(TagEnableBLOB)
	el.SetAttr(AttrDevice, "a")
	el.SetAttr(AttrName, "b")
	el.SetAttr(AttrDevice, "c")
	el.SetAttrIf(AttrState, "")
	if len(el.Attrs) != 2 || el.Attrs[0].Value != "c" {
		t.Fatalf("unexpected attrs: %+v", el.Attrs)
	}
	if !IsInboundTag(TagSetBLOBVector) || IsInboundTag(TagNewBLOBVector) {
		t.Fatalf("inbound tag table mismatch")
	}
}

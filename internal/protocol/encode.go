package protocol

import (
	"bytes"
	"io"
	"strings"
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Encode writes el to w in wire form followed by a newline.
func Encode(w io.Writer, el Element) error {
	b, err := Marshal(el)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Marshal renders el in wire form followed by a newline.
func Marshal(el Element) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeElement(&buf, el, 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeElement(buf *bytes.Buffer, el Element, depth int) error {
	if el.Tag == "" {
		return ErrMissingTag
	}
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteByte('<')
	buf.WriteString(el.Tag)
	for _, a := range el.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		buf.WriteString(escaper.Replace(a.Value))
		buf.WriteByte('"')
	}
	if len(el.Children) == 0 && el.Text == "" {
		buf.WriteString("/>")
		return nil
	}
	buf.WriteByte('>')

	if len(el.Children) == 0 {
		buf.WriteString(escaper.Replace(el.Text))
	} else {
		buf.WriteByte('\n')
		for _, child := range el.Children {
			if err := writeElement(buf, child, depth+1); err != nil {
				return err
			}
			buf.WriteByte('\n')
		}
		if el.Text != "" {
			buf.WriteString(escaper.Replace(el.Text))
		}
		buf.WriteString(indent)
	}
	buf.WriteString("</")
	buf.WriteString(el.Tag)
	buf.WriteByte('>')
	return nil
}

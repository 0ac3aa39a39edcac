package protocol

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// Parse decodes exactly one element from data. Leading/trailing whitespace,
// comments and processing instructions are tolerated; anything else is not.
func Parse(data []byte) (Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var root Element
	found := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Element{}, fmt.Errorf("%w: %v", ErrMalformedElement, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if found {
				return Element{}, ErrTrailingData
			}
			el, err := readElement(dec, t)
			if err != nil {
				return Element{}, err
			}
			root = el
			found = true
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			if found {
				return Element{}, ErrTrailingData
			}
			return Element{}, fmt.Errorf("%w: text outside element", ErrMalformedElement)
		}
	}
	if !found {
		return Element{}, ErrEmptyElement
	}
	return root, nil
}

func readElement(dec *xml.Decoder, start xml.StartElement) (Element, error) {
	el := Element{Tag: start.Name.Local}
	if len(start.Attr) > 0 {
		el.Attrs = make([]Attr, 0, len(start.Attr))
	}
	for _, a := range start.Attr {
		el.Attrs = append(el.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
	}

	var text bytes.Buffer
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Element{}, fmt.Errorf("%w: %s: %v", ErrMalformedElement, el.Tag, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := readElement(dec, t)
			if err != nil {
				return Element{}, err
			}
			el.Children = append(el.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			el.Text = text.String()
			return el, nil
		}
	}
}

package protocol

// Version is the protocol version announced in getProperties.
const Version = "1.7"

// Attr is one element attribute, kept in wire order.
type Attr struct {
	Name  string
	Value string
}

// Element is one parsed or to-be-encoded wire element.
type Element struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []Element
}

// NewElement returns an element with the given tag and no content.
func NewElement(tag string) Element {
	return Element{Tag: tag}
}

// Attr returns the named attribute value and whether it was present.
func (e Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or def when absent.
func (e Element) AttrOr(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// SetAttr sets or replaces one attribute, preserving the original position.
func (e *Element) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// SetAttrIf sets the attribute only when value is non-empty.
func (e *Element) SetAttrIf(name, value string) {
	if value == "" {
		return
	}
	e.SetAttr(name, value)
}

// Append adds children in order.
func (e *Element) Append(children ...Element) {
	e.Children = append(e.Children, children...)
}

// ChildrenByTag returns direct children with the given tag.
func (e Element) ChildrenByTag(tag string) []Element {
	out := make([]Element, 0, len(e.Children))
	for _, c := range e.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

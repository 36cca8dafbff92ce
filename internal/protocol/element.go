package protocol

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedMarkup reports an XML frame the decoder could not parse.
// The frame is dropped and logged; it is never fatal to the connection.
var ErrMalformedMarkup = errors.New("malformed markup frame")

// Element is one node of a parsed markup command. The legacy control
// messages are tiny, so a full element tree is cheaper than a schema per
// message shape.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Children []*Element
	Text     string
}

// Get returns the named attribute, or "" when absent.
func (e *Element) Get(attr string) string {
	return e.Attrs[attr]
}

// Find returns the first descendant with the given tag, depth first, or nil.
func (e *Element) Find(tag string) *Element {
	for _, c := range e.Children {
		if c.Tag == tag {
			return c
		}
		if found := c.Find(tag); found != nil {
			return found
		}
	}
	return nil
}

// ParseMarkup decodes a '<'-prefixed frame into its element tree.
func ParseMarkup(frame string) (*Element, error) {
	if len(frame) > maxFrameSize {
		return nil, ErrFrameTooLarge
	}

	dec := xml.NewDecoder(strings.NewReader(frame))

	root, err := parseElement(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMarkup, err)
	}
	return root, nil
}

func parseElement(dec *xml.Decoder) (*Element, error) {
	var root *Element
	var stack []*Element

	for {
		tok, err := dec.Token()
		if err != nil {
			if root != nil && len(stack) == 0 {
				return root, nil
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Tag: t.Name.Local, Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				el.Attrs[a.Name.Local] = a.Value
			}

			if len(stack) == 0 {
				if root != nil {
					// Trailing garbage after the root element.
					return nil, errors.New("multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("unbalanced end element")
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += strings.TrimSpace(string(t))
			}
		}
	}
}

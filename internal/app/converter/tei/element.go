package tei

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// element is a minimal in-memory XML node. text holds the character data
// that precedes the first child element; comments and processing
// instructions do not interrupt it.
type element struct {
	name     xml.Name
	attrs    []xml.Attr
	text     string
	children []*element
}

// readElement consumes tokens up to and including the EndElement matching
// start and returns the subtree.
func readElement(dec *xml.Decoder, start xml.StartElement) (*element, error) {
	el := &element{name: start.Name, attrs: start.Attr}

	var text strings.Builder
	textDone := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			textDone = true
			child, err := readElement(dec, t)
			if err != nil {
				return nil, err
			}
			el.children = append(el.children, child)
		case xml.CharData:
			if !textDone {
				text.Write(t)
			}
		case xml.EndElement:
			el.text = text.String()
			return el, nil
		}
	}
}

// child returns the first direct child with the given TEI local name.
func (e *element) child(local string) *element {
	for _, c := range e.children {
		if isTEI(c.name, local) {
			return c
		}
	}
	return nil
}

// iter returns e and all its descendants with the given TEI local name,
// in document (pre-order) order.
func (e *element) iter(local string) []*element {
	var out []*element
	var walk func(n *element)
	walk = func(n *element) {
		if isTEI(n.name, local) {
			out = append(out, n)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(e)
	return out
}

// attr returns the value of an attribute without namespace, or "".
func (e *element) attr(local string) string {
	for _, a := range e.attrs {
		if a.Name.Space == "" && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/boddenberg/comptes-soap-go/internal/domain"
)

// ErrMalformedEnvelope is returned when a response is not a SOAP envelope.
var ErrMalformedEnvelope = errors.New("soap: malformed envelope")

// Element is a decoded response node. Names are local (prefix stripped).
type Element struct {
	Name     string
	Text     string
	Nil      bool
	children []*Element
}

// Children returns the child elements in document order.
func (e *Element) Children() []*Element { return e.children }

// PropertyCount mirrors the number of direct children.
func (e *Element) PropertyCount() int { return len(e.children) }

// IsStructured reports whether the element has child elements.
func (e *Element) IsStructured() bool { return len(e.children) > 0 }

// Child returns the first direct child named name.
func (e *Element) Child(name string) (*Element, bool) {
	for _, c := range e.children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Fields flattens the direct leaf children into a name → text map.
// The first occurrence of a name wins; nil elements are left out.
func (e *Element) Fields() Fields {
	f := make(Fields, len(e.children))
	for _, c := range e.children {
		if c.Nil || c.IsStructured() {
			continue
		}
		if _, seen := f[c.Name]; !seen {
			f[c.Name] = c.Text
		}
	}
	return f
}

// Fields maps property names of one structured element to their text.
type Fields map[string]string

// Text returns the text of property name and whether it was present.
func (f Fields) Text(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

// ParseResponse decodes a SOAP 1.1 response and returns the first element of
// its body. A Fault body is returned as *domain.ErrSOAPFault.
func ParseResponse(data []byte) (*Element, error) {
	root, err := decodeTree(data)
	if err != nil {
		return nil, err
	}
	if root.Name != "Envelope" {
		return nil, fmt.Errorf("%w: root element %q", ErrMalformedEnvelope, root.Name)
	}
	body, ok := root.Child("Body")
	if !ok {
		return nil, fmt.Errorf("%w: no Body", ErrMalformedEnvelope)
	}
	if len(body.children) == 0 {
		return nil, fmt.Errorf("%w: empty Body", ErrMalformedEnvelope)
	}

	first := body.children[0]
	if first.Name == "Fault" {
		return nil, faultFrom(first)
	}
	return first, nil
}

func faultFrom(e *Element) *domain.ErrSOAPFault {
	fault := &domain.ErrSOAPFault{}
	if c, ok := e.Child("faultcode"); ok {
		fault.Code = c.Text
	}
	if c, ok := e.Child("faultstring"); ok {
		fault.String = c.Text
	}
	if c, ok := e.Child("detail"); ok {
		if c.IsStructured() {
			fault.Detail = c.children[0].Name
			if t := c.children[0].Text; t != "" {
				fault.Detail += ": " + t
			}
		} else {
			fault.Detail = c.Text
		}
	}
	return fault
}

func decodeTree(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		root  *Element
		stack []*Element
		text  []*strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Local == "nil" && a.Name.Space != "" && strings.TrimSpace(a.Value) == "true" {
					el.Nil = true
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformedEnvelope)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
			text = append(text, &strings.Builder{})
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}
		case xml.EndElement:
			el := stack[len(stack)-1]
			el.Text = strings.TrimSpace(text[len(text)-1].String())
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		}
	}

	if root == nil || len(stack) != 0 {
		return nil, fmt.Errorf("%w: no complete document", ErrMalformedEnvelope)
	}
	return root, nil
}

// Package soap implements the small slice of SOAP 1.1 the account service
// speaks: rpc-style requests with primitive properties, and responses whose
// body carries nested structured elements.
package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
)

// Namespaces used by a SOAP 1.1 envelope.
const (
	EnvelopeNamespace = "http://schemas.xmlsoap.org/soap/envelope/"
	EncodingNamespace = "http://schemas.xmlsoap.org/soap/encoding/"
	XSINamespace      = "http://www.w3.org/2001/XMLSchema-instance"
	XSDNamespace      = "http://www.w3.org/2001/XMLSchema"
)

var (
	// ErrNoMapping is returned when a property value has no registered type mapping.
	ErrNoMapping = errors.New("soap: no type mapping registered")
	// ErrUnsupportedValue is returned for property values the encoder cannot write.
	ErrUnsupportedValue = errors.New("soap: unsupported property value")
)

// Kind is the Go-side category of a property value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindLong
	KindBoolean
	KindDouble
)

// Mapping names the schema type written in i:type for a Kind.
type Mapping struct {
	Namespace string
	Name      string
}

// Built-in mappings. Floating-point values have none until AddMapping
// registers one on the envelope.
var defaultMappings = map[Kind]Mapping{
	KindString:  {Namespace: XSDNamespace, Name: "string"},
	KindInt:     {Namespace: XSDNamespace, Name: "int"},
	KindLong:    {Namespace: XSDNamespace, Name: "long"},
	KindBoolean: {Namespace: XSDNamespace, Name: "boolean"},
}

type property struct {
	name  string
	value any
}

// Request is an rpc-style call: a method element in the service namespace
// carrying unqualified properties in insertion order.
type Request struct {
	Namespace string
	Method    string
	props     []property
}

// NewRequest creates a request for method in namespace.
func NewRequest(namespace, method string) *Request {
	return &Request{Namespace: namespace, Method: method}
}

// AddProperty appends a named parameter. Supported values are string,
// int, int32, int64, bool, float32 and float64.
func (r *Request) AddProperty(name string, value any) *Request {
	r.props = append(r.props, property{name: name, value: value})
	return r
}

// PropertyCount returns the number of parameters added so far.
func (r *Request) PropertyCount() int { return len(r.props) }

// Envelope wraps an outbound request.
type Envelope struct {
	body     *Request
	mappings map[Kind]Mapping
}

// NewEnvelope creates a SOAP 1.1 envelope carrying req.
func NewEnvelope(req *Request) *Envelope {
	m := make(map[Kind]Mapping, len(defaultMappings)+1)
	for k, v := range defaultMappings {
		m[k] = v
	}
	return &Envelope{body: req, mappings: m}
}

// AddMapping registers the schema type written for values of kind k.
func (e *Envelope) AddMapping(namespace, name string, k Kind) {
	e.mappings[k] = Mapping{Namespace: namespace, Name: name}
}

// Request returns the body request.
func (e *Envelope) Request() *Request { return e.body }

func kindOf(v any) (Kind, string, error) {
	switch x := v.(type) {
	case string:
		return KindString, x, nil
	case int:
		return KindLong, strconv.Itoa(x), nil
	case int32:
		return KindInt, strconv.FormatInt(int64(x), 10), nil
	case int64:
		return KindLong, strconv.FormatInt(x, 10), nil
	case bool:
		return KindBoolean, strconv.FormatBool(x), nil
	case float32:
		return KindDouble, strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return KindDouble, strconv.FormatFloat(x, 'f', -1, 64), nil
	}
	return 0, "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

func name(local string) xml.Name { return xml.Name{Local: local} }

func attr(local, value string) xml.Attr { return xml.Attr{Name: name(local), Value: value} }

// Marshal renders the envelope as XML.
//
// Prefixes are written literally (v: envelope, i: instance, d: schema,
// c: encoding, n0: service namespace) so the output matches what rpc-style
// JAX-WS endpoints are used to receiving.
func (e *Envelope) Marshal() ([]byte, error) {
	if e.body == nil || e.body.Method == "" {
		return nil, errors.New("soap: envelope has no request")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	envelope := xml.StartElement{
		Name: name("v:Envelope"),
		Attr: []xml.Attr{
			attr("xmlns:i", XSINamespace),
			attr("xmlns:d", XSDNamespace),
			attr("xmlns:c", EncodingNamespace),
			attr("xmlns:v", EnvelopeNamespace),
		},
	}
	header := xml.StartElement{Name: name("v:Header")}
	body := xml.StartElement{Name: name("v:Body")}
	method := xml.StartElement{
		Name: name("n0:" + e.body.Method),
		Attr: []xml.Attr{
			attr("id", "o0"),
			attr("c:root", "1"),
			attr("xmlns:n0", e.body.Namespace),
		},
	}

	tokens := []xml.Token{envelope, header, header.End(), body, method}
	for i, p := range e.body.props {
		kind, text, err := kindOf(p.value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.name, err)
		}
		m, ok := e.mappings[kind]
		if !ok {
			return nil, fmt.Errorf("property %q (%T): %w", p.name, p.value, ErrNoMapping)
		}

		start := xml.StartElement{Name: name(p.name)}
		if m.Namespace == XSDNamespace {
			start.Attr = append(start.Attr, attr("i:type", "d:"+m.Name))
		} else {
			prefix := "n" + strconv.Itoa(i+1)
			start.Attr = append(start.Attr,
				attr("i:type", prefix+":"+m.Name),
				attr("xmlns:"+prefix, m.Namespace),
			)
		}
		tokens = append(tokens, start, xml.CharData(text), start.End())
	}
	tokens = append(tokens, method.End(), body.End(), envelope.End())

	for _, t := range tokens {
		if err := enc.EncodeToken(t); err != nil {
			return nil, fmt.Errorf("encode envelope: %w", err)
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return buf.Bytes(), nil
}

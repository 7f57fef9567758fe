// Package reader parses existing PDF files.
//
// It understands classic cross-reference tables and cross-reference
// streams (including objects packed into object streams), walks the page
// tree and the interactive form, and can append an incremental update to
// the original bytes. Encrypted documents are rejected.
package reader

import (
	"bytes"
	"strconv"
	"strings"
)

// Object is the interface satisfied by all PDF object types.
type Object interface {
	pdfObject()
	String() string
}

// Null is the PDF null object.
type Null struct{}

// Boolean is a PDF boolean.
type Boolean bool

// Integer is a PDF integer.
type Integer int64

// Real is a PDF real number.
type Real float64

// Name is a PDF name without its leading slash.
type Name string

// String is a PDF string. IsHex records the spelling it was read with.
type String struct {
	Value []byte
	IsHex bool
}

// Array is a PDF array.
type Array []Object

// Dict is a PDF dictionary.
type Dict map[Name]Object

// Stream is a stream object: its dictionary and the still-encoded data.
type Stream struct {
	Dict Dict
	Data []byte
}

// Reference is an indirect reference such as "10 0 R".
type Reference struct {
	Number     int
	Generation int
}

// IndirectObject is a numbered object definition.
type IndirectObject struct {
	Reference
	Value Object
}

func (Null) pdfObject()           {}
func (Boolean) pdfObject()        {}
func (Integer) pdfObject()        {}
func (Real) pdfObject()           {}
func (Name) pdfObject()           {}
func (String) pdfObject()         {}
func (Array) pdfObject()          {}
func (Dict) pdfObject()           {}
func (Stream) pdfObject()         {}
func (Reference) pdfObject()      {}
func (IndirectObject) pdfObject() {}

// The String methods return PDF syntax, the same bytes WriteObject emits.

func (o Null) String() string           { return format(o) }
func (o Boolean) String() string        { return format(o) }
func (o Integer) String() string        { return format(o) }
func (o Real) String() string           { return format(o) }
func (o Name) String() string           { return format(o) }
func (o String) String() string         { return format(o) }
func (o Array) String() string          { return format(o) }
func (o Dict) String() string           { return format(o) }
func (o Stream) String() string         { return format(o) }
func (o Reference) String() string      { return format(o) }
func (o IndirectObject) String() string { return format(o) }

func format(o Object) string {
	var buf bytes.Buffer
	writeObject(&buf, o)
	return buf.String()
}

// Float returns a numeric object as float64.
func Float(o Object) (float64, bool) {
	switch n := o.(type) {
	case Integer:
		return float64(n), true
	case Real:
		return float64(n), true
	}
	return 0, false
}

// GetName returns the name stored under key, or "".
func (d Dict) GetName(key Name) Name {
	n, _ := d[key].(Name)
	return n
}

// GetInt returns the number stored under key truncated to an integer.
func (d Dict) GetInt(key Name) (int64, bool) {
	f, ok := Float(d[key])
	return int64(f), ok
}

// GetDict returns the direct sub-dictionary stored under key.
func (d Dict) GetDict(key Name) Dict {
	sub, _ := d[key].(Dict)
	return sub
}

// GetArray returns the direct array stored under key.
func (d Dict) GetArray(key Name) Array {
	arr, _ := d[key].(Array)
	return arr
}

// GetString returns the text string stored under key, decoded.
func (d Dict) GetString(key Name) string {
	s, ok := d[key].(String)
	if !ok {
		return ""
	}
	return DecodeText(s.Value)
}

// Clone returns a shallow copy of d.
func (d Dict) Clone() Dict {
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// TextString returns a String holding s as a PDF text string.
func TextString(s string) String {
	return String{Value: EncodeText(s)}
}

func formatReal(f float64) string {
	s := strconv.FormatFloat(f, 'f', 4, 64)
	s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}

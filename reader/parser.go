package reader

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// parser reads PDF objects from a byte slice.
type parser struct {
	data []byte
	pos  int

	// length resolves an indirect /Length of a stream. When it is nil or
	// fails, the stream ends at the next "endstream" keyword.
	length func(Reference) (int, bool)
}

func newParser(data []byte) *parser {
	return &parser{data: data}
}

func (p *parser) eof() bool { return p.pos >= len(p.data) }

func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// skipWhitespace advances past whitespace and comments.
func (p *parser) skipWhitespace() {
	for !p.eof() {
		b := p.data[p.pos]
		if b == '%' {
			for !p.eof() && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
			continue
		}
		if !isWhitespace(b) {
			return
		}
		p.pos++
	}
}

// readToken reads a run of regular characters.
func (p *parser) readToken() string {
	p.skipWhitespace()
	start := p.pos
	for !p.eof() && !isWhitespace(p.data[p.pos]) && !isDelimiter(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

func (p *parser) hasPrefix(s string) bool {
	return bytes.HasPrefix(p.data[p.pos:], []byte(s))
}

// ParseObject parses the object at the current position.
func (p *parser) ParseObject() (Object, error) {
	p.skipWhitespace()
	if p.eof() {
		return nil, io.ErrUnexpectedEOF
	}
	switch b := p.data[p.pos]; {
	case p.hasPrefix("<<"):
		return p.parseDict()
	case b == '<':
		return p.parseHexString()
	case b == '(':
		return p.parseLiteralString()
	case b == '/':
		return p.parseName()
	case b == '[':
		return p.parseArray()
	case b >= '0' && b <= '9', b == '+', b == '-', b == '.':
		return p.parseNumber()
	default:
		switch tok := p.readToken(); tok {
		case "true":
			return Boolean(true), nil
		case "false":
			return Boolean(false), nil
		case "null":
			return Null{}, nil
		case "":
			return nil, fmt.Errorf("reader: unexpected %q at offset %d", b, p.pos)
		default:
			return nil, fmt.Errorf("reader: unexpected keyword %q at offset %d", tok, p.pos)
		}
	}
}

func (p *parser) parseName() (Name, error) {
	if p.eof() || p.data[p.pos] != '/' {
		return "", fmt.Errorf("reader: expected name at offset %d", p.pos)
	}
	p.pos++
	var buf bytes.Buffer
	for !p.eof() {
		b := p.data[p.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		if b == '#' && p.pos+2 < len(p.data) {
			hi, lo := unhex(p.data[p.pos+1]), unhex(p.data[p.pos+2])
			if hi >= 0 && lo >= 0 {
				buf.WriteByte(byte(hi<<4 | lo))
				p.pos += 3
				continue
			}
		}
		buf.WriteByte(b)
		p.pos++
	}
	return Name(buf.String()), nil
}

// parseNumber parses an integer, a real or an "N G R" reference.
func (p *parser) parseNumber() (Object, error) {
	start := p.pos
	tok := p.readToken()
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(tok, 64)
		if ferr != nil {
			return nil, fmt.Errorf("reader: invalid number %q at offset %d", tok, start)
		}
		return Real(f), nil
	}

	after := p.pos
	gen := p.readToken()
	if g, err := strconv.ParseInt(gen, 10, 64); err == nil && gen[0] != '+' && gen[0] != '-' {
		p.skipWhitespace()
		if !p.eof() && p.data[p.pos] == 'R' &&
			(p.pos+1 == len(p.data) || isWhitespace(p.data[p.pos+1]) || isDelimiter(p.data[p.pos+1])) {
			p.pos++
			return Reference{Number: int(n), Generation: int(g)}, nil
		}
	}
	p.pos = after
	return Integer(n), nil
}

var escapes = map[byte]byte{'n': '\n', 'r': '\r', 't': '\t', 'b': '\b', 'f': '\f', '(': '(', ')': ')', '\\': '\\'}

func (p *parser) parseLiteralString() (String, error) {
	p.pos++
	var buf bytes.Buffer
	for depth := 1; ; {
		if p.eof() {
			return String{}, fmt.Errorf("reader: unterminated literal string")
		}
		b := p.data[p.pos]
		p.pos++
		switch b {
		case '(':
			depth++
		case ')':
			if depth--; depth == 0 {
				return String{Value: buf.Bytes()}, nil
			}
		case '\\':
			if p.eof() {
				return String{}, fmt.Errorf("reader: unterminated literal string")
			}
			esc := p.data[p.pos]
			p.pos++
			if r, ok := escapes[esc]; ok {
				buf.WriteByte(r)
				continue
			}
			switch {
			case esc >= '0' && esc <= '7':
				oct := int(esc - '0')
				for i := 0; i < 2 && !p.eof() && p.data[p.pos] >= '0' && p.data[p.pos] <= '7'; i++ {
					oct = oct<<3 | int(p.data[p.pos]-'0')
					p.pos++
				}
				buf.WriteByte(byte(oct))
			case esc == '\r':
				// line continuation
				if !p.eof() && p.data[p.pos] == '\n' {
					p.pos++
				}
			case esc == '\n':
			default:
				buf.WriteByte(esc)
			}
			continue
		}
		buf.WriteByte(b)
	}
}

func (p *parser) parseHexString() (String, error) {
	p.pos++
	var buf bytes.Buffer
	hi := -1
	for !p.eof() {
		b := p.data[p.pos]
		p.pos++
		if b == '>' {
			if hi >= 0 {
				buf.WriteByte(byte(hi << 4))
			}
			return String{Value: buf.Bytes(), IsHex: true}, nil
		}
		if isWhitespace(b) {
			continue
		}
		v := unhex(b)
		if v < 0 {
			return String{}, fmt.Errorf("reader: invalid hex digit %q", b)
		}
		if hi < 0 {
			hi = v
			continue
		}
		buf.WriteByte(byte(hi<<4 | v))
		hi = -1
	}
	return String{}, fmt.Errorf("reader: unterminated hex string")
}

func (p *parser) parseArray() (Array, error) {
	p.pos++
	arr := Array{}
	for {
		p.skipWhitespace()
		if p.eof() {
			return nil, fmt.Errorf("reader: unterminated array")
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.ParseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *parser) parseDict() (Dict, error) {
	p.pos += 2
	d := make(Dict)
	for {
		p.skipWhitespace()
		if p.eof() {
			return nil, fmt.Errorf("reader: unterminated dictionary")
		}
		if p.hasPrefix(">>") {
			p.pos += 2
			return d, nil
		}
		key, err := p.parseName()
		if err != nil {
			return nil, err
		}
		val, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("reader: value of /%s: %w", key, err)
		}
		d[key] = val
	}
}

// ParseIndirectObject parses "N G obj ... endobj", including stream data.
func (p *parser) ParseIndirectObject() (*IndirectObject, error) {
	var ref Reference
	for i, dst := range []*int{&ref.Number, &ref.Generation} {
		tok := p.readToken()
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("reader: expected object header, got %q (field %d)", tok, i)
		}
		*dst = n
	}
	if tok := p.readToken(); tok != "obj" {
		return nil, fmt.Errorf("reader: expected obj after %d %d, got %q", ref.Number, ref.Generation, tok)
	}

	val, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("reader: object %d %d: %w", ref.Number, ref.Generation, err)
	}

	p.skipWhitespace()
	if p.hasPrefix("stream") {
		dict, ok := val.(Dict)
		if !ok {
			return nil, fmt.Errorf("reader: object %d %d: stream without dictionary", ref.Number, ref.Generation)
		}
		data, err := p.streamData(dict)
		if err != nil {
			return nil, fmt.Errorf("reader: object %d %d: %w", ref.Number, ref.Generation, err)
		}
		val = Stream{Dict: dict, Data: data}
	}

	p.skipWhitespace()
	if p.hasPrefix("endobj") {
		p.pos += len("endobj")
	}
	return &IndirectObject{Reference: ref, Value: val}, nil
}

func (p *parser) streamData(dict Dict) ([]byte, error) {
	p.pos += len("stream")
	if p.hasPrefix("\r\n") {
		p.pos += 2
	} else if !p.eof() && (p.data[p.pos] == '\n' || p.data[p.pos] == '\r') {
		p.pos++
	}

	length := -1
	switch l := dict["Length"].(type) {
	case Integer:
		length = int(l)
	case Reference:
		if p.length != nil {
			if n, ok := p.length(l); ok {
				length = n
			}
		}
	}
	if length < 0 || p.pos+length > len(p.data) ||
		!bytes.HasPrefix(bytes.TrimLeft(p.data[p.pos+length:], "\r\n \t"), []byte("endstream")) {
		end := bytes.Index(p.data[p.pos:], []byte("endstream"))
		if end < 0 {
			return nil, fmt.Errorf("stream has no endstream")
		}
		length = len(bytes.TrimRight(p.data[p.pos:p.pos+end], "\r\n"))
	}

	data := make([]byte, length)
	copy(data, p.data[p.pos:p.pos+length])
	p.pos += length
	p.skipWhitespace()
	if p.hasPrefix("endstream") {
		p.pos += len("endstream")
	}
	return data, nil
}

func unhex(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}

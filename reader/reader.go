package reader

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
	"sync"

	"github.com/lvillar/pdfgen"
)

// maxDepth bounds reference chains so that cyclic files cannot recurse
// forever.
const maxDepth = 32

// Document is a parsed PDF. Objects are read lazily; a Document is safe
// for concurrent use.
type Document struct {
	// Version is the header version, e.g. "1.4".
	Version string

	data      []byte
	xref      xrefTable
	trailer   Dict
	startxref int64
	pages     []*Page

	mu     sync.Mutex
	packed map[int]*objectStream
}

// objectStream is a decoded /Type /ObjStm stream.
type objectStream struct {
	data    []byte
	first   int
	offsets []int // relative to first, indexed like the header
}

// Open reads and parses the PDF file at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reader: %w", err)
	}
	return Parse(data)
}

// ReadFrom reads a whole PDF from r and parses it.
func ReadFrom(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reader: reading input: %w", err)
	}
	return Parse(data)
}

// Parse parses a PDF held in memory. data must not be modified afterwards.
func Parse(data []byte) (*Document, error) {
	version, err := parseVersion(data)
	if err != nil {
		return nil, err
	}
	start, err := findStartXRef(data)
	if err != nil {
		return nil, err
	}
	table, trailer, err := readXRef(data, start)
	if err != nil {
		return nil, err
	}
	if _, ok := trailer["Encrypt"]; ok {
		return nil, fmt.Errorf("reader: %w", pdfgen.ErrEncrypted)
	}

	d := &Document{
		Version:   version,
		data:      data,
		xref:      table,
		trailer:   trailer,
		startxref: start,
		packed:    make(map[int]*objectStream),
	}
	if err := d.buildPageList(); err != nil {
		return nil, err
	}
	return d, nil
}

func parseVersion(data []byte) (string, error) {
	head := data[:min(len(data), 1024)]
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return "", fmt.Errorf("reader: missing %%PDF header: %w", pdfgen.ErrCorrupted)
	}
	v := head[idx+5:]
	end := bytes.IndexFunc(v, func(r rune) bool { return r != '.' && (r < '0' || r > '9') })
	if end < 0 {
		end = len(v)
	}
	return string(v[:end]), nil
}

// NumPages returns the number of pages.
func (d *Document) NumPages() int { return len(d.pages) }

// Page returns page n, counting from 1.
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("reader: page %d out of range [1, %d]", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// Pages iterates over the pages with their 1-based numbers.
func (d *Document) Pages() iter.Seq2[int, *Page] {
	return func(yield func(int, *Page) bool) {
		for i, p := range d.pages {
			if !yield(i+1, p) {
				return
			}
		}
	}
}

// Trailer returns the newest trailer dictionary.
func (d *Document) Trailer() Dict { return d.trailer }

// Bytes returns the file the document was parsed from.
func (d *Document) Bytes() []byte { return d.data }

// Size returns one more than the highest object number in use.
func (d *Document) Size() int {
	size := 0
	if n, ok := d.trailer.GetInt("Size"); ok {
		size = int(n)
	}
	for num := range d.xref {
		size = max(size, num+1)
	}
	return size
}

// Catalog returns the document catalog.
func (d *Document) Catalog() (Dict, error) {
	obj, err := d.Resolve(d.trailer["Root"])
	if err != nil {
		return nil, fmt.Errorf("reader: catalog: %w", err)
	}
	catalog, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("reader: catalog is %T: %w", obj, pdfgen.ErrCorrupted)
	}
	return catalog, nil
}

// Metadata returns the text entries of the document information
// dictionary.
func (d *Document) Metadata() map[string]string {
	meta := make(map[string]string)
	obj, err := d.Resolve(d.trailer["Info"])
	if err != nil {
		return meta
	}
	info, _ := obj.(Dict)
	for k, v := range info {
		if s, ok := v.(String); ok {
			meta[string(k)] = DecodeText(s.Value)
		}
	}
	return meta
}

// Object returns the value of indirect object num.
func (d *Document) Object(num int) (Object, error) {
	return d.object(Reference{Number: num}, 0)
}

// Resolve follows o while it is a reference. Unknown objects resolve to
// Null, as the format requires.
func (d *Document) Resolve(o Object) (Object, error) {
	for depth := 0; ; depth++ {
		ref, ok := o.(Reference)
		if !ok {
			if o == nil {
				return Null{}, nil
			}
			return o, nil
		}
		if depth == maxDepth {
			return nil, fmt.Errorf("reader: reference chain too deep at %s: %w", ref, pdfgen.ErrCorrupted)
		}
		var err error
		if o, err = d.object(ref, depth); err != nil {
			return nil, err
		}
	}
}

// ResolveDict resolves o and returns it when it is a dictionary.
func (d *Document) ResolveDict(o Object) Dict {
	obj, err := d.Resolve(o)
	if err != nil {
		return nil
	}
	switch v := obj.(type) {
	case Dict:
		return v
	case Stream:
		return v.Dict
	}
	return nil
}

func (d *Document) object(ref Reference, depth int) (Object, error) {
	e, ok := d.xref[ref.Number]
	switch {
	case !ok || e.Kind == entryFree:
		return Null{}, nil
	case e.Kind == entryPacked:
		return d.packedObject(int(e.Offset), e.Index, depth)
	}
	if e.Offset < 0 || e.Offset >= int64(len(d.data)) {
		return nil, fmt.Errorf("reader: object %d at offset %d: %w", ref.Number, e.Offset, pdfgen.ErrCorrupted)
	}
	p := newParser(d.data[e.Offset:])
	p.length = func(r Reference) (int, bool) {
		if depth >= maxDepth {
			return 0, false
		}
		obj, err := d.object(r, depth+1)
		if err != nil {
			return 0, false
		}
		f, ok := Float(obj)
		return int(f), ok
	}
	obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("reader: object %d: %w", ref.Number, err)
	}
	if obj.Number != ref.Number {
		return nil, fmt.Errorf("reader: xref points object %d at object %d: %w", ref.Number, obj.Number, pdfgen.ErrCorrupted)
	}
	return obj.Value, nil
}

func (d *Document) packedObject(streamNum, index, depth int) (Object, error) {
	stm, err := d.objectStream(streamNum, depth)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(stm.offsets) {
		return nil, fmt.Errorf("reader: index %d outside object stream %d: %w", index, streamNum, pdfgen.ErrCorrupted)
	}
	start := stm.first + stm.offsets[index]
	if start >= len(stm.data) {
		return nil, fmt.Errorf("reader: object stream %d truncated: %w", streamNum, pdfgen.ErrCorrupted)
	}
	return newParser(stm.data[start:]).ParseObject()
}

func (d *Document) objectStream(num, depth int) (*objectStream, error) {
	d.mu.Lock()
	cached := d.packed[num]
	d.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	obj, err := d.object(Reference{Number: num}, depth+1)
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(Stream)
	if !ok {
		return nil, fmt.Errorf("reader: object stream %d is %T: %w", num, obj, pdfgen.ErrCorrupted)
	}
	data, err := Decode(stream)
	if err != nil {
		return nil, err
	}
	n, _ := stream.Dict.GetInt("N")
	first, _ := stream.Dict.GetInt("First")
	stm := &objectStream{data: data, first: int(first)}
	p := newParser(data[:min(int(first), len(data))])
	for range n {
		p.readToken() // object number, implied by the xref index
		off, err := strconv.Atoi(p.readToken())
		if err != nil {
			return nil, fmt.Errorf("reader: object stream %d header: %w", num, pdfgen.ErrCorrupted)
		}
		stm.offsets = append(stm.offsets, off)
	}

	d.mu.Lock()
	d.packed[num] = stm
	d.mu.Unlock()
	return stm, nil
}

package reader

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/lvillar/pdfgen"
)

type entryKind uint8

const (
	entryFree entryKind = iota
	entryOffset
	entryPacked // stored inside an object stream
)

// xrefEntry locates one object. For packed objects Offset holds the
// number of the object stream and Index the position inside it.
type xrefEntry struct {
	Kind       entryKind
	Offset     int64
	Generation int
	Index      int
}

type xrefTable map[int]xrefEntry

// merge adds the entries of older that are not already defined.
func (t xrefTable) merge(older xrefTable) {
	for num, e := range older {
		if _, ok := t[num]; !ok {
			t[num] = e
		}
	}
}

func findStartXRef(data []byte) (int64, error) {
	tail := data[max(0, len(data)-2048):]
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("reader: startxref not found: %w", pdfgen.ErrCorrupted)
	}
	p := newParser(tail[idx+len("startxref"):])
	tok := p.readToken()
	offset, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("reader: startxref offset %q: %w", tok, pdfgen.ErrCorrupted)
	}
	return offset, nil
}

// readXRef reads the cross-reference section at offset and every section
// reachable through /Prev. The newest trailer is returned.
func readXRef(data []byte, offset int64) (xrefTable, Dict, error) {
	table := make(xrefTable)
	var trailer Dict
	seen := make(map[int64]bool)
	for next := offset; next >= 0; {
		if seen[next] {
			break
		}
		seen[next] = true
		if next >= int64(len(data)) {
			return nil, nil, fmt.Errorf("reader: xref offset %d beyond end of file: %w", next, pdfgen.ErrCorrupted)
		}

		section, sectionTrailer, err := readXRefSection(data, next)
		if err != nil {
			return nil, nil, err
		}
		// Hybrid files keep the packed objects in a stream next to the table.
		if stm, ok := sectionTrailer.GetInt("XRefStm"); ok && !seen[stm] && stm < int64(len(data)) {
			seen[stm] = true
			if extra, _, err := parseXRefStream(data, stm); err == nil {
				section.merge(extra)
			}
		}
		table.merge(section)
		if trailer == nil {
			trailer = sectionTrailer
		}

		next = -1
		if prev, ok := sectionTrailer.GetInt("Prev"); ok {
			next = prev
		}
	}
	return table, trailer, nil
}

func readXRefSection(data []byte, offset int64) (xrefTable, Dict, error) {
	p := newParser(data[offset:])
	if p.readToken() != "xref" {
		return parseXRefStream(data, offset)
	}
	return parseXRefTable(p)
}

// parseXRefTable parses a classic table positioned just after "xref".
func parseXRefTable(p *parser) (xrefTable, Dict, error) {
	table := make(xrefTable)
	for {
		save := p.pos
		tok := p.readToken()
		if tok == "trailer" {
			break
		}
		if tok == "" {
			return nil, nil, fmt.Errorf("reader: xref table without trailer: %w", pdfgen.ErrCorrupted)
		}
		p.pos = save

		start, err1 := strconv.Atoi(p.readToken())
		count, err2 := strconv.Atoi(p.readToken())
		if err1 != nil || err2 != nil {
			return nil, nil, fmt.Errorf("reader: malformed xref subsection: %w", pdfgen.ErrCorrupted)
		}
		for i := range count {
			off, err1 := strconv.ParseInt(p.readToken(), 10, 64)
			gen, err2 := strconv.Atoi(p.readToken())
			kind := p.readToken()
			if err1 != nil || err2 != nil {
				return nil, nil, fmt.Errorf("reader: malformed xref entry %d: %w", start+i, pdfgen.ErrCorrupted)
			}
			e := xrefEntry{Offset: off, Generation: gen}
			if kind == "n" {
				e.Kind = entryOffset
			}
			if _, dup := table[start+i]; !dup {
				table[start+i] = e
			}
		}
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, nil, fmt.Errorf("reader: trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, nil, fmt.Errorf("reader: trailer is %T: %w", obj, pdfgen.ErrCorrupted)
	}
	return table, trailer, nil
}

// parseXRefStream parses a cross-reference stream object at offset.
func parseXRefStream(data []byte, offset int64) (xrefTable, Dict, error) {
	obj, err := newParser(data[offset:]).ParseIndirectObject()
	if err != nil {
		return nil, nil, fmt.Errorf("reader: xref stream: %w", err)
	}
	stream, ok := obj.Value.(Stream)
	if !ok || stream.Dict.GetName("Type") != "XRef" {
		return nil, nil, fmt.Errorf("reader: no xref at offset %d: %w", offset, pdfgen.ErrCorrupted)
	}
	raw, err := Decode(stream)
	if err != nil {
		return nil, nil, err
	}

	var w [3]int
	wArr := stream.Dict.GetArray("W")
	if len(wArr) != 3 {
		return nil, nil, fmt.Errorf("reader: xref stream /W: %w", pdfgen.ErrCorrupted)
	}
	for i, v := range wArr {
		n, _ := Float(v)
		w[i] = int(n)
	}
	rowLen := w[0] + w[1] + w[2]

	index := []int{0}
	if size, ok := stream.Dict.GetInt("Size"); ok {
		index = append(index, int(size))
	}
	if arr := stream.Dict.GetArray("Index"); arr != nil {
		index = index[:0]
		for _, v := range arr {
			n, _ := Float(v)
			index = append(index, int(n))
		}
	}

	table := make(xrefTable)
	pos := 0
	field := func(width int, def int64) int64 {
		if width == 0 {
			return def
		}
		var v int64
		for range width {
			v = v<<8 | int64(raw[pos])
			pos++
		}
		return v
	}
	for i := 0; i+1 < len(index); i += 2 {
		for num := index[i]; num < index[i]+index[i+1]; num++ {
			if pos+rowLen > len(raw) {
				break
			}
			kind, f2, f3 := field(w[0], 1), field(w[1], 0), field(w[2], 0)
			var e xrefEntry
			switch kind {
			case 1:
				e = xrefEntry{Kind: entryOffset, Offset: f2, Generation: int(f3)}
			case 2:
				e = xrefEntry{Kind: entryPacked, Offset: f2, Index: int(f3)}
			default:
				e = xrefEntry{Kind: entryFree, Generation: int(f3)}
			}
			if _, dup := table[num]; !dup {
				table[num] = e
			}
		}
	}
	return table, stream.Dict, nil
}

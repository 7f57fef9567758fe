package reader

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// WriteObject serializes o in PDF syntax. Dictionary keys are written in
// sorted order and a stream's /Length always matches its data.
func WriteObject(w io.Writer, o Object) error {
	var buf bytes.Buffer
	writeObject(&buf, o)
	_, err := w.Write(buf.Bytes())
	return err
}

func writeObject(buf *bytes.Buffer, o Object) {
	switch v := o.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Boolean:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case Integer:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Real:
		buf.WriteString(formatReal(float64(v)))
	case Name:
		writeName(buf, v)
	case String:
		writeString(buf, v)
	case Array:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeObject(buf, item)
		}
		buf.WriteByte(']')
	case Dict:
		writeDict(buf, v)
	case Stream:
		d := v.Dict.Clone()
		d["Length"] = Integer(len(v.Data))
		writeDict(buf, d)
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	case Reference:
		fmt.Fprintf(buf, "%d %d R", v.Number, v.Generation)
	case IndirectObject:
		fmt.Fprintf(buf, "%d %d obj\n", v.Number, v.Generation)
		writeObject(buf, v.Value)
		buf.WriteString("\nendobj\n")
	case *IndirectObject:
		writeObject(buf, *v)
	default:
		buf.WriteString("null")
	}
}

func writeDict(buf *bytes.Buffer, d Dict) {
	keys := make([]Name, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	buf.WriteString("<<")
	for _, k := range keys {
		writeName(buf, k)
		buf.WriteByte(' ')
		writeObject(buf, d[k])
	}
	buf.WriteString(">>")
}

func writeName(buf *bytes.Buffer, n Name) {
	buf.WriteByte('/')
	for i := 0; i < len(n); i++ {
		b := n[i]
		if b < 0x21 || b > 0x7e || b == '#' || isDelimiter(b) {
			fmt.Fprintf(buf, "#%02X", b)
			continue
		}
		buf.WriteByte(b)
	}
}

func writeString(buf *bytes.Buffer, s String) {
	if s.IsHex || !printable(s.Value) {
		fmt.Fprintf(buf, "<%X>", s.Value)
		return
	}
	buf.WriteByte('(')
	for _, b := range s.Value {
		switch b {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(b)
		case '\r':
			buf.WriteString(`\r`)
		case '\n':
			buf.WriteString(`\n`)
		default:
			buf.WriteByte(b)
		}
	}
	buf.WriteByte(')')
}

func printable(data []byte) bool {
	for _, b := range data {
		if (b < 0x20 && b != '\r' && b != '\n') || b > 0x7e {
			return false
		}
	}
	return true
}

package reader

import (
	"bytes"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/lvillar/pdfgen"
)

// Decode applies the filter chain of s and returns the decoded data.
func Decode(s Stream) ([]byte, error) {
	var filters []Name
	switch f := s.Dict["Filter"].(type) {
	case nil:
		return s.Data, nil
	case Name:
		filters = []Name{f}
	case Array:
		for _, item := range f {
			n, ok := item.(Name)
			if !ok {
				return nil, fmt.Errorf("reader: filter array holds %T: %w", item, pdfgen.ErrCorrupted)
			}
			filters = append(filters, n)
		}
	default:
		return nil, fmt.Errorf("reader: filter of type %T: %w", f, pdfgen.ErrCorrupted)
	}

	params := decodeParams(s.Dict, len(filters))
	data := s.Data
	for i, name := range filters {
		var err error
		switch name {
		case "FlateDecode", "Fl":
			data, err = inflate(data, params[i])
		case "ASCIIHexDecode", "AHx":
			data, err = asciiHex(data)
		case "ASCII85Decode", "A85":
			data, err = ascii85Decode(data)
		default:
			return nil, fmt.Errorf("reader: filter %s: %w", name, pdfgen.ErrUnsupported)
		}
		if err != nil {
			return nil, fmt.Errorf("reader: filter %s: %w", name, err)
		}
	}
	return data, nil
}

// decodeParams lines /DecodeParms up with the filter list.
func decodeParams(d Dict, n int) []Dict {
	out := make([]Dict, n)
	switch p := d["DecodeParms"].(type) {
	case Dict:
		if n > 0 {
			out[0] = p
		}
	case Array:
		for i := 0; i < n && i < len(p); i++ {
			out[i], _ = p[i].(Dict)
		}
	}
	return out
}

func inflate(data []byte, params Dict) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	// Truncated streams are common; keep what was inflated.
	if err != nil && len(out) == 0 {
		return nil, err
	}
	predictor, _ := params.GetInt("Predictor")
	if predictor < 10 {
		return out, nil
	}
	columns, ok := params.GetInt("Columns")
	if !ok {
		columns = 1
	}
	colors, ok := params.GetInt("Colors")
	if !ok {
		colors = 1
	}
	bpc, ok := params.GetInt("BitsPerComponent")
	if !ok {
		bpc = 8
	}
	return unpredictPNG(out, int((colors*bpc+7)/8), int((columns*colors*bpc+7)/8))
}

// unpredictPNG reverses the PNG row filters used by cross-reference and
// object streams.
func unpredictPNG(data []byte, bpp, rowLen int) ([]byte, error) {
	if rowLen <= 0 || len(data)%(rowLen+1) != 0 {
		return nil, fmt.Errorf("png predictor: %d bytes do not divide into rows of %d", len(data), rowLen)
	}
	out := make([]byte, 0, len(data)/(rowLen+1)*rowLen)
	prev := make([]byte, rowLen)
	for off := 0; off < len(data); off += rowLen + 1 {
		kind, row := data[off], append([]byte(nil), data[off+1:off+1+rowLen]...)
		for i := range row {
			var left, upLeft byte
			if i >= bpp {
				left, upLeft = row[i-bpp], prev[i-bpp]
			}
			up := prev[i]
			switch kind {
			case 0:
			case 1:
				row[i] += left
			case 2:
				row[i] += up
			case 3:
				row[i] += byte((int(left) + int(up)) / 2)
			case 4:
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("png predictor: unknown row filter %d", kind)
			}
		}
		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func asciiHex(data []byte) ([]byte, error) {
	clean := make([]byte, 0, len(data))
	for _, b := range data {
		if b == '>' {
			break
		}
		if !isWhitespace(b) {
			clean = append(clean, b)
		}
	}
	if len(clean)%2 != 0 {
		clean = append(clean, '0')
	}
	out := make([]byte, hex.DecodedLen(len(clean)))
	if _, err := hex.Decode(out, clean); err != nil {
		return nil, err
	}
	return out, nil
}

func ascii85Decode(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(bytes.TrimSpace(data), []byte("<~"))
	if end := bytes.Index(data, []byte("~>")); end >= 0 {
		data = data[:end]
	}
	return io.ReadAll(ascii85.NewDecoder(bytes.NewReader(data)))
}

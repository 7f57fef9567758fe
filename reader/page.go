package reader

import (
	"fmt"

	"github.com/lvillar/pdfgen"
)

// Rectangle is a PDF rectangle in default user space units (points),
// with the origin at the bottom-left of the page.
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

// Width returns the width of r.
func (r Rectangle) Width() float64 { return r.URX - r.LLX }

// Height returns the height of r.
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Array returns r as a PDF array.
func (r Rectangle) Array() Array {
	return Array{Real(r.LLX), Real(r.LLY), Real(r.URX), Real(r.URY)}
}

// Page is a leaf of the page tree. Inheritable attributes are already
// resolved against its ancestors.
type Page struct {
	Number    int
	Ref       Reference
	MediaBox  Rectangle
	CropBox   *Rectangle
	Resources Dict
	Rotate    int

	// Dict is the page dictionary as stored in the file.
	Dict Dict

	doc *Document
}

// Annotations returns the references listed in /Annots. Direct
// annotation dictionaries are skipped.
func (p *Page) Annotations() []Reference {
	obj, err := p.doc.Resolve(p.Dict["Annots"])
	if err != nil {
		return nil
	}
	arr, _ := obj.(Array)
	var refs []Reference
	for _, a := range arr {
		if ref, ok := a.(Reference); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// ContentStream returns the decoded page content. Multiple content streams
// are joined with a newline.
func (p *Page) ContentStream() ([]byte, error) {
	obj, err := p.doc.Resolve(p.Dict["Contents"])
	if err != nil {
		return nil, err
	}
	var items []Object
	switch c := obj.(type) {
	case Stream:
		items = []Object{c}
	case Array:
		items = c
	}
	var out []byte
	for _, item := range items {
		resolved, err := p.doc.Resolve(item)
		if err != nil {
			return nil, err
		}
		s, ok := resolved.(Stream)
		if !ok {
			continue
		}
		data, err := Decode(s)
		if err != nil {
			return nil, fmt.Errorf("reader: page %d content: %w", p.Number, err)
		}
		out = append(out, data...)
		out = append(out, '\n')
	}
	return out, nil
}

// ParseRectangle converts a four-number array to a Rectangle, normalising
// the corner order.
func ParseRectangle(obj Object) (Rectangle, error) {
	arr, ok := obj.(Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, fmt.Errorf("reader: rectangle is not a four-element array")
	}
	var v [4]float64
	for i, item := range arr {
		f, ok := Float(item)
		if !ok {
			return Rectangle{}, fmt.Errorf("reader: rectangle element %d is %T", i, item)
		}
		v[i] = f
	}
	return Rectangle{
		LLX: min(v[0], v[2]), LLY: min(v[1], v[3]),
		URX: max(v[0], v[2]), URY: max(v[1], v[3]),
	}, nil
}

var inheritable = []Name{"MediaBox", "CropBox", "Resources", "Rotate"}

func (d *Document) buildPageList() error {
	catalog, err := d.Catalog()
	if err != nil {
		return err
	}
	root, ok := catalog["Pages"].(Reference)
	if !ok {
		return fmt.Errorf("reader: /Pages is not a reference: %w", pdfgen.ErrCorrupted)
	}
	d.pages = nil
	return d.walkPages(root, Dict{}, make(map[int]bool))
}

func (d *Document) walkPages(ref Reference, inherited Dict, visited map[int]bool) error {
	if visited[ref.Number] {
		return fmt.Errorf("reader: page tree cycle at %s: %w", ref, pdfgen.ErrCorrupted)
	}
	visited[ref.Number] = true

	node := d.ResolveDict(ref)
	if node == nil {
		return fmt.Errorf("reader: page tree node %s is not a dictionary: %w", ref, pdfgen.ErrCorrupted)
	}
	attrs := inherited.Clone()
	for _, key := range inheritable {
		if v, ok := node[key]; ok {
			attrs[key] = v
		}
	}

	kids, _ := d.Resolve(node["Kids"])
	if node.GetName("Type") == "Page" || kids == (Null{}) {
		d.pages = append(d.pages, d.newPage(ref, node, attrs))
		return nil
	}
	arr, _ := kids.(Array)
	for _, kid := range arr {
		kref, ok := kid.(Reference)
		if !ok {
			continue
		}
		if err := d.walkPages(kref, attrs, visited); err != nil {
			return err
		}
	}
	return nil
}

func (d *Document) newPage(ref Reference, node, attrs Dict) *Page {
	p := &Page{
		Number:   len(d.pages) + 1,
		Ref:      ref,
		Dict:     node,
		MediaBox: Rectangle{URX: 612, URY: 792}, // US Letter when absent
		doc:      d,
	}
	if obj, err := d.Resolve(attrs["MediaBox"]); err == nil {
		if r, err := ParseRectangle(obj); err == nil {
			p.MediaBox = r
		}
	}
	if obj, err := d.Resolve(attrs["CropBox"]); err == nil {
		if r, err := ParseRectangle(obj); err == nil {
			p.CropBox = &r
		}
	}
	p.Resources = d.ResolveDict(attrs["Resources"])
	if obj, err := d.Resolve(attrs["Rotate"]); err == nil {
		if f, ok := Float(obj); ok {
			p.Rotate = int(f)
		}
	}
	return p
}

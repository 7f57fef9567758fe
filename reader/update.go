package reader

import (
	"bytes"
	"fmt"
	"io"
	"slices"
)

// Update collects changed and new objects and appends them to the
// original file as an incremental update. The original bytes are kept
// untouched, so existing signatures and offsets stay valid.
type Update struct {
	doc     *Document
	objects map[int]IndirectObject
	next    int
}

// NewUpdate starts an incremental update of d.
func (d *Document) NewUpdate() *Update {
	return &Update{doc: d, objects: make(map[int]IndirectObject), next: d.Size()}
}

// Set replaces the object ref refers to.
func (u *Update) Set(ref Reference, obj Object) {
	u.objects[ref.Number] = IndirectObject{Reference: ref, Value: obj}
}

// Add stores obj under a fresh object number.
func (u *Update) Add(obj Object) Reference {
	ref := Reference{Number: u.next}
	u.next++
	u.Set(ref, obj)
	return ref
}

// Reserve allocates an object number to be filled in later with Set.
func (u *Update) Reserve() Reference {
	ref := Reference{Number: u.next}
	u.next++
	return ref
}

// Len returns the number of objects in the update.
func (u *Update) Len() int { return len(u.objects) }

// Bytes returns the updated file.
func (u *Update) Bytes() []byte {
	var buf bytes.Buffer
	u.WriteTo(&buf)
	return buf.Bytes()
}

// WriteTo writes the original file followed by the update section.
func (u *Update) WriteTo(w io.Writer) (int64, error) {
	for num, obj := range u.objects {
		if _, ok := obj.Value.(Reference); ok || obj.Value == nil {
			return 0, fmt.Errorf("reader: object %d has no value", num)
		}
	}

	var buf bytes.Buffer
	buf.Write(u.doc.data)
	if !bytes.HasSuffix(u.doc.data, []byte("\n")) {
		buf.WriteByte('\n')
	}

	nums := make([]int, 0, len(u.objects))
	for num := range u.objects {
		nums = append(nums, num)
	}
	slices.Sort(nums)
	offsets := make(map[int]int, len(nums))
	for _, num := range nums {
		offsets[num] = buf.Len()
		writeObject(&buf, u.objects[num])
	}

	xref := buf.Len()
	buf.WriteString("xref\n0 1\n0000000000 65535 f \n")
	for i := 0; i < len(nums); {
		j := i
		for j+1 < len(nums) && nums[j+1] == nums[j]+1 {
			j++
		}
		fmt.Fprintf(&buf, "%d %d\n", nums[i], j-i+1)
		for _, num := range nums[i : j+1] {
			fmt.Fprintf(&buf, "%010d %05d n \n", offsets[num], u.objects[num].Generation)
		}
		i = j + 1
	}

	trailer := Dict{
		"Size": Integer(max(u.next, u.doc.Size())),
		"Prev": Integer(u.doc.startxref),
	}
	for _, key := range []Name{"Root", "Info", "ID"} {
		if v, ok := u.doc.trailer[key]; ok {
			trailer[key] = v
		}
	}
	buf.WriteString("trailer\n")
	writeDict(&buf, trailer)
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xref)

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

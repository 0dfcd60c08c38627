package record

// ObjectArray is an ordered sequence of sub-records: non-null (no nil
// element) and duplicate-free (the same *Record pointer never appears
// twice), per spec.md §3's invariants. It is the operand type every
// table-valued rule (TableAt, TableSort, TableSelection, ...)
// consumes.
type ObjectArray struct {
	elements []*Record
	present  map[*Record]bool
}

// NewObjectArray returns an empty ObjectArray.
func NewObjectArray() *ObjectArray {
	return &ObjectArray{present: make(map[*Record]bool)}
}

// NewObjectArrayFrom builds an ObjectArray from elems, returning an
// error if elems contains a nil entry or a duplicate pointer.
func NewObjectArrayFrom(elems []*Record) (*ObjectArray, error) {
	arr := NewObjectArray()
	for _, e := range elems {
		if err := arr.Append(e); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

// Append adds r to the end of the array. Returns an error if r is nil
// or already present.
func (a *ObjectArray) Append(r *Record) error {
	if r == nil {
		return errNullElement
	}
	if a.present[r] {
		return errDuplicateElement
	}
	a.elements = append(a.elements, r)
	a.present[r] = true
	return nil
}

// Len returns the number of elements.
func (a *ObjectArray) Len() int { return len(a.elements) }

// At returns the 0-based element i.
func (a *ObjectArray) At(i int) *Record { return a.elements[i] }

// Contains reports whether r is an element of a, by pointer identity.
func (a *ObjectArray) Contains(r *Record) bool { return a.present[r] }

// Elements returns the array's elements in order. The returned slice is
// owned by the caller (safe to mutate independently of a).
func (a *ObjectArray) Elements() []*Record {
	return append([]*Record(nil), a.elements...)
}

// objectArrayError is a sentinel error type so callers can classify
// ObjectArray construction failures without string matching.
type objectArrayError string

func (e objectArrayError) Error() string { return string(e) }

const (
	errNullElement      objectArrayError = "object array: nil element not allowed"
	errDuplicateElement objectArrayError = "object array: duplicate element not allowed"
)

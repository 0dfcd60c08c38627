package dictionary

// Report summarizes a compiled Dictionary's shape: how many native vs.
// derived Attributes it carries, how many Blocks, and which Attributes
// form its key. internal/output renders it alongside a dictdiff result
// so a caller can see what a Dictionary looks like without having to
// walk its AttributeNames/BlockNames themselves.
type Report struct {
	Name                  string
	Root                  bool
	AttributeCount        int
	NativeAttributeCount  int
	DerivedAttributeCount int
	BlockCount            int
	KeyAttributeNames     []string
}

// Report builds a Report from d, which must already be compiled.
func (d *Dictionary) Report() Report {
	r := Report{Name: d.Name, Root: d.Root, KeyAttributeNames: d.KeyAttributeNames()}
	for _, name := range d.AttributeNames() {
		a := d.LookupAttribute(name)
		r.AttributeCount++
		if a.IsDerived() {
			r.DerivedAttributeCount++
		} else {
			r.NativeAttributeCount++
		}
	}
	r.BlockCount = len(d.BlockNames())
	return r
}

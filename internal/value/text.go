package value

// Text is a large, symbol-like string value (spec.md §3). Unlike Symbol
// it is never interned: Text values are typically unique per record and
// would pollute the global interner. A Text round-trips through a
// tabular field unmodified as long as it stays under MaxTextLength and
// contains no raw newline; callers that load overlong content should
// truncate before constructing a Text, since Check() merely reports the
// violation rather than repairing it.
type Text struct {
	s     string
	valid bool
}

// NewText constructs a Text from s. A value exceeding MaxTextLength is
// still constructed but fails Check(), mirroring Date/Time's
// out-of-range handling.
func NewText(s string) Text {
	return Text{s: s, valid: len(s) <= MaxTextLength}
}

// Check reports whether t is within the representable length bound.
func (t Text) Check() bool { return t.valid }

// Reset returns the canonical empty, valid Text.
func (t Text) Reset() Text { return Text{valid: true} }

// String returns the underlying content regardless of Check().
func (t Text) String() string { return t.s }

// Len returns the byte length of the underlying content.
func (t Text) Len() int { return len(t.s) }

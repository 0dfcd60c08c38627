package dictionary

import "fmt"

// InvalidSchemaKind classifies why a Dictionary failed to compile
// (spec.md §4.2).
type InvalidSchemaKind int

const (
	DuplicateName InvalidSchemaKind = iota
	CyclicDerivation
	UndefinedReference
	TypeMismatch
	EmptyRootKey
	DerivedKeyAttribute
)

func (k InvalidSchemaKind) String() string {
	switch k {
	case DuplicateName:
		return "duplicate name"
	case CyclicDerivation:
		return "cyclic derivation"
	case UndefinedReference:
		return "undefined reference"
	case TypeMismatch:
		return "type mismatch"
	case EmptyRootKey:
		return "root dictionary with empty key"
	case DerivedKeyAttribute:
		return "key attribute is derived"
	default:
		return "invalid schema"
	}
}

// InvalidSchemaError reports a Dictionary.Compile failure.
type InvalidSchemaError struct {
	Kind    InvalidSchemaKind
	Subject string // attribute/block name the error concerns, if any
	Detail  string
}

func (e *InvalidSchemaError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("invalid schema: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("invalid schema: %s: %q: %s", e.Kind, e.Subject, e.Detail)
}

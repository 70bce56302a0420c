package meta

import (
	"encoding/json"
	"strings"
)

// valueKind discriminates the Value union.
type valueKind uint8

const (
	kindScalar valueKind = iota
	kindList
)

// Value is a decoded meta value: either a single string (Scalar) or an
// ordered sequence of strings (List). The zero Value is the empty Scalar.
type Value struct {
	kind   valueKind
	scalar string
	list   []string
}

// Scalar returns a scalar Value holding s.
func Scalar(s string) Value {
	return Value{kind: kindScalar, scalar: s}
}

// List returns a list Value holding a copy of items. A nil or empty items
// yields the empty List, which is distinct from the empty Scalar.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: kindList, list: cp}
}

// IsList reports whether v is a List.
func (v Value) IsList() bool { return v.kind == kindList }

// IsEmpty reports whether v is the empty Scalar or a List without elements.
func (v Value) IsEmpty() bool {
	if v.kind == kindList {
		return len(v.list) == 0
	}
	return v.scalar == ""
}

// Len returns the number of elements in a List, and 1 for a non-empty Scalar.
func (v Value) Len() int {
	if v.kind == kindList {
		return len(v.list)
	}
	if v.scalar == "" {
		return 0
	}
	return 1
}

// String returns the scalar text. For a List it returns the first element,
// or "" when the List is empty.
func (v Value) String() string {
	if v.kind == kindList {
		if len(v.list) == 0 {
			return ""
		}
		return v.list[0]
	}
	return v.scalar
}

// Strings returns the elements of a List, or a one-element slice for a
// non-empty Scalar. The result is never nil and is safe to modify.
func (v Value) Strings() []string {
	if v.kind == kindList {
		out := make([]string, len(v.list))
		copy(out, v.list)
		return out
	}
	if v.scalar == "" {
		return []string{}
	}
	return []string{v.scalar}
}

// NonEmpty returns the elements of v with empty strings removed.
func (v Value) NonEmpty() []string {
	out := make([]string, 0, v.Len())
	for _, s := range v.Strings() {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Join returns the non-empty elements of v joined by sep.
func (v Value) Join(sep string) string {
	return strings.Join(v.NonEmpty(), sep)
}

// Equal reports whether v and other hold the same kind and contents.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	if v.kind == kindScalar {
		return v.scalar == other.scalar
	}
	if len(v.list) != len(other.list) {
		return false
	}
	for i := range v.list {
		if v.list[i] != other.list[i] {
			return false
		}
	}
	return true
}

// append returns v with the elements of next appended, promoting a Scalar
// to a List first.
func (v Value) append(next Value) Value {
	var items []string
	if v.kind == kindList {
		items = append(items, v.list...)
	} else {
		items = append(items, v.scalar)
	}
	if next.kind == kindList {
		items = append(items, next.list...)
	} else {
		items = append(items, next.scalar)
	}
	return Value{kind: kindList, list: items}
}

// MarshalJSON encodes a Scalar as a JSON string and a List as a JSON array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == kindList {
		return json.Marshal(v.Strings())
	}
	return json.Marshal(v.scalar)
}

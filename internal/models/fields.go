package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// nullValue is how absent values are rendered in conflict reports.
const nullValue = "null"

// Field describes one business field of an entity type T.
// Metadata fields are never described by a Field.
type Field[T any] struct {
	Equal  func(a, b T) bool
	Format func(v T) string
	Copy   func(dst, src T)
	Name   string
}

// Schema lists the business fields of an entity type.
// It replaces reflection over struct members: adding a field to an entity
// means adding it here, otherwise sync will not carry it.
type Schema[T Replica] struct {
	New    func() T
	Kind   string // Kind имя коллекции по умолчанию
	Fields []Field[T]
}

// Field returns the field with the given name.
func (s Schema[T]) Field(name string) (Field[T], bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// CopyFields copies every business field from src to dst.
func (s Schema[T]) CopyFields(dst, src T) {
	for _, f := range s.Fields {
		f.Copy(dst, src)
	}
}

// EqualFields reports whether all business fields are equal.
func (s Schema[T]) EqualFields(a, b T) bool {
	for _, f := range s.Fields {
		if !f.Equal(a, b) {
			return false
		}
	}
	return true
}

// Scalar describes a field holding a comparable value.
func Scalar[T any, V comparable](name string, get func(T) V, set func(T, V)) Field[T] {
	return Field[T]{
		Name:   name,
		Equal:  func(a, b T) bool { return get(a) == get(b) },
		Format: func(v T) string { return fmt.Sprint(get(v)) },
		Copy:   func(dst, src T) { set(dst, get(src)) },
	}
}

// Optional describes a nullable field; values are compared by pointee.
func Optional[T any, V comparable](name string, get func(T) *V, set func(T, *V)) Field[T] {
	return Field[T]{
		Name: name,
		Equal: func(a, b T) bool {
			va, vb := get(a), get(b)
			if va == nil || vb == nil {
				return va == nil && vb == nil
			}
			return *va == *vb
		},
		Format: func(v T) string {
			p := get(v)
			if p == nil {
				return nullValue
			}
			return fmt.Sprint(*p)
		},
		Copy: func(dst, src T) {
			p := get(src)
			if p == nil {
				set(dst, nil)
				return
			}
			cp := *p
			set(dst, &cp)
		},
	}
}

// Timestamp describes a nullable time field; instants are compared with time.Equal.
func Timestamp[T any](name string, get func(T) *time.Time, set func(T, *time.Time)) Field[T] {
	return Field[T]{
		Name: name,
		Equal: func(a, b T) bool {
			ta, tb := get(a), get(b)
			if ta == nil || tb == nil {
				return ta == nil && tb == nil
			}
			return ta.Equal(*tb)
		},
		Format: func(v T) string {
			t := get(v)
			if t == nil {
				return nullValue
			}
			return t.UTC().Format(time.RFC3339Nano)
		},
		Copy: func(dst, src T) {
			t := get(src)
			if t == nil {
				set(dst, nil)
				return
			}
			cp := *t
			set(dst, &cp)
		},
	}
}

// Strings describes a string list field.
func Strings[T any](name string, get func(T) []string, set func(T, []string)) Field[T] {
	return Field[T]{
		Name:  name,
		Equal: func(a, b T) bool { return slices.Equal(get(a), get(b)) },
		Format: func(v T) string {
			values := get(v)
			if values == nil {
				return nullValue
			}
			return "[" + strings.Join(values, ", ") + "]"
		},
		Copy: func(dst, src T) { set(dst, slices.Clone(get(src))) },
	}
}

// Package opt provides an optional value type.
package opt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Maybe holds either a value of type V or nothing. The zero value is None.
//
// It is used in configuration types where "not specified" must be distinguishable from a
// zero value, for instance a list limit of 0.
type Maybe[V any] struct {
	defined bool
	value   V
}

// Some returns a Maybe with a value.
func Some[V any](value V) Maybe[V] {
	return Maybe[V]{defined: true, value: value}
}

// None returns an empty Maybe.
func None[V any]() Maybe[V] { return Maybe[V]{} }

// FromPtr returns Some(*ptr), or None if ptr is nil.
func FromPtr[V any](ptr *V) Maybe[V] {
	if ptr == nil {
		return None[V]()
	}
	return Some(*ptr)
}

// IsDefined returns true if there is a value.
func (m Maybe[V]) IsDefined() bool { return m.defined }

// Value returns the value, or the zero value of V if there is none.
func (m Maybe[V]) Value() V { return m.value }

// AsPtr returns a pointer to a copy of the value, or nil.
func (m Maybe[V]) AsPtr() *V {
	if !m.defined {
		return nil
	}
	v := m.value
	return &v
}

// OrElse returns the value if there is one, or valueIfUndefined.
func (m Maybe[V]) OrElse(valueIfUndefined V) V {
	if m.defined {
		return m.value
	}
	return valueIfUndefined
}

// String returns "[none]" for an empty Maybe, otherwise the value's own String() or its %v form.
func (m Maybe[V]) String() string {
	if !m.defined {
		return "[none]"
	}
	if s, ok := any(m.value).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", m.value)
}

// MarshalJSON encodes the value, or null.
func (m Maybe[V]) MarshalJSON() ([]byte, error) {
	if !m.defined {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON decodes null as None and anything else as Some.
func (m *Maybe[V]) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON for optional value: %s", string(data))
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = None[V]()
		return nil
	}
	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*m = Some(value)
	return nil
}

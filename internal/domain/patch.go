package domain

import "encoding/json"

// Optional is a PATCH body field that distinguishes "not supplied" from
// "explicitly cleared". A plain pointer cannot: nil would mean both. Decoding
// a body that omits the field leaves Set false; decoding an explicit null
// sets Set true and Valid false.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// UnmarshalJSON records presence before decoding the value.
// It is only invoked for fields present in the body, so Set is always true here.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Valid = false
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// Some returns an Optional carrying the given value. Test helper and
// convenience for building patches in code.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// Null returns an Optional that explicitly clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

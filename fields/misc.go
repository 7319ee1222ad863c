package fields

import (
	"fmt"

	"github.com/google/uuid"
)

// BinaryField stores raw bytes.
type BinaryField struct {
	base
}

// Binary declares a binary blob column.
func Binary(name string, opts ...Option) *BinaryField {
	return &BinaryField{base: newBase(name, opts)}
}

func (f *BinaryField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, newError(f.name, "%s must be bytes", f.name)
	}
	return b, nil
}

func (f *BinaryField) ToStorage(v any) (any, error) { return v, nil }

func (f *BinaryField) FromStorage(v any) (any, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, fmt.Errorf("%s: cannot load %T as bytes", f.name, v)
}

// StorageType reports the generic blob type; dialects map it to BYTEA or
// BLOB as appropriate.
func (f *BinaryField) StorageType() string { return "BLOB" }

// UUIDField stores RFC 4122 identifiers.
type UUIDField struct {
	base
}

// UUID declares a UUID column. String input is parsed.
func UUID(name string, opts ...Option) *UUIDField {
	return &UUIDField{base: newBase(name, opts)}
}

func (f *UUIDField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	switch u := v.(type) {
	case uuid.UUID:
		return u, nil
	case string:
		parsed, err := uuid.Parse(u)
		if err != nil {
			return nil, newError(f.name, "%s must be a valid UUID", f.name)
		}
		return parsed, nil
	}
	return nil, newError(f.name, "%s must be a UUID", f.name)
}

func (f *UUIDField) ToStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return v.(uuid.UUID).String(), nil
}

func (f *UUIDField) FromStorage(v any) (any, error) {
	switch u := v.(type) {
	case nil:
		return nil, nil
	case string:
		return uuid.Parse(u)
	case []byte:
		return uuid.ParseBytes(u)
	}
	return nil, fmt.Errorf("%s: cannot load %T as UUID", f.name, v)
}

// StorageType reports the generic UUID type; sqlite maps it to TEXT.
func (f *UUIDField) StorageType() string { return "UUID" }

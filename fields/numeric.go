package fields

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// IntegerField stores 32-bit-ranged whole numbers as int64 values.
type IntegerField struct {
	base
	storageType string
	min, max    int64
	hasBounds   bool
	positive    bool
	auto        bool
}

// Integer declares an INTEGER column.
func Integer(name string, opts ...Option) *IntegerField {
	return &IntegerField{base: newBase(name, opts), storageType: "INTEGER"}
}

// BigInteger declares a BIGINT column.
func BigInteger(name string, opts ...Option) *IntegerField {
	return &IntegerField{base: newBase(name, opts), storageType: "BIGINT"}
}

// SmallInteger declares a SMALLINT column bounded to ±32767.
func SmallInteger(name string, opts ...Option) *IntegerField {
	return &IntegerField{
		base:        newBase(name, opts),
		storageType: "SMALLINT",
		min:         -32768,
		max:         32767,
		hasBounds:   true,
	}
}

// PositiveInteger declares an INTEGER column rejecting negative values.
func PositiveInteger(name string, opts ...Option) *IntegerField {
	f := Integer(name, opts...)
	f.positive = true
	return f
}

// PositiveSmallInteger declares a SMALLINT column rejecting negative values.
func PositiveSmallInteger(name string, opts ...Option) *IntegerField {
	f := SmallInteger(name, opts...)
	f.positive = true
	return f
}

// Auto declares an auto-incrementing integer primary key. Schemas inject one
// named "id" when no primary key is declared.
func Auto(name string, opts ...Option) *IntegerField {
	f := Integer(name, append(opts, PrimaryKey())...)
	f.auto = true
	return f
}

// AutoIncrement reports whether the column is populated by the database.
func (f *IntegerField) AutoIncrement() bool { return f.auto }

func (f *IntegerField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	n, ok := intFrom(v)
	if !ok {
		return nil, newError(f.name, "%s must be an integer", f.name)
	}
	if f.hasBounds && (n < f.min || n > f.max) {
		return nil, newError(f.name, "%s must be between %d and %d", f.name, f.min, f.max)
	}
	if f.positive && n < 0 {
		return nil, newError(f.name, "%s must be positive", f.name)
	}
	if err := f.checkChoices(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (f *IntegerField) ToStorage(v any) (any, error) { return v, nil }

func (f *IntegerField) FromStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	n, ok := intFrom(v)
	if !ok {
		return nil, fmt.Errorf("%s: cannot load %T as integer", f.name, v)
	}
	return n, nil
}

func (f *IntegerField) StorageType() string { return f.storageType }

// FloatField stores double-precision numbers.
type FloatField struct {
	base
}

// Float declares a DOUBLE PRECISION column.
func Float(name string, opts ...Option) *FloatField {
	return &FloatField{base: newBase(name, opts)}
}

func (f *FloatField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	n, ok := floatFrom(v)
	if !ok {
		return nil, newError(f.name, "%s must be a number", f.name)
	}
	if err := f.checkChoices(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (f *FloatField) ToStorage(v any) (any, error) { return v, nil }

func (f *FloatField) FromStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	n, ok := floatFrom(v)
	if !ok {
		return nil, fmt.Errorf("%s: cannot load %T as float", f.name, v)
	}
	return n, nil
}

func (f *FloatField) StorageType() string { return "DOUBLE PRECISION" }

// DecimalField stores exact decimal numbers with a digit budget.
type DecimalField struct {
	base
	MaxDigits     int
	DecimalPlaces int
}

// Decimal declares a NUMERIC(maxDigits, decimalPlaces) column.
func Decimal(name string, maxDigits, decimalPlaces int, opts ...Option) *DecimalField {
	return &DecimalField{
		base:          newBase(name, opts),
		MaxDigits:     maxDigits,
		DecimalPlaces: decimalPlaces,
	}
}

func (f *DecimalField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	var d decimal.Decimal
	switch n := v.(type) {
	case decimal.Decimal:
		d = n
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return nil, newError(f.name, "%s must be a valid decimal number", f.name)
		}
		d = parsed
	case int:
		d = decimal.NewFromInt(int64(n))
	case int64:
		d = decimal.NewFromInt(n)
	case float64:
		d = decimal.NewFromFloat(n)
	case float32:
		d = decimal.NewFromFloat32(n)
	default:
		return nil, newError(f.name, "%s must be a valid decimal number", f.name)
	}
	digits := strings.Replace(strings.TrimPrefix(d.Abs().String(), "-"), ".", "", 1)
	if len(digits) > f.MaxDigits {
		return nil, newError(f.name, "%s cannot have more than %d digits", f.name, f.MaxDigits)
	}
	if err := f.checkChoices(d.String()); err != nil {
		return nil, err
	}
	return d, nil
}

// ToStorage serializes the decimal as a string; NUMERIC columns accept the
// text form on every supported backend.
func (f *DecimalField) ToStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	d, ok := v.(decimal.Decimal)
	if !ok {
		return nil, fmt.Errorf("%s: expected decimal.Decimal, got %T", f.name, v)
	}
	return d.String(), nil
}

func (f *DecimalField) FromStorage(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case string:
		return decimal.NewFromString(n)
	case []byte:
		return decimal.NewFromString(string(n))
	case float64:
		return decimal.NewFromFloat(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	}
	return nil, fmt.Errorf("%s: cannot load %T as decimal", f.name, v)
}

func (f *DecimalField) StorageType() string {
	return fmt.Sprintf("NUMERIC(%d,%d)", f.MaxDigits, f.DecimalPlaces)
}

// BooleanField stores true/false values.
type BooleanField struct {
	base
}

// Boolean declares a BOOLEAN column.
func Boolean(name string, opts ...Option) *BooleanField {
	return &BooleanField{base: newBase(name, opts)}
}

// NullBoolean declares a nullable BOOLEAN column.
func NullBoolean(name string, opts ...Option) *BooleanField {
	return Boolean(name, append(opts, Null())...)
}

func (f *BooleanField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(b) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		}
	}
	return nil, newError(f.name, "%s must be true or false", f.name)
}

func (f *BooleanField) ToStorage(v any) (any, error) { return v, nil }

func (f *BooleanField) FromStorage(v any) (any, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	}
	return nil, fmt.Errorf("%s: cannot load %T as boolean", f.name, v)
}

func (f *BooleanField) StorageType() string { return "BOOLEAN" }

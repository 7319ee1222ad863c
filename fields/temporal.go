package fields

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// sqlite stores time.Time parameters in its own text layout; postgres hands
// back time.Time directly, so these are only tried when a string comes back.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// DateField stores calendar dates without a time component.
type DateField struct {
	base
}

// Date declares a DATE column. String input parses as "2006-01-02".
func Date(name string, opts ...Option) *DateField {
	return &DateField{base: newBase(name, opts)}
}

func (f *DateField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	switch d := v.(type) {
	case time.Time:
		return truncateToDate(d), nil
	case string:
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, newError(f.name, "%s must be a valid date (YYYY-MM-DD)", f.name)
		}
		return t, nil
	}
	return nil, newError(f.name, "%s must be a date", f.name)
}

func (f *DateField) ToStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return v.(time.Time).Format(dateLayout), nil
}

func (f *DateField) FromStorage(v any) (any, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return truncateToDate(d), nil
	case string:
		return parseDateish(f.name, d)
	case []byte:
		return parseDateish(f.name, string(d))
	}
	return nil, fmt.Errorf("%s: cannot load %T as date", f.name, v)
}

func (f *DateField) StorageType() string { return "DATE" }

// DateTimeField stores instants. AutoNow updates the value on every save;
// AutoNowAdd populates it once at construction. The instant itself always
// comes from the model layer's clock, keeping the field pure.
type DateTimeField struct {
	base
	autoNow    bool
	autoNowAdd bool
}

// DateTime declares a TIMESTAMP column. String input parses as RFC 3339.
func DateTime(name string, opts ...Option) *DateTimeField {
	return &DateTimeField{base: newBase(name, opts)}
}

// AutoNow marks the field for refresh on every save.
func (f *DateTimeField) AutoNow() *DateTimeField {
	f.autoNow = true
	return f
}

// AutoNowAdd marks the field for population at first construction.
func (f *DateTimeField) AutoNowAdd() *DateTimeField {
	f.autoNowAdd = true
	return f
}

// IsAutoNow reports the auto_now flag.
func (f *DateTimeField) IsAutoNow() bool { return f.autoNow }

// IsAutoNowAdd reports the auto_now_add flag.
func (f *DateTimeField) IsAutoNowAdd() bool { return f.autoNowAdd }

func (f *DateTimeField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		s := strings.Replace(d, "Z", "+00:00", 1)
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, newError(f.name, "%s must be a valid datetime", f.name)
	}
	return nil, newError(f.name, "%s must be a datetime", f.name)
}

func (f *DateTimeField) ToStorage(v any) (any, error) { return v, nil }

func (f *DateTimeField) FromStorage(v any) (any, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return d, nil
	case string:
		return parseDatetimeish(f.name, d)
	case []byte:
		return parseDatetimeish(f.name, string(d))
	}
	return nil, fmt.Errorf("%s: cannot load %T as datetime", f.name, v)
}

func (f *DateTimeField) StorageType() string { return "TIMESTAMP" }

// TimeField stores clock times without a date component. The canonical value
// is a time.Time anchored at the zero date.
type TimeField struct {
	base
}

// Time declares a TIME column. String input parses as "15:04:05".
func Time(name string, opts ...Option) *TimeField {
	return &TimeField{base: newBase(name, opts)}
}

func (f *TimeField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	switch d := v.(type) {
	case time.Time:
		return time.Date(0, time.January, 1, d.Hour(), d.Minute(), d.Second(), 0, time.UTC), nil
	case string:
		t, err := time.Parse(timeLayout, d)
		if err != nil {
			return nil, newError(f.name, "%s must be a valid time (HH:MM:SS)", f.name)
		}
		return t, nil
	}
	return nil, newError(f.name, "%s must be a time", f.name)
}

func (f *TimeField) ToStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return v.(time.Time).Format(timeLayout), nil
}

func (f *TimeField) FromStorage(v any) (any, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return time.Date(0, time.January, 1, d.Hour(), d.Minute(), d.Second(), 0, time.UTC), nil
	case string:
		return f.Validate(d)
	case []byte:
		return f.Validate(string(d))
	}
	return nil, fmt.Errorf("%s: cannot load %T as time", f.name, v)
}

func (f *TimeField) StorageType() string { return "TIME" }

// DurationField stores elapsed time as nanoseconds in a BIGINT column.
type DurationField struct {
	base
}

// Duration declares a duration column. Numeric input coerces as seconds,
// string input parses with time.ParseDuration.
func Duration(name string, opts ...Option) *DurationField {
	return &DurationField{base: newBase(name, opts)}
}

func (f *DurationField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case int:
		return time.Duration(d) * time.Second, nil
	case int64:
		return time.Duration(d) * time.Second, nil
	case float64:
		return time.Duration(d * float64(time.Second)), nil
	case string:
		dur, err := time.ParseDuration(d)
		if err != nil {
			return nil, newError(f.name, "%s must be a valid duration", f.name)
		}
		return dur, nil
	}
	return nil, newError(f.name, "%s must be a duration", f.name)
}

func (f *DurationField) ToStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return int64(v.(time.Duration)), nil
}

func (f *DurationField) FromStorage(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	n, ok := intFrom(v)
	if !ok {
		return nil, fmt.Errorf("%s: cannot load %T as duration", f.name, v)
	}
	return time.Duration(n), nil
}

func (f *DurationField) StorageType() string { return "BIGINT" }

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDateish(name, s string) (any, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDate(t), nil
		}
	}
	return nil, fmt.Errorf("%s: cannot parse %q as date", name, s)
}

func parseDatetimeish(name, s string) (any, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%s: cannot parse %q as datetime", name, s)
}

package fields

import (
	"fmt"
	"regexp"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	urlPattern   = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)
	slugPattern  = regexp.MustCompile(`^[a-z0-9_-]+$`)
	ipv4Pattern  = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	ipv6Pattern  = regexp.MustCompile(`^([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$`)
)

// CharField stores bounded-length strings.
type CharField struct {
	base
	MaxLength int
}

// Char declares a VARCHAR(maxLength) column.
func Char(name string, maxLength int, opts ...Option) *CharField {
	return &CharField{base: newBase(name, opts), MaxLength: maxLength}
}

func (f *CharField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, newError(f.name, "%s must be a string", f.name)
	}
	if len(s) > f.MaxLength {
		return nil, newError(f.name, "%s cannot be longer than %d characters", f.name, f.MaxLength)
	}
	if err := f.checkChoices(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *CharField) ToStorage(v any) (any, error)   { return v, nil }
func (f *CharField) FromStorage(v any) (any, error) { return stringFromStorage(f.name, v) }

func (f *CharField) StorageType() string {
	return fmt.Sprintf("VARCHAR(%d)", f.MaxLength)
}

// TextField stores unbounded strings.
type TextField struct {
	base
}

// Text declares a TEXT column.
func Text(name string, opts ...Option) *TextField {
	return &TextField{base: newBase(name, opts)}
}

func (f *TextField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, newError(f.name, "%s must be a string", f.name)
	}
	if err := f.checkChoices(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *TextField) ToStorage(v any) (any, error)   { return v, nil }
func (f *TextField) FromStorage(v any) (any, error) { return stringFromStorage(f.name, v) }
func (f *TextField) StorageType() string            { return "TEXT" }

// EmailField is a CharField with email-format validation.
type EmailField struct {
	CharField
}

// Email declares an email column (max length 254).
func Email(name string, opts ...Option) *EmailField {
	return &EmailField{CharField{base: newBase(name, opts), MaxLength: 254}}
}

func (f *EmailField) Validate(v any) (any, error) {
	v, err := f.CharField.Validate(v)
	if err != nil || v == nil {
		return v, err
	}
	if !emailPattern.MatchString(v.(string)) {
		return nil, newError(f.name, "%s must be a valid email address", f.name)
	}
	return v, nil
}

// URLField is a CharField with URL-format validation.
type URLField struct {
	CharField
}

// URL declares a URL column (max length 200).
func URL(name string, opts ...Option) *URLField {
	return &URLField{CharField{base: newBase(name, opts), MaxLength: 200}}
}

func (f *URLField) Validate(v any) (any, error) {
	v, err := f.CharField.Validate(v)
	if err != nil || v == nil {
		return v, err
	}
	if !urlPattern.MatchString(v.(string)) {
		return nil, newError(f.name, "%s must be a valid URL", f.name)
	}
	return v, nil
}

// SlugField is a CharField restricted to URL-friendly characters.
type SlugField struct {
	CharField
}

// Slug declares a slug column (max length 50).
func Slug(name string, opts ...Option) *SlugField {
	return &SlugField{CharField{base: newBase(name, opts), MaxLength: 50}}
}

func (f *SlugField) Validate(v any) (any, error) {
	v, err := f.CharField.Validate(v)
	if err != nil || v == nil {
		return v, err
	}
	if !slugPattern.MatchString(v.(string)) {
		return nil, newError(f.name, "%s must contain only lowercase letters, numbers, hyphens, and underscores", f.name)
	}
	return v, nil
}

// IPAddressField stores dotted-quad IPv4 addresses.
type IPAddressField struct {
	base
}

// IPAddress declares an IPv4 address column.
func IPAddress(name string, opts ...Option) *IPAddressField {
	return &IPAddressField{base: newBase(name, opts)}
}

func (f *IPAddressField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, newError(f.name, "%s must be a string", f.name)
	}
	if !ipv4Pattern.MatchString(s) || !validOctets(s) {
		return nil, newError(f.name, "%s must be a valid IPv4 address", f.name)
	}
	return s, nil
}

func (f *IPAddressField) ToStorage(v any) (any, error)   { return v, nil }
func (f *IPAddressField) FromStorage(v any) (any, error) { return stringFromStorage(f.name, v) }
func (f *IPAddressField) StorageType() string            { return "VARCHAR(15)" }

// IPProtocol selects which address families a GenericIPAddressField accepts.
type IPProtocol string

const (
	IPv4 IPProtocol = "IPv4"
	IPv6 IPProtocol = "IPv6"
	Both IPProtocol = "both"
)

// GenericIPAddressField stores IPv4 or IPv6 addresses.
type GenericIPAddressField struct {
	base
	Protocol IPProtocol
}

// GenericIPAddress declares an IP address column for the given protocol.
func GenericIPAddress(name string, protocol IPProtocol, opts ...Option) *GenericIPAddressField {
	if protocol == "" {
		protocol = Both
	}
	return &GenericIPAddressField{base: newBase(name, opts), Protocol: protocol}
}

func (f *GenericIPAddressField) Validate(v any) (any, error) {
	if done, err := f.checkNull(v); done {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return nil, newError(f.name, "%s must be a string", f.name)
	}
	is4 := ipv4Pattern.MatchString(s) && validOctets(s)
	is6 := ipv6Pattern.MatchString(s)
	switch f.Protocol {
	case IPv4:
		if !is4 {
			return nil, newError(f.name, "%s must be a valid IPv4 address", f.name)
		}
	case IPv6:
		if !is6 {
			return nil, newError(f.name, "%s must be a valid IPv6 address", f.name)
		}
	default:
		if !is4 && !is6 {
			return nil, newError(f.name, "%s must be a valid IP address", f.name)
		}
	}
	return s, nil
}

func (f *GenericIPAddressField) ToStorage(v any) (any, error)   { return v, nil }
func (f *GenericIPAddressField) FromStorage(v any) (any, error) { return stringFromStorage(f.name, v) }
func (f *GenericIPAddressField) StorageType() string            { return "VARCHAR(45)" }

func validOctets(s string) bool {
	n := 0
	val := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			if val > 255 {
				return false
			}
			val = 0
			n++
			continue
		}
		val = val*10 + int(s[i]-'0')
	}
	return n == 4
}

func stringFromStorage(name string, v any) (any, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return nil, fmt.Errorf("%s: cannot load %T as string", name, v)
}

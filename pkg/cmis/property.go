package cmis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// PropertyType identifies the declared CMIS type of a property value.
type PropertyType string

const (
	PropertyString   PropertyType = "string"
	PropertyID       PropertyType = "id"
	PropertyInteger  PropertyType = "integer"
	PropertyDecimal  PropertyType = "decimal"
	PropertyBoolean  PropertyType = "boolean"
	PropertyDateTime PropertyType = "datetime"
	PropertyURI      PropertyType = "uri"
	PropertyHTML     PropertyType = "html"
)

// NormalizePropertyType maps a wire-level type tag onto a PropertyType.
// Servers spell the tag either bare ("string") or prefixed
// ("propertyString"); both are accepted. Unrecognized tags fall back to
// PropertyString so that unknown vendor types still surface their values.
func NormalizePropertyType(tag string) PropertyType {
	t := strings.TrimPrefix(tag, "property")
	t = strings.ToLower(t)
	switch PropertyType(t) {
	case PropertyString, PropertyID, PropertyInteger, PropertyDecimal,
		PropertyBoolean, PropertyDateTime, PropertyURI, PropertyHTML:
		return PropertyType(t)
	}
	return PropertyString
}

// Value is a typed CMIS property value: one coerced scalar, or an ordered
// list of coerced scalars for a multi-valued property. The zero Value
// reports absence from every accessor.
type Value struct {
	typ   PropertyType
	multi bool
	vals  []any
}

// NewValue coerces a raw JSON value into a Value. A raw JSON array produces
// a multi-valued Value with element-wise coercion in server order; anything
// else produces a single-valued Value. A nil raw value yields an empty
// Value of the given type.
func NewValue(raw any, t PropertyType) (Value, error) {
	if raw == nil {
		return Value{typ: t}, nil
	}
	if list, ok := raw.([]any); ok {
		vals := make([]any, 0, len(list))
		for _, item := range list {
			v, err := CoerceValue(item, t)
			if err != nil {
				return Value{}, err
			}
			vals = append(vals, v)
		}
		return Value{typ: t, multi: true, vals: vals}, nil
	}
	v, err := CoerceValue(raw, t)
	if err != nil {
		return Value{}, err
	}
	return Value{typ: t, vals: []any{v}}, nil
}

// Type returns the declared CMIS property type.
func (v Value) Type() PropertyType { return v.typ }

// IsMulti reports whether the raw property was a sequence.
func (v Value) IsMulti() bool { return v.multi }

// IsNil reports whether the property carried no value.
func (v Value) IsNil() bool { return len(v.vals) == 0 }

// Len returns the number of scalar values.
func (v Value) Len() int { return len(v.vals) }

// All returns the ordered coerced scalars. Single-valued properties return
// a one-element slice.
func (v Value) All() []any {
	out := make([]any, len(v.vals))
	copy(out, v.vals)
	return out
}

// Raw returns the first coerced scalar, or nil when the value is absent.
func (v Value) Raw() any {
	if len(v.vals) == 0 {
		return nil
	}
	return v.vals[0]
}

// String returns the value as a string when its type coerced to one.
func (v Value) String() (string, bool) {
	s, ok := v.Raw().(string)
	return s, ok
}

// ID returns the value as a CMIS identifier string.
func (v Value) ID() (string, bool) {
	return v.String()
}

// Int returns the value as an int64.
func (v Value) Int() (int64, bool) {
	n, ok := v.Raw().(int64)
	return n, ok
}

// Float returns the value as a float64.
func (v Value) Float() (float64, bool) {
	f, ok := v.Raw().(float64)
	return f, ok
}

// Bool returns the value as a bool.
func (v Value) Bool() (bool, bool) {
	b, ok := v.Raw().(bool)
	return b, ok
}

// Time returns the value as a time.Time.
func (v Value) Time() (time.Time, bool) {
	t, ok := v.Raw().(time.Time)
	return t, ok
}

// CoerceValue maps a raw JSON scalar and a declared property type to a
// typed Go value: string for string/id/uri/html, int64 for integer,
// float64 for decimal, bool for boolean, and time.Time for datetime. It is
// a pure function with no repository context.
func CoerceValue(raw any, t PropertyType) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch t {
	case PropertyString, PropertyID, PropertyURI, PropertyHTML:
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", raw), nil

	case PropertyInteger:
		switch n := raw.(type) {
		case float64:
			return int64(n), nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case string:
			i, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("coercing %q to integer: %w", n, err)
			}
			return i, nil
		}
		return nil, fmt.Errorf("cannot coerce %T to integer", raw)

	case PropertyDecimal:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("coercing %q to decimal: %w", n, err)
			}
			return f, nil
		}
		return nil, fmt.Errorf("cannot coerce %T to decimal", raw)

	case PropertyBoolean:
		switch b := raw.(type) {
		case bool:
			return b, nil
		case string:
			v, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("coercing %q to boolean: %w", b, err)
			}
			return v, nil
		}
		return nil, fmt.Errorf("cannot coerce %T to boolean", raw)

	case PropertyDateTime:
		return coerceDateTime(raw)
	}
	return nil, fmt.Errorf("unknown property type %q", t)
}

// parseProperties turns a raw "properties" member, property id mapped to a
// {id, type, value} descriptor, into typed Values. Entries without an id
// fall back to their map key.
func parseProperties(raw map[string]any) (map[string]Value, error) {
	props := make(map[string]Value, len(raw))
	for key, entry := range raw {
		desc, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, _ := desc["id"].(string)
		if id == "" {
			id = key
		}
		typeTag, _ := desc["type"].(string)
		value, err := NewValue(desc["value"], NormalizePropertyType(typeTag))
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", id, err)
		}
		props[id] = value
	}
	return props, nil
}

// coerceDateTime handles the two datetime spellings seen on the wire: the
// browser binding's epoch milliseconds, and ISO-8601 strings from servers
// that emit them anyway. Vendor-specific string formats go
// through dateparse as a last resort.
func coerceDateTime(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	case int64:
		return time.UnixMilli(v).UTC(), nil
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, nil
		}
		t, err := dateparse.ParseAny(v)
		if err != nil {
			return nil, fmt.Errorf("coercing %q to datetime: %w", v, err)
		}
		return t, nil
	case time.Time:
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to datetime", raw)
}

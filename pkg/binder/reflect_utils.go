package binder

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// taggedField is a settable struct field and the request key it reads from.
type taggedField struct {
	name  string
	key   string
	typ   reflect.Type
	value reflect.Value
}

// taggedFields returns the exported fields of the struct v points to that
// carry tag. Fields tagged "-" are skipped. Options after a comma are ignored.
func taggedFields(v any, tag string) ([]taggedField, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("target must be a non-nil pointer to struct, got %T", v)
	}
	rv = rv.Elem()
	rt := rv.Type()

	fields := make([]taggedField, 0, rt.NumField())
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		key, _, _ := strings.Cut(sf.Tag.Get(tag), ",")
		if key == "" || key == "-" {
			continue
		}
		fields = append(fields, taggedField{name: sf.Name, key: key, typ: sf.Type, value: rv.Field(i)})
	}
	return fields, nil
}

// bindToStruct fills the fields tagged with tag from values. Missing keys
// leave the field untouched.
func bindToStruct(v any, tag string, values map[string][]string, bindErr error) error {
	fields, err := taggedFields(v, tag)
	if err != nil {
		return fmt.Errorf("%w: %v", bindErr, err)
	}
	for _, f := range fields {
		vals := values[f.key]
		if len(vals) == 0 {
			continue
		}
		if err := setValue(f.value, f.typ, vals); err != nil {
			return fmt.Errorf("%w: field %s: %v", bindErr, f.name, err)
		}
	}
	return nil
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// setValue parses vals into field. Scalars take the first value; slices take
// every value, splitting comma-separated lists.
func setValue(field reflect.Value, typ reflect.Type, vals []string) error {
	if typ.Kind() == reflect.Pointer {
		if field.IsNil() {
			field.Set(reflect.New(typ.Elem()))
		}
		return setValue(field.Elem(), typ.Elem(), vals)
	}

	if reflect.PointerTo(typ).Implements(textUnmarshalerType) {
		raw := vals[0]
		if err := field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
			return fmt.Errorf("invalid %s value %q", typ, raw)
		}
		return nil
	}

	if typ.Kind() == reflect.Slice {
		var items []string
		for _, v := range vals {
			for item := range strings.SplitSeq(v, ",") {
				items = append(items, strings.TrimSpace(item))
			}
		}
		slice := reflect.MakeSlice(typ, len(items), len(items))
		for i, item := range items {
			if err := setValue(slice.Index(i), typ.Elem(), []string{item}); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	raw := vals[0]
	switch typ.Kind() {
	case reflect.String:
		field.SetString(sanitizeStringValue(raw))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, typ.Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, typ.Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer %q", raw)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, typ.Bits())
		if err != nil {
			return fmt.Errorf("invalid number %q", raw)
		}
		field.SetFloat(n)
	case reflect.Bool:
		if strings.EqualFold(raw, "on") {
			field.SetBool(true)
			return nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", raw)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", typ)
	}
	return nil
}

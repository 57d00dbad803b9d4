package yaml

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// Unmarshaler is implemented by types that decode themselves from a
// constructed value: a map[string]any, []any, string, int64 and so on.
type Unmarshaler interface {
	UnmarshalYAML(value any) error
}

var (
	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
	timeType        = reflect.TypeOf(time.Time{})
)

// Decode assigns a value produced by Load into the Go value out points to.
// Mapping keys match struct fields by their yaml tag name or, without a tag,
// the lowercased field name; unknown keys are ignored.
func Decode(value any, out any) error {
	rv := reflect.ValueOf(out)
	if !rv.IsValid() || out == nil {
		return errors.New("yaml: Decode(nil)")
	}
	if rv.Kind() != reflect.Ptr {
		return errors.New("yaml: Decode(non-pointer " + rv.Type().String() + ")")
	}
	if rv.IsNil() {
		return errors.New("yaml: Decode(nil " + rv.Type().String() + ")")
	}
	return decodeValue(value, rv.Elem(), "")
}

func decodeErr(path string, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if path != "" {
		msg = fmt.Sprintf("%s: %s", path, msg)
	}
	return &ConstructError{Kind: TypeMismatch, Message: msg}
}

func decodeValue(val any, rv reflect.Value, path string) error {
	if rv.CanAddr() && rv.Addr().Type().Implements(unmarshalerType) {
		return rv.Addr().Interface().(Unmarshaler).UnmarshalYAML(val)
	}

	if val == nil {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}

	if vt := reflect.TypeOf(val); vt == rv.Type() && rv.Kind() != reflect.Map && rv.Kind() != reflect.Slice {
		rv.Set(reflect.ValueOf(val))
		return nil
	}

	// Handle pointers
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return decodeValue(val, rv.Elem(), path)
	}

	if rv.Kind() == reflect.Interface {
		if rv.NumMethod() == 0 || reflect.TypeOf(val).Implements(rv.Type()) {
			rv.Set(reflect.ValueOf(val))
			return nil
		}
		return decodeErr(path, "cannot decode %T into %s", val, rv.Type())
	}

	if rv.Type() == timeType {
		switch v := val.(type) {
		case time.Time:
			rv.Set(reflect.ValueOf(v))
			return nil
		case string:
			if t, ok := parseTimestamp(v); ok {
				rv.Set(reflect.ValueOf(t))
				return nil
			}
		}
		return decodeErr(path, "cannot decode %T into time.Time", val)
	}

	switch rv.Kind() {
	case reflect.Struct:
		return decodeStruct(val, rv, path)
	case reflect.Map:
		return decodeMap(val, rv, path)
	case reflect.Slice:
		if b, ok := val.([]byte); ok && rv.Type().Elem().Kind() == reflect.Uint8 {
			rv.SetBytes(append([]byte(nil), b...))
			return nil
		}
		return decodeSlice(val, rv, path)
	case reflect.Array:
		return decodeArray(val, rv, path)
	}
	return setScalarValue(val, rv, path)
}

// setScalarValue assigns a constructed scalar to rv with range checks.
func setScalarValue(val any, rv reflect.Value, path string) error {
	switch rv.Kind() {
	case reflect.String:
		if s, ok := val.(string); ok {
			rv.SetString(s)
			return nil
		}
		return decodeErr(path, "cannot decode %T into %s", val, rv.Type())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := val.(type) {
		case int64:
			if rv.OverflowInt(v) {
				return decodeErr(path, "value %d overflows %s", v, rv.Type())
			}
			rv.SetInt(v)
			return nil
		case uint64:
			return decodeErr(path, "value %d overflows %s", v, rv.Type())
		case float64:
			if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 || rv.OverflowInt(int64(v)) {
				return decodeErr(path, "value %v does not fit %s", v, rv.Type())
			}
			rv.SetInt(int64(v))
			return nil
		}
		return decodeErr(path, "cannot decode %T into %s", val, rv.Type())

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		switch v := val.(type) {
		case int64:
			if v < 0 || rv.OverflowUint(uint64(v)) {
				return decodeErr(path, "value %d overflows %s", v, rv.Type())
			}
			rv.SetUint(uint64(v))
			return nil
		case uint64:
			if rv.OverflowUint(v) {
				return decodeErr(path, "value %d overflows %s", v, rv.Type())
			}
			rv.SetUint(v)
			return nil
		case float64:
			if v != math.Trunc(v) || v < 0 || v >= math.MaxUint64 || rv.OverflowUint(uint64(v)) {
				return decodeErr(path, "value %v does not fit %s", v, rv.Type())
			}
			rv.SetUint(uint64(v))
			return nil
		}
		return decodeErr(path, "cannot decode %T into %s", val, rv.Type())

	case reflect.Float32, reflect.Float64:
		switch v := val.(type) {
		case float64:
			if rv.OverflowFloat(v) && !math.IsInf(v, 0) {
				return decodeErr(path, "value %v overflows %s", v, rv.Type())
			}
			rv.SetFloat(v)
			return nil
		case int64:
			rv.SetFloat(float64(v))
			return nil
		case uint64:
			rv.SetFloat(float64(v))
			return nil
		}
		return decodeErr(path, "cannot decode %T into %s", val, rv.Type())

	case reflect.Bool:
		if b, ok := val.(bool); ok {
			rv.SetBool(b)
			return nil
		}
		return decodeErr(path, "cannot decode %T into bool", val)
	}
	return decodeErr(path, "cannot decode into %s", rv.Type())
}

// mapEntries lists the pairs of any constructed mapping value. Go maps are
// visited in sorted key order so errors are reported deterministically.
func mapEntries(val any) (MapSlice, bool) {
	switch m := val.(type) {
	case MapSlice:
		return m, true
	case map[string]any:
		items := make(MapSlice, 0, len(m))
		for _, k := range sortedKeys(m) {
			items = append(items, MapItem{Key: k, Value: m[k]})
		}
		return items, true
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	items := make(MapSlice, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		items = append(items, MapItem{Key: iter.Key().Interface(), Value: iter.Value().Interface()})
	}
	sortItems(items)
	return items, true
}

func decodeStruct(val any, rv reflect.Value, path string) error {
	items, ok := mapEntries(val)
	if !ok {
		return decodeErr(path, "cannot decode %T into %s", val, rv.Type())
	}
	fields, err := cachedFields(rv.Type())
	if err != nil {
		return err
	}
	for _, item := range items {
		key, ok := item.Key.(string)
		if !ok {
			continue
		}
		f, ok := fields.byName[key]
		if !ok {
			f, ok = fields.byName[strings.ToLower(key)]
		}
		if !ok {
			continue
		}
		fv, _ := fieldByIndex(rv, f.index, true)
		if err := decodeValue(item.Value, fv, joinPath(path, key)); err != nil {
			return err
		}
	}
	return nil
}

func decodeMap(val any, rv reflect.Value, path string) error {
	items, ok := mapEntries(val)
	if !ok {
		return decodeErr(path, "cannot decode %T into %s", val, rv.Type())
	}
	t := rv.Type()
	if rv.IsNil() {
		rv.Set(reflect.MakeMapWithSize(t, len(items)))
	}
	for _, item := range items {
		k := reflect.New(t.Key()).Elem()
		keyPath := joinPath(path, fmt.Sprint(item.Key))
		if err := decodeValue(item.Key, k, keyPath); err != nil {
			return err
		}
		v := reflect.New(t.Elem()).Elem()
		if _, isSet := val.(Set); !isSet {
			if err := decodeValue(item.Value, v, keyPath); err != nil {
				return err
			}
		} else if t.Elem().Kind() == reflect.Bool {
			v.SetBool(true)
		}
		rv.SetMapIndex(k, v)
	}
	return nil
}

func decodeSlice(val any, rv reflect.Value, path string) error {
	items, ok := val.([]any)
	if !ok {
		return decodeErr(path, "cannot decode %T into %s", val, rv.Type())
	}
	slice := reflect.MakeSlice(rv.Type(), len(items), len(items))
	for i, item := range items {
		if err := decodeValue(item, slice.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	rv.Set(slice)
	return nil
}

func decodeArray(val any, rv reflect.Value, path string) error {
	items, ok := val.([]any)
	if !ok {
		return decodeErr(path, "cannot decode %T into %s", val, rv.Type())
	}
	if len(items) > rv.Len() {
		return decodeErr(path, "%d items do not fit %s", len(items), rv.Type())
	}
	for i, item := range items {
		if err := decodeValue(item, rv.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

package yaml

import (
	"fmt"
	"reflect"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// fieldInfo contains information about a struct field for representing and decoding
type fieldInfo struct {
	name      string
	index     []int // path through inlined structs
	omitEmpty bool
	flow      bool
}

// structFields is the ordered field list of a struct type.
type structFields struct {
	list   []fieldInfo
	byName map[string]*fieldInfo
}

const fieldCacheSize = 1024

// fieldCache holds parsed struct metadata. It is bounded so a program that
// represents many generated types does not grow it without limit.
var fieldCache = mustNewCache(fieldCacheSize)

func mustNewCache(size int) *lru.Cache[reflect.Type, *structFields] {
	c, err := lru.New[reflect.Type, *structFields](size)
	if err != nil {
		panic("yaml: field cache: " + err.Error())
	}
	return c
}

// cachedFields returns the fields of struct type t in declaration order.
func cachedFields(t reflect.Type) (*structFields, error) {
	if sf, ok := fieldCache.Get(t); ok {
		return sf, nil
	}
	sf, err := buildFields(t, nil, map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}
	fieldCache.Add(t, sf)
	return sf, nil
}

func buildFields(t reflect.Type, prefix []int, seen map[reflect.Type]bool) (*structFields, error) {
	if seen[t] {
		return nil, fmt.Errorf("yaml: struct %v inlines itself", t)
	}
	seen[t] = true
	defer delete(seen, t)

	sf := &structFields{byName: make(map[string]*fieldInfo)}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" && !field.Anonymous { // unexported
			continue
		}

		info, opts := getFieldInfo(field)
		if info.name == "-" && opts == "" {
			continue
		}
		info.index = append(append([]int(nil), prefix...), i)

		if strings.Contains(opts, "inline") {
			ft := field.Type
			if ft.Kind() != reflect.Struct {
				return nil, fmt.Errorf("yaml: inline field %s of %v must be a struct", field.Name, t)
			}
			inner, err := buildFields(ft, info.index, seen)
			if err != nil {
				return nil, err
			}
			for _, f := range inner.list {
				if _, dup := sf.byName[f.name]; dup {
					return nil, fmt.Errorf("yaml: duplicate field %q in %v", f.name, t)
				}
				sf.list = append(sf.list, f)
				sf.byName[f.name] = &sf.list[len(sf.list)-1]
			}
			continue
		}
		if field.PkgPath != "" {
			continue
		}

		if _, dup := sf.byName[info.name]; dup {
			return nil, fmt.Errorf("yaml: duplicate field %q in %v", info.name, t)
		}
		sf.list = append(sf.list, info)
		sf.byName[info.name] = &sf.list[len(sf.list)-1]
	}

	// byName points into list, which may have been reallocated while growing
	for i := range sf.list {
		sf.byName[sf.list[i].name] = &sf.list[i]
	}
	return sf, nil
}

// getFieldInfo extracts field information from a struct field tag. The
// second result holds the raw option list after the name.
func getFieldInfo(field reflect.StructField) (fieldInfo, string) {
	tag := field.Tag.Get("yaml")

	// No tag - use lowercase field name (YAML convention)
	if tag == "" {
		return fieldInfo{name: strings.ToLower(field.Name)}, ""
	}

	name, opts, _ := strings.Cut(tag, ",")

	// Check for "-" (skip field)
	if name == "-" {
		return fieldInfo{name: "-"}, opts
	}

	// Use field name if tag name is empty
	if name == "" {
		name = strings.ToLower(field.Name)
	}

	info := fieldInfo{name: name}
	for _, opt := range strings.Split(opts, ",") {
		switch opt {
		case "omitempty":
			info.omitEmpty = true
		case "flow":
			info.flow = true
		}
	}
	return info, opts
}

// isEmptyValue checks if a reflect.Value is considered empty
func isEmptyValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return rv.IsNil()
	case reflect.Struct:
		return rv.IsZero()
	}
	return false
}

// fieldByIndex returns the field at path, allocating nil embedded pointers
// when alloc is set. ok is false when a nil pointer blocks the path.
func fieldByIndex(rv reflect.Value, index []int, alloc bool) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				if !alloc {
					return reflect.Value{}, false
				}
				rv.Set(reflect.New(rv.Type().Elem()))
			}
			rv = rv.Elem()
		}
		rv = rv.Field(x)
	}
	return rv, true
}

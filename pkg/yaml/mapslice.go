package yaml

// MapItem is one key/value pair of a MapSlice.
type MapItem struct {
	Key   any
	Value any
}

// MapSlice is a mapping that keeps its key order. Mappings construct to a
// MapSlice under WithOrderedMaps, and !!omap and !!pairs always do. Dumping a
// MapSlice writes its pairs in order.
type MapSlice []MapItem

// Get returns the value of the first item whose key equals key.
func (m MapSlice) Get(key any) (any, bool) {
	for _, item := range m {
		if item.Key == key {
			return item.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (m MapSlice) Keys() []any {
	keys := make([]any, len(m))
	for i, item := range m {
		keys[i] = item.Key
	}
	return keys
}

// Set is the value of a !!set node: the keys of a mapping whose values are
// all null.
type Set map[any]struct{}

// Has reports whether v is in the set.
func (s Set) Has(v any) bool {
	_, ok := s[v]
	return ok
}

package yaml

// Marshal returns the YAML encoding of v.
//
// Marshal is Dump at Unrestricted trust, so MarshalYAML methods run and
// values of types registered with RegisterType are tagged !go/struct:Name.
// Use Dump with Restricted for values that come from untrusted code.
//
// Struct values encode as YAML mappings. Each exported struct field becomes
// a key-value pair, using the field name as the key, unless the field is
// omitted for one of the reasons given below.
//
// The encoding of each struct field can be customized by the format string
// stored under the "yaml" key in the struct field's tag. The format string
// gives the name of the field, possibly followed by a comma-separated list
// of options. The name may be empty in order to specify options without
// overriding the default field name.
//
// The "omitempty" option specifies that the field should be omitted from the
// encoding if the field has an empty value, defined as false, 0, a nil pointer,
// a nil interface value, and any empty array, slice, map, or string.
//
// The "flow" option writes the field's collection in flow style.
//
// The "inline" option merges the fields of an embedded struct into the outer
// mapping.
//
// As a special case, if the field tag is "-", the field is always omitted.
//
// Channel, complex, and function values cannot be encoded in YAML.
// Attempting to encode such a value causes Marshal to return a
// *RepresentError.
//
// Example:
//
//	type Config struct {
//	    Name string
//	    Port int
//	}
//	cfg := Config{Name: "server", Port: 8080}
//	data, err := yaml.Marshal(cfg)
//	// data is []byte("name: server\nport: 8080\n")
func Marshal(v any, opts ...Option) ([]byte, error) {
	out, err := Dump(v, Unrestricted, opts...)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Unmarshal loads a single document at Restricted trust and decodes it into
// the value out points to. See Decode for the assignment rules.
//
// Example:
//
//	var cfg struct {
//	    Name string
//	    Port int
//	}
//	err := yaml.Unmarshal([]byte("name: server\nport: 8080\n"), &cfg)
func Unmarshal(data []byte, out any, opts ...Option) error {
	v, err := Load(string(data), Restricted, opts...)
	if err != nil {
		return err
	}
	return Decode(v, out)
}

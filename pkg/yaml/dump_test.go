package yaml

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yamlv3 "gopkg.in/yaml.v3"
)

type dumpConfig struct {
	Name   string   `yaml:"name"`
	Port   int
	Hosts  []string `yaml:"hosts,omitempty"`
	Labels map[string]string
	Secret string `yaml:"-"`
}

func TestDump_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "null\n"},
		{"bool", true, "true\n"},
		{"int", int64(-5), "-5\n"},
		{"uint", uint8(200), "200\n"},
		{"integral float", 1.0, "1.0\n"},
		{"float", 0.25, "0.25\n"},
		{"large float", 1e21, "1e+21\n"},
		{"infinity", math.Inf(1), ".inf\n"},
		{"nan", math.NaN(), ".nan\n"},
		{"plain string", "hello world", "hello world\n"},
		{"empty string", "", "''\n"},
		{"numeric string", "123", "'123'\n"},
		{"bool-like string", "yes", "'yes'\n"},
		{"null-like string", "~", "'~'\n"},
		{"merge-like string", "<<", "'<<'\n"},
		{"indicator", "- x", "'- x'\n"},
		{"colon space", "a: b", "'a: b'\n"},
		{"comment", "x #y", "'x #y'\n"},
		{"inner quote", "it's", "it's\n"},
		{"leading quote", "'q'", "'''q'''\n"},
		{"control character", "\x01", "\"\\x01\"\n"},
		{"line separator", "a\u2028b", "\"a\\Lb\"\n"},
		{"binary", []byte("hello"), "!!binary aGVsbG8=\n"},
		{"invalid utf-8", "\xff", "!!binary /w==\n"},
		{"timestamp", time.Date(2001, 12, 14, 21, 59, 43, 0, time.UTC), "!!timestamp 2001-12-14T21:59:43Z\n"},
		{"multi-line", "line1\nline2\n", "|\n  line1\n  line2\n"},
		{"marker text", "--- x", "--- '--- x'\n"},
		{"directive text", "%x", "--- '%x'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Dump(tt.value, Restricted)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDump_Collections(t *testing.T) {
	tests := []struct {
		name  string
		value any
		opts  []Option
		want  string
	}{
		{
			name:  "leaf collections in flow",
			value: map[string]any{"a": 1, "b": []int{2, 3}},
			want:  "a: 1\nb: [2, 3]\n",
		},
		{
			name:  "nested mappings",
			value: map[string]any{"a": map[string]any{"b": map[string]int{"c": 1}}},
			want:  "a:\n  b: {c: 1}\n",
		},
		{
			name:  "root sequence of mappings",
			value: []map[string]int{{"a": 1, "b": 2}},
			want:  "- {a: 1, b: 2}\n",
		},
		{
			name:  "block only",
			value: []map[string]int{{"a": 1, "b": 2}},
			opts:  []Option{WithFlowStyle(FlowNever)},
			want:  "- a: 1\n  b: 2\n",
		},
		{
			name:  "nested sequences in block",
			value: [][]int{{1, 2}, {3}},
			opts:  []Option{WithFlowStyle(FlowNever)},
			want:  "- - 1\n  - 2\n- - 3\n",
		},
		{
			name:  "sequence under key in block",
			value: map[string][]int{"a": {1, 2}},
			opts:  []Option{WithFlowStyle(FlowNever)},
			want:  "a:\n  - 1\n  - 2\n",
		},
		{
			name:  "wider indent",
			value: map[string]any{"a": map[string]any{"b": map[string]int{"c": 1}}},
			opts:  []Option{WithFlowStyle(FlowNever), WithIndent(4)},
			want:  "a:\n    b:\n        c: 1\n",
		},
		{
			name:  "flow everywhere",
			value: map[string]any{"a": []int{1}, "b": map[string]int{"c": 2}},
			opts:  []Option{WithFlowStyle(FlowAlways)},
			want:  "{a: [1], b: {c: 2}}\n",
		},
		{
			name:  "empty collections",
			value: map[string]any{"m": map[string]int{}, "s": []int{}},
			opts:  []Option{WithFlowStyle(FlowNever)},
			want:  "m: {}\ns: []\n",
		},
		{
			name:  "numeric keys sort numerically",
			value: map[int]string{10: "x", 9: "y", 100: "z"},
			want:  "9: y\n10: x\n100: z\n",
		},
		{
			name:  "literal value",
			value: map[string]string{"s": "a\nb"},
			want:  "s: |-\n  a\n  b\n",
		},
		{
			name:  "ordered mapping keeps order",
			value: MapSlice{{Key: "z", Value: 1}, {Key: "a", Value: 2}},
			want:  "z: 1\na: 2\n",
		},
		{
			name:  "set",
			value: Set{"b": {}, "a": {}},
			want:  "!!set\n? a\n? b\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Dump(tt.value, Restricted, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDump_Struct(t *testing.T) {
	cfg := dumpConfig{Name: "srv", Port: 8080, Secret: "hunter2"}
	got, err := Dump(cfg, Restricted)
	require.NoError(t, err)
	assert.Equal(t, "name: srv\nport: 8080\nlabels: {}\n", got)

	cfg.Hosts = []string{"a", "b"}
	cfg.Labels = map[string]string{"env": "prod"}
	got, err = Dump(&cfg, Restricted)
	require.NoError(t, err)
	assert.Equal(t, "name: srv\nport: 8080\nhosts: [a, b]\nlabels: {env: prod}\n", got)

	var back dumpConfig
	require.NoError(t, Unmarshal([]byte(got), &back))
	cfg.Secret = ""
	assert.Equal(t, cfg, back)
}

func TestDump_Markers(t *testing.T) {
	got, err := Dump(map[string]int{"a": 1}, Restricted, WithExplicitStart(true), WithExplicitEnd(true))
	require.NoError(t, err)
	assert.Equal(t, "---\na: 1\n...\n", got)

	got, err = Dump("x", Restricted, WithExplicitStart(true))
	require.NoError(t, err)
	assert.Equal(t, "--- x\n", got)
}

func TestDumpStream(t *testing.T) {
	got, err := DumpStream([]any{map[string]int{"a": 1}, map[string]int{"b": 2}, "three"}, Restricted)
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n---\nb: 2\n--- three\n", got)

	values, err := LoadAll(got, Restricted)
	require.NoError(t, err)
	assert.Len(t, values, 3)
}

func TestDump_LineWidth(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 30))

	got, err := Dump(map[string]string{"text": text}, Restricted, WithLineWidth(40))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	assert.Greater(t, len(lines), 1, "long text should wrap")
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 40, "line %q", line)
	}
	back, err := Load(got, Restricted)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"text": text}, back)

	got, err = Dump(map[string]string{"text": text}, Restricted, WithLineWidth(0))
	require.NoError(t, err)
	assert.Equal(t, "text: "+text+"\n", got)
}

func TestDump_AllowUnicode(t *testing.T) {
	got, err := Dump("héllo 中 😀", Restricted)
	require.NoError(t, err)
	assert.Equal(t, "héllo 中 😀\n", got)

	got, err = Dump("héllo 中 😀", Restricted, WithAllowUnicode(false))
	require.NoError(t, err)
	assert.Equal(t, "\"h\\xE9llo \\u4E2D \\U0001F600\"\n", got)

	back, err := Load(got, Restricted)
	require.NoError(t, err)
	assert.Equal(t, "héllo 中 😀", back)
}

func TestDump_SharedReferences(t *testing.T) {
	shared := []int{1, 2}
	got, err := Dump(map[string]any{"x": shared, "y": shared}, Restricted)
	require.NoError(t, err)
	assert.Equal(t, "x: &id001 [1, 2]\ny: *id001\n", got)

	p := &point{X: 1, Y: 2}
	got, err = Dump([]any{p, p}, Restricted)
	require.NoError(t, err)
	assert.Equal(t, "- &id001 {x: 1, y: 2}\n- *id001\n", got)

	back, err := Load(got, Restricted)
	require.NoError(t, err)
	seq := back.([]any)
	assert.Equal(t, seq[0], seq[1])
}

type chain struct {
	Name string
	Next *chain
}

func TestDump_Cycles(t *testing.T) {
	c := &chain{Name: "a"}
	c.Next = c

	_, err := Dump(c, Restricted)
	var re *RepresentError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, CyclicValue, re.Kind)

	got, err := Dump(c, Restricted, WithCycles(true))
	require.NoError(t, err)
	assert.Equal(t, "&id001\nname: a\nnext: *id001\n", got)

	back, err := Load(got, Restricted, WithCycles(true))
	require.NoError(t, err)
	m := back.(map[string]any)
	assert.Equal(t, "a", m["name"])
	next := m["next"].(map[string]any)
	assert.Equal(t, "a", next["name"])
}

func TestDump_Unrepresentable(t *testing.T) {
	for _, v := range []any{make(chan int), func() {}, complex(1, 2), map[string]any{"f": func() {}}} {
		_, err := Dump(v, Unrestricted)
		var re *RepresentError
		require.ErrorAs(t, err, &re, "Dump(%T)", v)
		assert.Equal(t, UnrepresentableType, re.Kind)
	}
}

func TestDump_InvalidConfig(t *testing.T) {
	_, err := Dump(1, Restricted, WithIndent(0))
	assert.Error(t, err)

	_, err = Dump(1, Restricted, WithFlowStyle(FlowStyle(9)))
	assert.Error(t, err)

	assert.NoError(t, DefaultEmitterConfig().Validate())
}

// TestDump_RoundTrip dumps values under several configurations and checks
// that each output loads back to the same value.
func TestDump_RoundTrip(t *testing.T) {
	value := map[string]any{
		"strings": []any{
			"", " lead", "trail ", "null", "123", "1e3", "0o17", ".inf", "- x", "a: b",
			"#c", "x #y", "it's", "quote'n\"d", "---", "...", "%dir", "@at", "`tick",
			"{brace", "[brack", "key:", "?q", ":colon", "a,b", "\x01ctl", "a\u2028b",
			"tab\there", "héllo 中 😀", "0x_", "99999999999999999999", "multi\nline", "trailing\n\n", "\n\nleading blank",
			strings.TrimSpace(strings.Repeat("long words ", 20)),
		},
		"numbers": []any{int64(0), int64(-1), int64(math.MaxInt64), int64(math.MinInt64), uint64(1 << 63), uint64(math.MaxUint64), 0.5, -1e-7, 1e21, 3.0},
		"flags":   []any{true, false, nil},
		"nested": map[string]any{
			"deep":  map[string]any{"deeper": map[string]any{"deepest": []any{"x", map[string]any{"k": "v"}}}},
			"empty": map[string]any{},
			"list":  []any{},
		},
		"a: b":  "key needs quotes",
		"":      "empty key",
		"123":   "numeric key text",
		"true":  "bool key text",
		"x #y":  "comment key",
		"key,1": "comma key",
	}

	configs := map[string][]Option{
		"default":   nil,
		"block":     {WithFlowStyle(FlowNever)},
		"flow":      {WithFlowStyle(FlowAlways)},
		"indent 4":  {WithIndent(4)},
		"indent 1":  {WithIndent(1), WithFlowStyle(FlowNever)},
		"narrow":    {WithLineWidth(20)},
		"ascii":     {WithAllowUnicode(false)},
		"markers":   {WithExplicitStart(true), WithExplicitEnd(true)},
		"no wrap":   {WithLineWidth(0), WithFlowStyle(FlowAlways)},
		"sort keys": {WithSortKeys(true)},
	}

	for name, opts := range configs {
		t.Run(name, func(t *testing.T) {
			out, err := Dump(value, Restricted, opts...)
			require.NoError(t, err)

			back, err := Load(out, Restricted)
			require.NoError(t, err, "output:\n%s", out)
			if diff := cmp.Diff(value, back); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s\noutput:\n%s", diff, out)
			}

			again, err := Dump(back, Restricted, opts...)
			require.NoError(t, err)
			assert.Equal(t, out, again, "dumping the loaded value should be stable")
		})
	}
}

// TestDump_ReadableByYAMLv3 checks the output against gopkg.in/yaml.v3.
func TestDump_ReadableByYAMLv3(t *testing.T) {
	value := map[string]any{
		"name":    "app",
		"version": "1.0",
		"ports":   []any{int64(80), int64(443)},
		"ratio":   0.75,
		"enabled": true,
		"notes":   "first line\nsecond line\n",
		"quoted":  "a: b",
		"numeric": "0123",
		"owner":   map[string]any{"email": "ops@example.com", "tags": []any{"x", nil}},
	}

	for _, style := range []FlowStyle{FlowAuto, FlowNever, FlowAlways} {
		t.Run(style.String(), func(t *testing.T) {
			out, err := Dump(value, Restricted, WithFlowStyle(style))
			require.NoError(t, err)

			var got any
			require.NoError(t, yamlv3.Unmarshal([]byte(out), &got), "output:\n%s", out)
			if diff := cmp.Diff(value, normalizeV3(got)); diff != "" {
				t.Errorf("yaml.v3 read a different value (-want +got):\n%s\noutput:\n%s", diff, out)
			}
		})
	}
}

func TestSerialize_KeepsPresentation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"quoting styles", "a: 'quoted'\nb: [1, 2]\nc: \"dq\"\n", "a: 'quoted'\nb: [1, 2]\nc: \"dq\"\n"},
		{"literal", "s: |\n  x\n  y\n", "s: |\n  x\n  y\n"},
		{"folded becomes literal", "s: >\n  x\n  y\n", "s: |\n  x y\n"},
		{"anchors", "base: &b {x: 1}\nuse: *b\n", "base: &b {x: 1}\nuse: *b\n"},
		{"block leaf becomes flow", "a:\n  b: 1\n", "a: {b: 1}\n"},
		{"explicit str tag", "a: !!str 1\n", "a: '1'\n"},
		{"local tag", "a: !custom x\n", "a: !custom x\n"},
		{"tagged collection", "a: !!set {x: ~, y: ~}\n", "a: !!set {x: null, y: null}\n"},
		{"directives", "%YAML 1.2\n---\na: 1\n", "%YAML 1.2\n---\na: 1\n"},
		{"explicit markers", "---\na: 1\n...\n", "---\na: 1\n...\n"},
		{"empty document", "", "null\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input)
			require.NoError(t, err)
			got, err := Serialize([]*Document{doc})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := Parse(got)
			require.NoError(t, err)
			out, err := Serialize([]*Document{again})
			require.NoError(t, err)
			assert.Equal(t, got, out, "serializing twice should be stable")
		})
	}
}

func TestSerialize_SortKeys(t *testing.T) {
	doc, err := Parse("b: 1\na: 2\n10: x\n9: y\n")
	require.NoError(t, err)

	got, err := Serialize([]*Document{doc})
	require.NoError(t, err)
	assert.Equal(t, "b: 1\na: 2\n10: x\n9: y\n", got)

	got, err = Serialize([]*Document{doc}, WithSortKeys(true))
	require.NoError(t, err)
	assert.Equal(t, "9: y\n10: x\na: 2\nb: 1\n", got)
}

func TestSerialize_Stream(t *testing.T) {
	first, err := Parse("a: 1\n")
	require.NoError(t, err)
	second, err := Parse("%YAML 1.2\n---\nb: 2\n")
	require.NoError(t, err)

	got, err := Serialize([]*Document{first, second, nil})
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n...\n%YAML 1.2\n---\nb: 2\n--- null\n", got)

	docs, err := ParseStream(got)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestSerialize_BuiltGraph(t *testing.T) {
	shared := NewMapping(NewScalar("k"), NewScalar("v"))
	shared.Anchor = "s"
	root := NewSequence(shared, NewAlias(shared), NewScalar("123"))

	got, err := Serialize([]*Document{{Root: root}})
	require.NoError(t, err)
	assert.Equal(t, "- &s {k: v}\n- *s\n- 123\n", got)
}

func TestRepresent(t *testing.T) {
	doc, err := Represent(map[string]any{"a": []int{1}}, Restricted)
	require.NoError(t, err)
	require.Equal(t, MappingNode, doc.Root.Kind)
	assert.Equal(t, "!!map", doc.Root.ShortTag())
	assert.Equal(t, "!!seq", doc.Root.Content[1].ShortTag())

	got, err := Serialize([]*Document{doc})
	require.NoError(t, err)
	assert.Equal(t, "a: [1]\n", got)
}

func TestEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, Restricted)
	require.NoError(t, enc.Encode(map[string]int{"a": 1}))
	require.NoError(t, enc.Encode([]string{"x"}))
	require.NoError(t, enc.Close())
	assert.Equal(t, "a: 1\n---\n- x\n", buf.String())

	assert.ErrorIs(t, enc.Encode(1), errEncoderClosed)
	assert.NoError(t, enc.Close())

	bad := NewEncoder(&buf, Restricted, WithIndent(-1))
	assert.Error(t, bad.Encode(1))

	enc = NewEncoder(&buf, Restricted)
	assert.Error(t, enc.Encode(make(chan int)))
}

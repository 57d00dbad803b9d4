package yaml

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoadStream(t *testing.T) {
	s := LoadStream("---\nname: doc1\n---\nname: doc2\n---\n- 3\n", Restricted)
	assert.Equal(t, -1, s.Index())

	var got []any
	for s.Next() {
		require.NoError(t, s.Err())
		got = append(got, s.Value())
	}
	assert.Equal(t, []any{
		map[string]any{"name": "doc1"},
		map[string]any{"name": "doc2"},
		[]any{int64(3)},
	}, got)
	assert.Equal(t, 2, s.Index())
	assert.False(t, s.Next(), "Next after the end stays false")
}

func TestLoadStream_EmptyDocuments(t *testing.T) {
	values, err := LoadAll("---\n---\na: 1\n", Restricted)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, map[string]any{"a": int64(1)}}, values)

	values, err = LoadAll("", Restricted)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestLoadStream_RecoversAfterFailure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  func(error) bool
	}{
		{"syntax error", "--- 1\n--- [x\n--- 3\n", IsSyntaxError},
		{"undefined alias", "--- 1\n--- *nope\n--- 3\n", IsSyntaxError},
		{"unsafe tag", "--- 1\n--- !!python/object:os.system ls\n--- 3\n", IsSecurityError},
		{"duplicate key", "--- 1\n--- {a: 1, a: 2}\n--- 3\n", func(err error) bool {
			var ce *ConstructError
			return errors.As(err, &ce) && ce.Kind == DuplicateKey
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := LoadStream(tt.input, Restricted)

			require.True(t, s.Next())
			require.NoError(t, s.Err())
			assert.Equal(t, int64(1), s.Value())

			require.True(t, s.Next())
			var de *DocumentError
			require.ErrorAs(t, s.Err(), &de)
			assert.Equal(t, 1, de.Index)
			assert.True(t, tt.kind(s.Err()), "unexpected error kind: %v", s.Err())
			assert.Nil(t, s.Value())

			require.True(t, s.Next())
			require.NoError(t, s.Err())
			assert.Equal(t, int64(3), s.Value())

			assert.False(t, s.Next())
		})
	}
}

func TestLoadStream_AnchorsDoNotCarryOver(t *testing.T) {
	values, err := LoadAll("a: &x 1\n---\nb: *x\n", Restricted)
	assert.Equal(t, map[string]any{"a": int64(1)}, values[0])
	assert.Nil(t, values[1])

	errs := multierr.Errors(err)
	require.Len(t, errs, 1)
	var ce *ComposeError
	require.ErrorAs(t, errs[0], &ce)
	assert.Equal(t, UndefinedAlias, ce.Kind)
}

func TestLoadStreamReader(t *testing.T) {
	rest := strings.Repeat("- item\n", 20000)
	s := LoadStreamReader(strings.NewReader("a: 1\n---\n"+rest), Restricted)

	require.True(t, s.Next())
	require.NoError(t, s.Err())
	assert.Equal(t, map[string]any{"a": int64(1)}, s.Value())

	require.True(t, s.Next())
	require.NoError(t, s.Err())
	assert.Len(t, s.Value(), 20000)
	assert.False(t, s.Next())
}

func TestStream_All(t *testing.T) {
	var (
		values []any
		errs   []error
	)
	for v, err := range LoadStream("1\n--- *bad\n--- 3\n--- 4\n", Restricted).All() {
		values = append(values, v)
		errs = append(errs, err)
		if len(values) == 3 {
			break
		}
	}
	assert.Equal(t, []any{int64(1), nil, int64(3)}, values)
	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])
	assert.NoError(t, errs[2])
}

func TestLoadAll_CollectsEveryFailure(t *testing.T) {
	values, err := LoadAll("a: 1\n---\n!!bad x\n---\nc: 3\n--- [\n", Restricted)
	require.Len(t, values, 4)
	assert.Nil(t, values[1])
	assert.Equal(t, map[string]any{"c": int64(3)}, values[2])

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)

	var de *DocumentError
	require.ErrorAs(t, errs[0], &de)
	assert.Equal(t, 1, de.Index)
	assert.True(t, IsSecurityError(errs[0]))

	require.ErrorAs(t, errs[1], &de)
	assert.Equal(t, 3, de.Index)
	assert.True(t, IsSyntaxError(errs[1]))
}

func TestStream_ReportsToObserverAndLogger(t *testing.T) {
	obs := &recordingObserver{}
	var logs []string
	log := funcr.New(func(prefix, args string) {
		logs = append(logs, args)
	}, funcr.Options{Verbosity: 1})

	_, err := LoadAll("1\n--- !!python/object:x y\n--- 3\n", Restricted, WithObserver(obs), WithLogger(log))
	require.Error(t, err)

	require.Len(t, obs.docs, 3)
	assert.NoError(t, obs.docs[0])
	assert.True(t, IsSecurityError(obs.docs[1]))
	assert.NoError(t, obs.docs[2])
	assert.Len(t, obs.denied, 1)

	var failed int
	for _, l := range logs {
		if strings.Contains(l, `"msg"="document failed"`) {
			failed++
			assert.Contains(t, l, `"index"=1`)
		}
	}
	assert.Equal(t, 1, failed)
}

package yaml

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func TestValidate_ValidYAML(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "simple key-value",
			yaml: `host: localhost
port: 8080`,
		},
		{
			name: "with list",
			yaml: `items:
- apple
- banana
- cherry`,
		},
		{
			name: "with comments",
			yaml: `# Configuration file
host: localhost  # server host
port: 8080       # server port`,
		},
		{
			name: "empty",
			yaml: ``,
		},
		{
			name: "whitespace only",
			yaml: `

`,
		},
		{
			name: "anchors and merge keys",
			yaml: `base: &base
  a: 1
derived:
  <<: *base
  b: 2`,
		},
		{
			name: "unknown and unsafe tags",
			yaml: `a: !!python/object:os.system ls
b: !whatever x`,
		},
		{
			name: "several documents",
			yaml: `--- 1
--- [2]
...
%YAML 1.2
--- {three: 3}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.yaml); err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestValidate_InvalidYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unclosed flow sequence",
			yaml:    "a: [1, 2\n",
			wantErr: "line",
		},
		{
			name:    "undefined alias",
			yaml:    "a: *missing\n",
			wantErr: "missing",
		},
		{
			name:    "tab indentation",
			yaml:    "a:\n\tb: c\n",
			wantErr: "line 2",
		},
		{
			name:    "cyclic alias",
			yaml:    "a: &x [*x]\n",
			wantErr: "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.yaml)
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !IsSyntaxError(err) {
				t.Errorf("IsSyntaxError(%v) = false", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

// TestValidate_ReportsEveryDocument verifies that checking continues after an
// invalid document
func TestValidate_ReportsEveryDocument(t *testing.T) {
	err := Validate("--- [\n--- ok\n--- *nope\n--- fine\n")
	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("Validate() returned %d errors, want 2: %v", len(errs), err)
	}

	for i, want := range []int{0, 2} {
		var de *DocumentError
		if !errors.As(errs[i], &de) {
			t.Fatalf("error %d is %T, want *DocumentError", i, errs[i])
		}
		if de.Index != want {
			t.Errorf("error %d has index %d, want %d", i, de.Index, want)
		}
	}
}

func TestValidate_Cycles(t *testing.T) {
	if err := Validate("a: &x [*x]\n", WithCycles(true)); err != nil {
		t.Errorf("Validate() with cycles = %v, want nil", err)
	}
}

package yaml

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shapestone/safeyaml/internal/parser"
)

// Core tags.
const (
	nullTag      = parser.CoreTagPrefix + "null"
	boolTag      = parser.CoreTagPrefix + "bool"
	intTag       = parser.CoreTagPrefix + "int"
	floatTag     = parser.CoreTagPrefix + "float"
	strTag       = parser.CoreTagPrefix + "str"
	binaryTag    = parser.CoreTagPrefix + "binary"
	timestampTag = parser.CoreTagPrefix + "timestamp"
	seqTag       = parser.CoreTagPrefix + "seq"
	mapTag       = parser.CoreTagPrefix + "map"
	omapTag      = parser.CoreTagPrefix + "omap"
	pairsTag     = parser.CoreTagPrefix + "pairs"
	setTag       = parser.CoreTagPrefix + "set"
	mergeTag     = parser.CoreTagPrefix + "merge"
)

var (
	decimalPattern = regexp.MustCompile(`^[-+]?[0-9][0-9_]*$`)
	hexPattern     = regexp.MustCompile(`^[-+]?0x_*[0-9a-fA-F][0-9a-fA-F_]*$`)
	octalPattern   = regexp.MustCompile(`^[-+]?0o_*[0-7][0-7_]*$`)
	binaryPattern  = regexp.MustCompile(`^[-+]?0b_*[01][01_]*$`)
	floatPattern   = regexp.MustCompile(`^[-+]?(\.[0-9]+|[0-9][0-9_]*(\.[0-9_]*)?)([eE][-+]?[0-9]+)?$`)
)

// resolvePlain returns the tag a plain scalar resolves to without an explicit
// tag. The rules are tried in order: null, bool, int, float, merge; anything
// else is a string. An integer too large for 64 bits resolves as a float when
// it is decimal and as a string otherwise.
func resolvePlain(value string) string {
	switch {
	case isNull(value):
		return nullTag
	case isBool(value):
		return boolTag
	case isInt(value):
		if _, err := intValue(value); err == nil {
			return intTag
		}
		if decimalPattern.MatchString(value) {
			return floatTag
		}
	case isFloat(value):
		return floatTag
	case value == "<<":
		return mergeTag
	}
	return strTag
}

// resolvedTag returns the tag n constructs with: its explicit tag, or the
// implicitly resolved one. Quoted and block scalars are always strings, and
// the non-specific tag "!" forces the default tag for the node's kind.
func resolvedTag(n *Node) string {
	if n == nil {
		return nullTag
	}
	switch n.Kind {
	case AliasNode:
		if n.Alias == nil {
			return ""
		}
		return resolvedTag(n.Alias)
	case DocumentNode:
		if len(n.Content) == 0 {
			return nullTag
		}
		return resolvedTag(n.Content[0])
	}

	if n.Tag != "" && n.Tag != "!" {
		return n.Tag
	}
	switch n.Kind {
	case SequenceNode:
		return seqTag
	case MappingNode:
		return mapTag
	}
	if n.Tag == "!" {
		return strTag
	}
	switch n.Style {
	case StylePlain, StyleDefault:
		return resolvePlain(n.Value)
	}
	return strTag
}

func isNull(s string) bool {
	switch s {
	case "", "~", "null", "Null", "NULL":
		return true
	}
	return false
}

func isBool(s string) bool {
	_, ok := parseBool(s)
	return ok
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "true", "True", "TRUE", "yes", "Yes", "YES", "on", "On", "ON":
		return true, true
	case "false", "False", "FALSE", "no", "No", "NO", "off", "Off", "OFF":
		return false, true
	}
	return false, false
}

func isInt(s string) bool {
	return decimalPattern.MatchString(s) || hexPattern.MatchString(s) ||
		octalPattern.MatchString(s) || binaryPattern.MatchString(s)
}

func isFloat(s string) bool {
	if isSpecialFloat(s) {
		return true
	}
	return floatPattern.MatchString(s) && !decimalPattern.MatchString(s)
}

// isNumber reports whether s is written as a number of either kind.
func isNumber(s string) bool {
	return isInt(s) || isFloat(s)
}

func isSpecialFloat(s string) bool {
	_, ok := specialFloat(s)
	return ok
}

func specialFloat(s string) (float64, bool) {
	switch s {
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF":
		return math.Inf(1), true
	case "-.inf", "-.Inf", "-.INF":
		return math.Inf(-1), true
	case ".nan", ".NaN", ".NAN":
		return math.NaN(), true
	}
	return 0, false
}

// parseInt parses the integer grammar into an int64. It reports a range
// error for values that match the grammar but do not fit.
func parseInt(s string) (int64, error) {
	neg, u, err := parseMagnitude(s)
	if err != nil {
		return 0, err
	}
	if neg {
		if u > 1<<63 {
			return 0, strconv.ErrRange
		}
		return -int64(u), nil
	}
	if u > math.MaxInt64 {
		return 0, strconv.ErrRange
	}
	return int64(u), nil
}

// intValue parses the integer grammar into an int64, or into a uint64 for
// positive values above math.MaxInt64.
func intValue(s string) (any, error) {
	neg, u, err := parseMagnitude(s)
	if err != nil {
		return nil, err
	}
	if !neg && u > math.MaxInt64 {
		return u, nil
	}
	return parseInt(s)
}

func parseMagnitude(s string) (neg bool, u uint64, err error) {
	clean := strings.ReplaceAll(s, "_", "")
	switch {
	case strings.HasPrefix(clean, "-"):
		neg = true
		clean = clean[1:]
	case strings.HasPrefix(clean, "+"):
		clean = clean[1:]
	}

	base := 10
	switch {
	case strings.HasPrefix(clean, "0x"):
		base, clean = 16, clean[2:]
	case strings.HasPrefix(clean, "0o"):
		base, clean = 8, clean[2:]
	case strings.HasPrefix(clean, "0b"):
		base, clean = 2, clean[2:]
	}

	u, err = strconv.ParseUint(clean, base, 64)
	return neg, u, err
}

// parseFloat parses the float grammar, including .inf and .nan.
func parseFloat(s string) (float64, error) {
	if f, ok := specialFloat(s); ok {
		return f, nil
	}
	if isInt(s) && !decimalPattern.MatchString(s) {
		v, err := intValue(s)
		if err != nil {
			return 0, err
		}
		return toFloat(v), nil
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, "_", ""), 64)
}

func toFloat(v any) float64 {
	if u, ok := v.(uint64); ok {
		return float64(u)
	}
	return float64(v.(int64))
}

package predicate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Test reports whether a single field value satisfies a compiled expression.
type Test func(value string) bool

// CompileError identifies the field and expression that failed to compile.
type CompileError struct {
	Field string
	Expr  string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("field %q: expression %q: %v", e.Field, e.Expr, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

var (
	errEmptyExpr    = errors.New("empty expression")
	errMissingValue = errors.New("missing operand")
)

type operator struct {
	word  string
	build func(arg string) (Test, error)
}

// Longer symbols come first so "<=" is not read as "<".
var operators = []operator{
	{"==", compare(func(c int) bool { return c == 0 })},
	{"!=", compare(func(c int) bool { return c != 0 })},
	{"<=", compare(func(c int) bool { return c <= 0 })},
	{">=", compare(func(c int) bool { return c >= 0 })},
	{"!~", func(v string) (Test, error) {
		re, err := regexp.Compile(v)
		if err != nil {
			return nil, err
		}
		return func(s string) bool { return !re.MatchString(s) }, nil
	}},
	{"<", compare(func(c int) bool { return c < 0 })},
	{">", compare(func(c int) bool { return c > 0 })},
	{"~", func(v string) (Test, error) {
		re, err := regexp.Compile(v)
		if err != nil {
			return nil, err
		}
		return re.MatchString, nil
	}},
	{"contains", func(v string) (Test, error) { return func(s string) bool { return strings.Contains(s, v) }, nil }},
	{"prefix", func(v string) (Test, error) { return func(s string) bool { return strings.HasPrefix(s, v) }, nil }},
	{"suffix", func(v string) (Test, error) { return func(s string) bool { return strings.HasSuffix(s, v) }, nil }},
}

// Compile turns one expression into a Test.
func Compile(expr string) (Test, error) {
	text := strings.TrimSpace(expr)
	if text == "" {
		return nil, errEmptyExpr
	}

	if rest, ok := cutWord(text, "not"); ok {
		inner, err := Compile(rest)
		if err != nil {
			return nil, err
		}
		return func(s string) bool { return !inner(s) }, nil
	}

	switch text {
	case "empty":
		return func(s string) bool { return s == "" }, nil
	case "present":
		return func(s string) bool { return s != "" }, nil
	}

	for _, op := range operators {
		rest, ok := cutOperator(text, op.word)
		if !ok {
			continue
		}
		arg, err := operand(rest)
		if err != nil {
			return nil, err
		}
		return op.build(arg)
	}

	literal, err := operand(text)
	if err != nil {
		return nil, err
	}
	return func(s string) bool { return s == literal }, nil
}

// cutWord strips a leading keyword followed by whitespace.
func cutWord(text, word string) (string, bool) {
	if !strings.HasPrefix(text, word) || len(text) == len(word) {
		return "", false
	}
	next := text[len(word)]
	if next != ' ' && next != '\t' {
		return "", false
	}
	return strings.TrimSpace(text[len(word):]), true
}

// cutOperator strips a leading operator. Symbolic operators need no
// separating space; word operators do.
func cutOperator(text, op string) (string, bool) {
	if isWord(op) {
		return cutWord(text, op)
	}
	if !strings.HasPrefix(text, op) {
		return "", false
	}
	return strings.TrimSpace(text[len(op):]), true
}

func isWord(op string) bool {
	c := op[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// operand returns the argument text, unquoting a double-quoted string.
func operand(text string) (string, error) {
	if text == "" {
		return "", errMissingValue
	}
	if strings.HasPrefix(text, `"`) {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return "", fmt.Errorf("bad quoted operand: %w", err)
		}
		return unquoted, nil
	}
	return text, nil
}

func compare(ok func(int) bool) func(string) (Test, error) {
	return func(v string) (Test, error) {
		return func(s string) bool { return ok(compareValues(s, v)) }, nil
	}
}

// compareValues orders numerically when both sides are numbers.
func compareValues(a, b string) int {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

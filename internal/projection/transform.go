package projection

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/five82/jointail/internal/record"
)

// Transform rewrites one field value. It sees the field name and the whole
// record so stages such as label and field can reference them.
type Transform func(name, value string, rec record.Record) string

// TransformError identifies the field and expression that failed to compile.
type TransformError struct {
	Field string
	Expr  string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("field %q: transform %q: %v", e.Field, e.Expr, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

var errMissingArg = errors.New("missing argument")

type stage func(name, value string, rec record.Record) string

// CompileTransform builds a Transform from a pipeline expression. An empty
// expression yields nil.
func CompileTransform(expr string) (Transform, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}

	var stages []stage
	for _, part := range splitStages(expr) {
		st, err := compileStage(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
	}

	return func(name, value string, rec record.Record) string {
		for _, st := range stages {
			value = st(name, value, rec)
		}
		return value
	}, nil
}

func compileStage(text string) (stage, error) {
	if text == "" {
		return nil, errors.New("empty stage")
	}
	verb, rest := text, ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		verb, rest = text[:i], strings.TrimSpace(text[i+1:])
	}

	switch verb {
	case "upper":
		return func(_, v string, _ record.Record) string { return strings.ToUpper(v) }, nil
	case "lower":
		return func(_, v string, _ record.Record) string { return strings.ToLower(v) }, nil
	case "trim":
		return func(_, v string, _ record.Record) string { return strings.TrimSpace(v) }, nil
	case "basename":
		return func(_, v string, _ record.Record) string {
			if v == "" {
				return v
			}
			return path.Base(v)
		}, nil
	case "label":
		return func(name, v string, _ record.Record) string { return name + "=" + v }, nil
	}

	args, err := splitArgs(rest)
	if err != nil {
		return nil, err
	}

	switch verb {
	case "strip_prefix":
		arg, err := oneArg(args)
		if err != nil {
			return nil, err
		}
		return func(_, v string, _ record.Record) string { return strings.TrimPrefix(v, arg) }, nil
	case "strip_suffix":
		arg, err := oneArg(args)
		if err != nil {
			return nil, err
		}
		return func(_, v string, _ record.Record) string { return strings.TrimSuffix(v, arg) }, nil
	case "prepend":
		arg, err := oneArg(args)
		if err != nil {
			return nil, err
		}
		return func(_, v string, _ record.Record) string { return arg + v }, nil
	case "append":
		arg, err := oneArg(args)
		if err != nil {
			return nil, err
		}
		return func(_, v string, _ record.Record) string { return v + arg }, nil
	case "default":
		arg, err := oneArg(args)
		if err != nil {
			return nil, err
		}
		return func(_, v string, _ record.Record) string {
			if v == "" {
				return arg
			}
			return v
		}, nil
	case "field":
		arg, err := oneArg(args)
		if err != nil {
			return nil, err
		}
		return func(_, _ string, rec record.Record) string { return rec.Get(arg) }, nil
	case "replace":
		if len(args) != 2 {
			return nil, fmt.Errorf("replace takes 2 arguments, got %d", len(args))
		}
		re, err := regexp.Compile(args[0])
		if err != nil {
			return nil, err
		}
		repl := args[1]
		return func(_, v string, _ record.Record) string { return re.ReplaceAllString(v, repl) }, nil
	}

	return nil, fmt.Errorf("unknown stage %q", verb)
}

func oneArg(args []string) (string, error) {
	if len(args) != 1 {
		if len(args) == 0 {
			return "", errMissingArg
		}
		return "", fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	return args[0], nil
}

// splitArgs splits on whitespace, keeping double-quoted arguments intact.
func splitArgs(text string) ([]string, error) {
	var args []string
	for text != "" {
		text = strings.TrimLeft(text, " \t")
		if text == "" {
			break
		}
		if text[0] == '"' {
			end := closingQuote(text)
			if end < 0 {
				return nil, errors.New("unterminated quoted argument")
			}
			arg, err := strconv.Unquote(text[:end+1])
			if err != nil {
				return nil, fmt.Errorf("bad quoted argument: %w", err)
			}
			args = append(args, arg)
			text = text[end+1:]
			continue
		}
		end := strings.IndexAny(text, " \t")
		if end < 0 {
			args = append(args, text)
			break
		}
		args = append(args, text[:end])
		text = text[end+1:]
	}
	return args, nil
}

// splitStages splits a pipeline on '|' outside double-quoted arguments.
// An unterminated quote leaves the rest as one stage for splitArgs to reject.
func splitStages(expr string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '"':
			end := closingQuote(expr[i:])
			if end < 0 {
				return append(parts, expr[start:])
			}
			i += end
		case '|':
			parts = append(parts, expr[start:i])
			start = i + 1
		}
	}
	return append(parts, expr[start:])
}

func closingQuote(text string) int {
	for i := 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

package projection

import (
	"errors"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/five82/jointail/internal/record"
)

// ErrNoFields is returned when a record projects to no output columns. It
// indicates a configuration problem and is fatal to the caller.
var ErrNoFields = errors.New("no output fields configured")

// FieldSpec is one declared output column.
type FieldSpec struct {
	Name      string
	Transform string
	Width     int
}

// Column is a compiled FieldSpec.
type Column struct {
	Name      string
	Transform Transform
	Width     int
}

// Projector maps records onto ordered output columns.
type Projector struct {
	columns []Column
}

// New compiles every transform so bad expressions fail at startup.
func New(specs []FieldSpec) (*Projector, error) {
	columns := make([]Column, 0, len(specs))
	for _, spec := range specs {
		tf, err := CompileTransform(spec.Transform)
		if err != nil {
			return nil, &TransformError{Field: spec.Name, Expr: spec.Transform, Err: err}
		}
		columns = append(columns, Column{Name: spec.Name, Transform: tf, Width: spec.Width})
	}
	return &Projector{columns: columns}, nil
}

// Project returns the formatted column values for rec in declared order.
func (p *Projector) Project(rec record.Record) ([]string, error) {
	if p == nil || len(p.columns) == 0 {
		return nil, ErrNoFields
	}
	out := make([]string, 0, len(p.columns))
	for _, col := range p.columns {
		value := rec.Get(col.Name)
		if col.Transform != nil {
			value = col.Transform(col.Name, value, rec)
		}
		out = append(out, Pad(value, col.Width))
	}
	return out, nil
}

// Line projects rec into a tab separated, newline terminated line.
func (p *Projector) Line(rec record.Record) (string, error) {
	tokens, err := p.Project(rec)
	if err != nil {
		return "", err
	}
	return strings.Join(tokens, "\t") + "\n", nil
}

// Pad fits value into |width| cells. Positive widths right-justify, negative
// widths left-justify, zero leaves the value untouched.
func Pad(value string, width int) string {
	if width == 0 {
		return value
	}
	w := width
	if w < 0 {
		w = -w
	}
	if runewidth.StringWidth(value) > w {
		value = runewidth.Truncate(value, w, "")
	}
	if width > 0 {
		return runewidth.FillLeft(value, w)
	}
	return runewidth.FillRight(value, w)
}

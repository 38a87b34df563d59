package predicate

import (
	"github.com/five82/jointail/internal/record"
)

// Rule is the declared test list for one field, in configuration order.
type Rule struct {
	Field string
	Tests []string
}

type compiledRule struct {
	field string
	tests []Test
}

// RuleSet is an ordered, compiled group of per-field tests.
type RuleSet struct {
	rules []compiledRule
}

// CompileRules compiles every expression up front so malformed rules fail at
// startup with the offending field and expression.
func CompileRules(rules []Rule) (RuleSet, error) {
	var set RuleSet
	for _, r := range rules {
		cr := compiledRule{field: r.Field}
		for _, expr := range r.Tests {
			test, err := Compile(expr)
			if err != nil {
				return RuleSet{}, &CompileError{Field: r.Field, Expr: expr, Err: err}
			}
			cr.tests = append(cr.tests, test)
		}
		if len(cr.tests) > 0 {
			set.rules = append(set.rules, cr)
		}
	}
	return set, nil
}

// Empty reports whether the set holds no tests.
func (s RuleSet) Empty() bool {
	return len(s.rules) == 0
}

// Match returns true on the first test that passes, walking fields and then
// tests in declared order.
func (s RuleSet) Match(rec record.Record) bool {
	for _, r := range s.rules {
		value := rec.Get(r.field)
		for _, test := range r.tests {
			if test(value) {
				return true
			}
		}
	}
	return false
}

// Engine holds the include and exclude rule sets.
type Engine struct {
	include RuleSet
	exclude RuleSet
}

// New compiles both rule groups.
func New(include, exclude []Rule) (*Engine, error) {
	inc, err := CompileRules(include)
	if err != nil {
		return nil, err
	}
	exc, err := CompileRules(exclude)
	if err != nil {
		return nil, err
	}
	return &Engine{include: inc, exclude: exc}, nil
}

// Evaluate reports the include and exclude verdicts for rec. An empty include
// set includes everything; an empty exclude set excludes nothing.
func (e *Engine) Evaluate(rec record.Record) (included, excluded bool) {
	included = e.include.Empty() || e.include.Match(rec)
	excluded = !e.exclude.Empty() && e.exclude.Match(rec)
	return included, excluded
}

// Allow reports whether rec should continue downstream.
func (e *Engine) Allow(rec record.Record) bool {
	if e == nil {
		return true
	}
	if !e.include.Empty() && !e.include.Match(rec) {
		return false
	}
	return e.exclude.Empty() || !e.exclude.Match(rec)
}

package predicate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/jointail/internal/record"
)

func TestEngine_IncludeList(t *testing.T) {
	engine, err := New([]Rule{{Field: "level", Tests: []string{"error", "warn"}}}, nil)
	require.NoError(t, err)

	assert.False(t, engine.Allow(record.Record{"level": "info"}))
	assert.True(t, engine.Allow(record.Record{"level": "error"}))
	assert.True(t, engine.Allow(record.Record{"level": "warn"}))
	assert.False(t, engine.Allow(record.Record{"msg": "no level"}))
}

func TestEngine_ExcludeBeatsInclude(t *testing.T) {
	engine, err := New(
		[]Rule{{Field: "level", Tests: []string{"~ ."}}},
		[]Rule{{Field: "level", Tests: []string{"trace"}}},
	)
	require.NoError(t, err)

	included, excluded := engine.Evaluate(record.Record{"level": "trace"})
	assert.True(t, included)
	assert.True(t, excluded)
	assert.False(t, engine.Allow(record.Record{"level": "trace"}))
	assert.True(t, engine.Allow(record.Record{"level": "debug"}))
}

func TestEngine_EmptySetsAllowEverything(t *testing.T) {
	engine, err := New(nil, nil)
	require.NoError(t, err)

	included, excluded := engine.Evaluate(record.Record{})
	assert.True(t, included)
	assert.False(t, excluded)

	var nilEngine *Engine
	assert.True(t, nilEngine.Allow(record.Record{"a": "b"}))
}

func TestEngine_AnyFieldMatches(t *testing.T) {
	engine, err := New([]Rule{
		{Field: "level", Tests: []string{"error"}},
		{Field: "component", Tests: []string{"prefix db"}},
	}, nil)
	require.NoError(t, err)

	assert.True(t, engine.Allow(record.Record{"level": "info", "component": "dbpool"}))
	assert.False(t, engine.Allow(record.Record{"level": "info", "component": "http"}))
}

func TestRuleSet_ShortCircuitsInDeclaredOrder(t *testing.T) {
	var calls []string
	set := RuleSet{rules: []compiledRule{
		{field: "a", tests: []Test{
			func(string) bool { calls = append(calls, "a1"); return false },
			func(string) bool { calls = append(calls, "a2"); return true },
			func(string) bool { calls = append(calls, "a3"); return true },
		}},
		{field: "b", tests: []Test{
			func(string) bool { calls = append(calls, "b1"); return true },
		}},
	}}

	assert.True(t, set.Match(record.Record{}))
	assert.Equal(t, []string{"a1", "a2"}, calls)
}

func TestCompileRules_ReportsFieldAndExpression(t *testing.T) {
	_, err := New(nil, []Rule{{Field: "msg", Tests: []string{"ok", "~ (broken"}}})
	require.Error(t, err)

	var cerr *CompileError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "msg", cerr.Field)
	assert.Equal(t, "~ (broken", cerr.Expr)
	assert.Contains(t, err.Error(), `field "msg"`)
}

func TestCompileRules_SkipsFieldsWithoutTests(t *testing.T) {
	set, err := CompileRules([]Rule{{Field: "level"}})
	require.NoError(t, err)
	assert.True(t, set.Empty())
}

package evaluator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivecore/internal/config"
	"derivecore/internal/dictionary"
	"derivecore/internal/errsink"
	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/tabfile"
	"derivecore/internal/value"
)

// countingSumRule computes x + y and, crucially, counts how many times
// it has been evaluated — a stand-in for a rule's mutable per-instance
// cache (spec.md §5). Two Evaluators over the same dictionary must not
// see each other's counter.
type countingSumRule struct {
	rule.BaseRule
	calls int
}

func newCountingSumRule(x, y rule.Operand) *countingSumRule {
	r := &countingSumRule{}
	r.BaseRule = rule.NewBaseRule("TestCountingSum", "x + y", value.KindContinuous, "", 0, []*rule.Operand{&x, &y})
	return r
}

func (r *countingSumRule) Clone() rule.Rule {
	ops := r.Operands()
	return newCountingSumRule(*ops[0], *ops[1])
}

func (r *countingSumRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	r.calls++
	ops := r.Operands()
	a := ops[0].GetContinuousValue(rec)
	b := ops[1].GetContinuousValue(rec)
	if a.IsMissing() || b.IsMissing() {
		return value.Missing
	}
	return a + b
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sumDictionary(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	d := dictionary.NewDictionary("Numbers")
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "x", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "y", Type: value.KindContinuous, Loaded: true}))
	r := newCountingSumRule(
		rule.NewAttributeOperand("x", value.KindContinuous),
		rule.NewAttributeOperand("y", value.KindContinuous),
	)
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{
		Name: "sum", Type: value.KindContinuous, Loaded: true, Rule: r,
	}))
	require.NoError(t, d.Compile())
	return d
}

func TestCloneGivesEachDictionaryItsOwnRuleInstance(t *testing.T) {
	d := sumDictionary(t)
	original := d.LookupAttribute("sum").Rule

	c1, err := Clone(d)
	require.NoError(t, err)
	c2, err := Clone(d)
	require.NoError(t, err)

	r1 := c1.LookupAttribute("sum").Rule
	r2 := c2.LookupAttribute("sum").Rule

	assert.NotSame(t, original, r1)
	assert.NotSame(t, original, r2)
	assert.NotSame(t, r1, r2)

	// Freshness was re-stamped against each clone's own Compile, not
	// borrowed from the original.
	full1 := r1.(rule.Rule)
	assert.EqualValues(t, c1.Freshness(), full1.CompileFreshness())
}

func TestEvaluatorComputesDerivedAttribute(t *testing.T) {
	path := writeTemp(t, "x,y\n1,2\n3,4\n")
	d := sumDictionary(t)

	in, err := tabfile.Open(path)
	require.NoError(t, err)
	defer in.Close()

	sink := errsink.New()
	ev, err := New(d, in, config.Default(), sink)
	require.NoError(t, err)

	rec1, ok, err := ev.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.Continuous(3), rec1.GetContinuousValue(ev.Dictionary().LookupAttribute("sum")))

	rec2, ok, err := ev.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.Continuous(7), rec2.GetContinuousValue(ev.Dictionary().LookupAttribute("sum")))

	_, ok, err = ev.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTwoEvaluatorsDoNotShareRuleCallCounters(t *testing.T) {
	path1 := writeTemp(t, "x,y\n1,2\n")
	path2 := writeTemp(t, "x,y\n10,20\n30,40\n")
	d := sumDictionary(t)

	in1, err := tabfile.Open(path1)
	require.NoError(t, err)
	defer in1.Close()
	in2, err := tabfile.Open(path2)
	require.NoError(t, err)
	defer in2.Close()

	sink := errsink.New()
	ev1, err := New(d, in1, config.Default(), sink)
	require.NoError(t, err)
	ev2, err := New(d, in2, config.Default(), sink)
	require.NoError(t, err)

	_, ok, err := ev1.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = ev2.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = ev2.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	r1 := ev1.Dictionary().LookupAttribute("sum").Rule.(*countingSumRule)
	r2 := ev2.Dictionary().LookupAttribute("sum").Rule.(*countingSumRule)
	assert.Equal(t, 1, r1.calls)
	assert.Equal(t, 2, r2.calls)
}

func TestContextCancellationStopsEvaluationSilently(t *testing.T) {
	path := writeTemp(t, "x,y\n1,2\n3,4\n")
	d := sumDictionary(t)

	in, err := tabfile.Open(path)
	require.NoError(t, err)
	defer in.Close()

	sink := errsink.New()
	ev, err := New(d, in, config.Default(), sink)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := ev.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

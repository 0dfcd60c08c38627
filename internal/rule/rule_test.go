package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivecore/internal/dictionary"
	"derivecore/internal/record"
	"derivecore/internal/value"
)

// addContinuousRule is a minimal concrete rule (x + y) used to exercise
// the operand/compile/evaluate contract end-to-end without depending
// on internal/rule/library.
type addContinuousRule struct {
	BaseRule
}

func newAddContinuousRule(x, y Operand) *addContinuousRule {
	r := &addContinuousRule{}
	r.BaseRule = NewBaseRule("TestAdd", "x + y", value.KindContinuous, "", 0, []*Operand{&x, &y})
	return r
}

func (r *addContinuousRule) Clone() Rule {
	ops := r.Operands()
	return newAddContinuousRule(*ops[0], *ops[1])
}

func (r *addContinuousRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	ops := r.Operands()
	a := ops[0].GetContinuousValue(rec)
	b := ops[1].GetContinuousValue(rec)
	if a.IsMissing() || b.IsMissing() {
		return value.Missing
	}
	return a + b
}

func TestRuleCompileAndEvaluate(t *testing.T) {
	d := dictionary.NewDictionary("Numbers")
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "X", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "Y", Type: value.KindContinuous, Loaded: true}))

	r := newAddContinuousRule(
		NewAttributeOperand("X", value.KindContinuous),
		NewAttributeOperand("Y", value.KindContinuous),
	)

	require.NoError(t, d.AddAttribute(&dictionary.Attribute{
		Name: "Sum", Type: value.KindContinuous, Loaded: true, Rule: r,
	}))
	require.NoError(t, d.Compile())
	require.NoError(t, r.Compile(d))

	rec := record.New(d)
	rec.SetContinuousValue(d.LookupAttribute("X"), 2)
	rec.SetContinuousValue(d.LookupAttribute("Y"), 3)

	assert.Equal(t, value.Continuous(5), r.ComputeContinuousResult(rec))
	assert.EqualValues(t, d.Freshness(), r.CompileFreshness())
}

func TestOperandConstant(t *testing.T) {
	op := NewConstantOperand(value.ScalarFromContinuous(7))
	assert.Equal(t, value.Continuous(7), op.GetContinuousValue(nil))
}

func TestRegistryRoundTrip(t *testing.T) {
	resetRegistry(map[string]func() Rule{})
	Register("TestAdd", func() Rule {
		return newAddContinuousRule(NewConstantOperand(value.ScalarFromContinuous(1)), NewConstantOperand(value.ScalarFromContinuous(1)))
	})
	r, err := New("TestAdd")
	require.NoError(t, err)
	assert.Equal(t, "TestAdd", r.Name())

	_, err = New("DoesNotExist")
	assert.Error(t, err)
}

package library

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func TestVectorCBuildsAndIndexes(t *testing.T) {
	vc := newVectorCRule(
		rule.NewConstantOperand(value.ScalarFromContinuous(10)),
		rule.NewConstantOperand(value.ScalarFromContinuous(20)),
		rule.NewConstantOperand(value.ScalarFromContinuous(30)),
	)
	s := vc.ComputeStructureResult(nil)
	assert.Equal(t, value.KindVectorC, s.StructureKind())

	at := newValueAtC(rule.NewRuleOperand(vc), rule.NewConstantOperand(value.ScalarFromContinuous(2)))
	assert.Equal(t, value.Continuous(20), at.ComputeContinuousResult(nil))

	outOfRange := newValueAtC(rule.NewRuleOperand(vc), rule.NewConstantOperand(value.ScalarFromContinuous(99)))
	assert.True(t, outOfRange.ComputeContinuousResult(nil).IsMissing())
}

func TestAsVectorCSplitsSpaceSeparatedField(t *testing.T) {
	av := newAsVectorC(rule.NewConstantOperand(value.ScalarFromSymbol(value.Intern("1 2 3"))))
	s := av.ComputeStructureResult(nil)
	vec, ok := s.(*ContinuousVector)
	assert.True(t, ok)
	assert.Len(t, vec.values, 3)
	assert.Equal(t, value.Continuous(2), vec.ValueAt(2))
}

func TestVectorBuildsAndIndexes(t *testing.T) {
	v := newVectorRule(
		rule.NewConstantOperand(value.ScalarFromSymbol(value.Intern("a"))),
		rule.NewConstantOperand(value.ScalarFromSymbol(value.Intern("b"))),
	)
	s := v.ComputeStructureResult(nil)
	assert.Equal(t, value.KindVector, s.StructureKind())

	at := newValueAt(rule.NewRuleOperand(v), rule.NewConstantOperand(value.ScalarFromContinuous(1)))
	assert.Equal(t, "a", at.ComputeSymbolResult(nil).String())
}

package library

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func TestHashMapCBuildsAndLooksUp(t *testing.T) {
	keys := newVectorRule(
		rule.NewConstantOperand(value.ScalarFromSymbol(value.Intern("red"))),
		rule.NewConstantOperand(value.ScalarFromSymbol(value.Intern("blue"))),
	)
	values := newVectorCRule(
		rule.NewConstantOperand(value.ScalarFromContinuous(1)),
		rule.NewConstantOperand(value.ScalarFromContinuous(2)),
	)
	hm := newHashMapCRule(rule.NewRuleOperand(keys), rule.NewRuleOperand(values))
	s := hm.ComputeStructureResult(nil)
	assert.Equal(t, value.KindHashMapC, s.StructureKind())

	lookup := newValueAtKey(rule.NewRuleOperand(hm), rule.NewConstantOperand(value.ScalarFromSymbol(value.Intern("blue"))))
	assert.Equal(t, value.Continuous(2), lookup.ComputeContinuousResult(nil))

	missing := newValueAtKey(rule.NewRuleOperand(hm), rule.NewConstantOperand(value.ScalarFromSymbol(value.Intern("green"))))
	assert.True(t, missing.ComputeContinuousResult(nil).IsMissing())
}

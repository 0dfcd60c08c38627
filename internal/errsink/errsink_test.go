package errsink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWarnIncrementsCountRegardlessOfSampling(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sink := NewWithLogger(zap.New(core))

	for i := 0; i < 10; i++ {
		sink.Warn(RowError, int64(i), "field count mismatch")
	}

	assert.Equal(t, int64(10), sink.Count(RowError))
	assert.Less(t, logs.Len(), 10, "the sampler should have dropped some of the ten identical warnings")
}

func TestSummaryListsOnlyWarnedKinds(t *testing.T) {
	core, _ := observer.New(zap.WarnLevel)
	sink := NewWithLogger(zap.New(core))

	assert.Equal(t, "no warnings", sink.Summary())

	sink.Warn(BlockParseError, 3, "bad sparse field")
	assert.Contains(t, sink.Summary(), "block parse error: 1")
	assert.NotContains(t, sink.Summary(), "row error")
}

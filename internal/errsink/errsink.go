// Package errsink implements the flow-controlled warning sink
// described informally in spec.md §7 ("error-sink with flow control to
// avoid log floods, periodic activation"). The teacher carries no
// logger of its own; zap is pulled in directly here, sampled through
// zapcore.NewSamplerWithOptions so that only the first few occurrences
// of an identical warning within a tick reach the log; every occurrence
// is still counted, and Summary reports the totals.
package errsink

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Kind classifies a per-row/per-field data warning (spec.md §7,
// taxonomy items 2-8, IOReadError covering read failures only;
// SchemaError and open-time IOError propagate as plain Go errors
// instead and never reach the sink).
type Kind int

const (
	EncodingError Kind = iota
	FieldParseError
	RowError
	ValueConversionError
	BlockParseError
	LineTooLong
	IOReadError
)

func (k Kind) String() string {
	switch k {
	case EncodingError:
		return "encoding error"
	case FieldParseError:
		return "field error"
	case RowError:
		return "row error"
	case ValueConversionError:
		return "value conversion error"
	case BlockParseError:
		return "block parse error"
	case LineTooLong:
		return "line too long"
	case IOReadError:
		return "io error"
	default:
		return "warning"
	}
}

// Sink accepts Warn calls from the driver/record readers without
// letting a pathological file (millions of identical bad rows) flood
// the log; Counts() reports how many of each Kind were ever seen, not
// just how many were logged.
type Sink struct {
	logger *zap.Logger
	counts [lastKind]atomic.Int64
}

const lastKind = IOReadError + 1

// New builds a Sink around a sampled zap core: the first and second
// occurrence of an identical message within each one-second tick pass
// through, then only every 100th.
func New() *Sink {
	core := zapcore.NewSamplerWithOptions(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(os.Stderr),
			zap.WarnLevel,
		),
		time.Second, 2, 100,
	)
	return &Sink{logger: zap.New(core)}
}

// NewWithLogger lets callers (tests, the cmd entry point) supply their
// own base *zap.Logger, still wrapped in the same sampling policy.
func NewWithLogger(base *zap.Logger) *Sink {
	sampled := base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewSamplerWithOptions(core, time.Second, 2, 100)
	}))
	return &Sink{logger: sampled}
}

// Warn records one occurrence of kind and routes it through the
// sampled logger. rowIndex is the 0-based input row number, or -1 when
// not row-scoped (e.g. an encoding warning at open time).
func (s *Sink) Warn(kind Kind, rowIndex int64, detail string) {
	s.counts[kind].Add(1)
	if rowIndex >= 0 {
		s.logger.Warn(kind.String(), zap.Int64("row", rowIndex), zap.String("detail", detail))
	} else {
		s.logger.Warn(kind.String(), zap.String("detail", detail))
	}
}

// Count returns the total number of Warn calls made for kind,
// including ones that the sampler dropped from the log itself.
func (s *Sink) Count(kind Kind) int64 { return s.counts[kind].Load() }

// Summary renders a one-line count per kind that was ever warned.
func (s *Sink) Summary() string {
	out := ""
	for k := Kind(0); k < lastKind; k++ {
		if n := s.Count(k); n > 0 {
			if out != "" {
				out += ", "
			}
			out += fmt.Sprintf("%s: %d", k, n)
		}
	}
	if out == "" {
		return "no warnings"
	}
	return out
}

func (s *Sink) Sync() error { return s.logger.Sync() }

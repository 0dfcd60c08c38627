package value

// Scalar is a tagged union over the non-block stored kinds
// (Continuous, Symbol, Date, Time, Timestamp, TimestampTZ, Text). It is
// the shared currency between a Record's dense slots and a Rule's
// scalar-typed operand results: a single explicit switch over Kind,
// rather than a reflective interface{} value (spec.md §9's re-
// architecture guidance against a generic Value interface).
type Scalar struct {
	kind        Kind
	continuous  Continuous
	symbol      Symbol
	date        Date
	time        Time
	timestamp   Timestamp
	timestampTZ TimestampTZ
	text        Text
}

// Kind reports which stored kind this Scalar carries. The zero Scalar
// has KindInvalid.
func (s Scalar) Kind() Kind { return s.kind }

func ScalarFromContinuous(c Continuous) Scalar { return Scalar{kind: KindContinuous, continuous: c} }
func ScalarFromSymbol(sym Symbol) Scalar       { return Scalar{kind: KindSymbol, symbol: sym} }
func ScalarFromDate(d Date) Scalar             { return Scalar{kind: KindDate, date: d} }
func ScalarFromTime(t Time) Scalar             { return Scalar{kind: KindTime, time: t} }
func ScalarFromTimestamp(ts Timestamp) Scalar  { return Scalar{kind: KindTimestamp, timestamp: ts} }
func ScalarFromTimestampTZ(tz TimestampTZ) Scalar {
	return Scalar{kind: KindTimestampTZ, timestampTZ: tz}
}
func ScalarFromText(t Text) Scalar { return Scalar{kind: KindText, text: t} }

// AsContinuous returns the held value and true iff Kind() == KindContinuous.
func (s Scalar) AsContinuous() (Continuous, bool) {
	if s.kind != KindContinuous {
		return Missing, false
	}
	return s.continuous, true
}

func (s Scalar) AsSymbol() (Symbol, bool) {
	if s.kind != KindSymbol {
		return Symbol{}, false
	}
	return s.symbol, true
}

func (s Scalar) AsDate() (Date, bool) {
	if s.kind != KindDate {
		return Date{}, false
	}
	return s.date, true
}

func (s Scalar) AsTime() (Time, bool) {
	if s.kind != KindTime {
		return Time{}, false
	}
	return s.time, true
}

func (s Scalar) AsTimestamp() (Timestamp, bool) {
	if s.kind != KindTimestamp {
		return Timestamp{}, false
	}
	return s.timestamp, true
}

func (s Scalar) AsTimestampTZ() (TimestampTZ, bool) {
	if s.kind != KindTimestampTZ {
		return TimestampTZ{}, false
	}
	return s.timestampTZ, true
}

func (s Scalar) AsText() (Text, bool) {
	if s.kind != KindText {
		return Text{}, false
	}
	return s.text, true
}

// String renders the held value using its own String method, or "" for
// an invalid/zero Scalar.
func (s Scalar) String() string {
	switch s.kind {
	case KindContinuous:
		return FormatContinuous(s.continuous)
	case KindSymbol:
		return s.symbol.String()
	case KindDate:
		return s.date.String()
	case KindTime:
		return s.time.String()
	case KindTimestamp:
		return s.timestamp.String()
	case KindTimestampTZ:
		return s.timestampTZ.String()
	case KindText:
		return s.text.String()
	default:
		return ""
	}
}

// ZeroValueFor returns the canonical "default" Scalar of the given
// stored scalar kind: Missing for Continuous, the empty Symbol/Text,
// and the canonical invalid form for Date/Time/Timestamp/TimestampTZ.
func ZeroValueFor(k Kind) Scalar {
	switch k {
	case KindContinuous:
		return ScalarFromContinuous(Missing)
	case KindSymbol:
		return ScalarFromSymbol(EmptySymbol)
	case KindDate:
		return ScalarFromDate(Date{})
	case KindTime:
		return ScalarFromTime(Time{})
	case KindTimestamp:
		return ScalarFromTimestamp(Timestamp{})
	case KindTimestampTZ:
		return ScalarFromTimestampTZ(TimestampTZ{})
	case KindText:
		return ScalarFromText(NewText(""))
	default:
		return Scalar{}
	}
}

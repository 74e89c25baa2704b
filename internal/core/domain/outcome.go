package domain

// OutcomeKind says how a fail-open stage resolved.
type OutcomeKind string

const (
	OutcomeOK       OutcomeKind = "ok"
	OutcomeDefault  OutcomeKind = "default"
	OutcomeFallback OutcomeKind = "fallback"
	OutcomeMarker   OutcomeKind = "marker"
	OutcomeEmpty    OutcomeKind = "empty"
)

// Outcome is the result of a fail-open stage. Value is always usable: on
// failure it carries the stage's fallback and Err keeps the cause for logs.
type Outcome[T any] struct {
	Value T
	Kind  OutcomeKind
	Err   error
}

func Succeeded[T any](value T) Outcome[T] {
	return Outcome[T]{Value: value, Kind: OutcomeOK}
}

func Recovered[T any](fallback T, kind OutcomeKind, cause error) Outcome[T] {
	return Outcome[T]{Value: fallback, Kind: kind, Err: cause}
}

func (o Outcome[T]) Recovered() bool {
	return o.Kind != OutcomeOK
}

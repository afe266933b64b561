package analysis

// Outcome is the result of one pipeline phase. Phases backed by the LLM never
// fail hard; they either produce their primary value or a conservative
// fallback value with a reason, so tests can assert why a fallback fired
// rather than just that one did.
type Outcome[T any] struct {
	Value    T      `json:"value"`
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}

// Ok wraps a value produced by the primary path.
func Ok[T any](value T) (outcome Outcome[T]) {
	outcome = Outcome[T]{Value: value}
	return outcome
}

// Degraded wraps a fallback value and records why the primary path failed.
func Degraded[T any](value T, reason string) (outcome Outcome[T]) {
	outcome = Outcome[T]{Value: value, Degraded: true, Reason: reason}
	return outcome
}

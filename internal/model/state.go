package model

// StateKind tags a State value
type StateKind string

const (
	StateIdle    StateKind = "idle"
	StateLoading StateKind = "loading"
	StateSuccess StateKind = "success"
	StateFailure StateKind = "failure"
)

// State is the envelope every live stream delivers to clients
type State[T any] struct {
	Kind    StateKind `json:"state"`
	Value   T         `json:"value,omitempty"`
	Message string    `json:"message,omitempty"`
}

func Idle[T any]() State[T] {
	return State[T]{Kind: StateIdle}
}

func Loading[T any]() State[T] {
	return State[T]{Kind: StateLoading}
}

func Success[T any](v T) State[T] {
	return State[T]{Kind: StateSuccess, Value: v}
}

func Failure[T any](err error) State[T] {
	return State[T]{Kind: StateFailure, Message: err.Error()}
}

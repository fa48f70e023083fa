package consumer

// State is the lifecycle of a single fetch. It is a closed enum rather than
// a pair of booleans so that loading+error is not representable. The zero
// value is StateLoading: a Result that has not been produced yet is loading.
type State int

const (
	StateLoading State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of a fetch. Path always names a renderable
// local file: the cached object on success, the fallback image on failure.
type Result struct {
	State State
	Path  string
	Err   error // nil unless State == StateError
}

package widget

import "sync"

// QueryHandler receives a submitted city name.
type QueryHandler func(city string)

// Input holds the pending city name typed into the search field.
type Input struct {
	mu      sync.Mutex
	pending string
	onQuery QueryHandler
}

// NewInput returns an empty Input that forwards accepted submissions to h.
func NewInput(h QueryHandler) *Input {
	return &Input{onQuery: h}
}

// Set replaces the pending value with exactly v.
func (in *Input) Set(v string) {
	in.mu.Lock()
	in.pending = v
	in.mu.Unlock()
}

// Value returns the pending value.
func (in *Input) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.pending
}

// Submit forwards the pending value and clears it. Only the exact empty
// string is rejected; whitespace is passed through untouched.
func (in *Input) Submit() bool {
	in.mu.Lock()
	city := in.pending
	if city == "" {
		in.mu.Unlock()
		return false
	}
	in.pending = ""
	in.mu.Unlock()

	in.onQuery(city)
	return true
}

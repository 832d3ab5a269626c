package assistant

import "github.com/vokinneberg/research-assistant/internal/types"

// State is the display state of a controller. Exactly one variant is held at
// a time: Idle, Loading, Success or Failed.
type State interface {
	// Status names the variant, e.g. for JSON snapshots.
	Status() string

	isState()
}

// Idle is the state before the first submission.
type Idle struct{}

// Loading means a request is in flight.
type Loading struct{}

// Success holds the result of the latest completed search.
type Success struct {
	Result *types.SearchResult
}

// Failed holds the message of the latest failed search.
type Failed struct {
	Message string
}

func (Idle) Status() string    { return "idle" }
func (Loading) Status() string { return "loading" }
func (Success) Status() string { return "success" }
func (Failed) Status() string  { return "failed" }

func (Idle) isState()    {}
func (Loading) isState() {}
func (Success) isState() {}
func (Failed) isState()  {}

// View is an immutable snapshot of a controller for rendering.
type View struct {
	Query string
	State State
}

// Loading reports whether a request is in flight.
func (v View) Loading() bool {
	_, ok := v.State.(Loading)
	return ok
}

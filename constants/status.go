package constants

// RunState is the view state of one workflow controller.
type RunState string

// Stable values (rendered in the API and stored in the run journal).
const (
	RunStateIdle     RunState = "IDLE"     // no files chosen, or stopped on 401
	RunStateLoading  RunState = "LOADING"  // upload/fetch/flatten in flight
	RunStateComplete RunState = "COMPLETE" // terminal success
	RunStateFailed   RunState = "FAILED"   // terminal failure
)

// Terminal reports whether no further transition happens without a reset.
func (s RunState) Terminal() bool {
	return s == RunStateComplete || s == RunStateFailed
}

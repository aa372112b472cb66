package router

// LifecycleStep represents one pending transition.
//
// From is the step whose output feeds the prompt; Step is the step that the
// transition produces.
type LifecycleStep struct {
	From string
	Step Step
}

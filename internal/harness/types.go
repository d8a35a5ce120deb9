package harness

// TraceEvent records one step applied during a scenario run.
type TraceEvent struct {
	Step   int    `json:"step"`
	Kind   string `json:"kind"` // "import", "eval_all", "insert", "save" or "load"
	Detail string `json:"detail,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step ran and all assertions matched.
	Pass bool `json:"pass"`

	// Trace lists the steps in the order they ran.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Output is the final document serialized as sofer with evaluated text.
	// Used for golden comparison.
	Output string `json:"output"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(step int, kind, detail string) {
	r.Trace = append(r.Trace, TraceEvent{
		Step:   step,
		Kind:   kind,
		Detail: detail,
	})
}

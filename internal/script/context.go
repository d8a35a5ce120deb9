package script

import "context"

// Error is a compile or runtime failure reported by a Context.
type Error struct {
	Phase   string // "compile", "runtime" or "call"
	Message string
}

func (e *Error) Error() string {
	return e.Phase + " error: " + e.Message
}

// Context executes script source. A Context is not safe for concurrent use.
type Context interface {
	// Eval executes source and returns its value. Source may be an
	// expression ("1 + 1", "function(n) ... end") or a chunk of statements
	// ending in a return. Compile and runtime failures are returned as errors.
	Eval(ctx context.Context, source string) (Value, error)

	// Close releases the context. Functions it produced become unusable.
	Close() error
}

// Factory creates script contexts.
type Factory interface {
	NewContext() (Context, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func() (Context, error)

// NewContext calls f.
func (f FactoryFunc) NewContext() (Context, error) {
	return f()
}

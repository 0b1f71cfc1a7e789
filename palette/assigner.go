package palette

// Assigner hands out color indexes to loggers that do not ask for one.
// Only automatic assignments move the counter, so an explicit index never
// shifts the colors of the loggers that follow it.
//
// An Assigner is owned by the registering goroutine and is not safe for
// concurrent use.
type Assigner struct {
	next int
}

// NewAssigner returns an Assigner starting at index 0.
func NewAssigner() *Assigner {
	return &Assigner{}
}

// Next returns the next automatic index and advances the counter.
func (a *Assigner) Next() int {
	index := a.next
	a.next++
	return index
}

// Resolve returns *explicit when it is set and the next automatic index
// otherwise.
func (a *Assigner) Resolve(explicit *int) int {
	if explicit != nil {
		return *explicit
	}
	return a.Next()
}

// Peek shows the index the next automatic assignment will receive.
func (a *Assigner) Peek() int {
	return a.next
}

package internal

// Event is a single occurrence flowing through the graph: either a value or
// a captured failure.
type Event struct {
	Value any
	Err   error
}

func Ok(v any) Event { return Event{Value: v} }

func Fail(err error) Event { return Event{Err: err} }

func (e Event) IsError() bool {
	return e.Err != nil
}

// mapValue applies fn to a value event, letting errors through untouched.
func (e Event) mapValue(fn func(any) any) Event {
	if e.IsError() {
		return e
	}

	return capture(func() any { return fn(e.Value) })
}

// combine folds two events. The first error wins.
func combine(a, b Event, fn func(any, any) any) Event {
	if a.IsError() {
		return a
	}
	if b.IsError() {
		return b
	}

	return capture(func() any { return fn(a.Value, b.Value) })
}

package internal

// Owner holds the cleanups of a stream or cell. Combinators attach the
// subscriptions they make on their inputs, so disposing the output tears the
// subscriptions down.
type Owner struct {
	// cleanup functions to be called when the owner is disposed
	cleanups []func()

	disposed bool
}

func newOwner() *Owner {
	return &Owner{
		cleanups: make([]func(), 0),
	}
}

func (o *Owner) OnCleanup(fn func()) {
	if o.disposed {
		fn()
		return
	}

	o.cleanups = append(o.cleanups, fn)
}

func (o *Owner) Disposed() bool {
	return o.disposed
}

func (o *Owner) dispose() {
	if o.disposed {
		return
	}
	o.disposed = true

	for i := 0; i < len(o.cleanups); i++ {
		o.cleanups[i]()
	}
	o.cleanups = nil
}

package internal

// ActionQueue runs plain actions in registration order. Actions enqueued
// while the queue is running are run in the same pass.
type ActionQueue struct {
	actions []func()
}

func NewActionQueue() *ActionQueue {
	return &ActionQueue{
		actions: make([]func(), 0),
	}
}

func (q *ActionQueue) Enqueue(fn func()) {
	q.actions = append(q.actions, fn)
}

func (q *ActionQueue) Len() int {
	return len(q.actions)
}

func (q *ActionQueue) Run() {
	for i := 0; i < len(q.actions); i++ {
		q.actions[i]()
	}

	q.actions = q.actions[:0]
}

// Take empties the queue and returns what it held.
func (q *ActionQueue) Take() []func() {
	actions := q.actions
	q.actions = nil
	return actions
}

package internal

// Transaction is one atomic round of propagation.
//
// Closing it runs three phases: prioritized actions in (rank, seq) order, then
// last actions, then post actions (run by the runtime once the transaction is
// no longer current).
type Transaction struct {
	id uint64

	queue *PriorityHeap
	last  *ActionQueue
	post  *ActionQueue

	// set when a rank changed while actions were queued
	toRegen bool

	actions int
	regens  int
}

func newTransaction(id uint64) *Transaction {
	return &Transaction{
		id:    id,
		queue: NewHeap(),
		last:  NewActionQueue(),
		post:  NewActionQueue(),
	}
}

func (tx *Transaction) ID() uint64 {
	return tx.id
}

// Prioritized schedules an action at the rank of node.
func (tx *Transaction) Prioritized(node *Node, action func(*Transaction)) {
	tx.queue.Insert(node, action)
}

// Last schedules an action to run after every prioritized action.
func (tx *Transaction) Last(fn func()) {
	tx.last.Enqueue(fn)
}

// Post schedules an action to run after the transaction has closed.
func (tx *Transaction) Post(fn func()) {
	tx.post.Enqueue(fn)
}

func (tx *Transaction) markRegen() {
	tx.toRegen = true
}

func (tx *Transaction) drain() {
	for {
		if tx.toRegen {
			tx.toRegen = false
			tx.regens++
			tx.queue.Regen()
		}

		if tx.queue.Len() == 0 {
			break
		}

		action := tx.queue.Pop()
		tx.actions++
		action(tx)
	}
}

func (tx *Transaction) close() {
	tx.drain()
	tx.last.Run()
}

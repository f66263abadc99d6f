package internal

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Runtime serializes transactions process-wide.
//
// mu is held for the whole life of a transaction, including its post phase.
// owner records the goroutine holding mu so that nested calls from inside a
// transaction join it instead of deadlocking. graph protects edges and ranks,
// so Inspect can walk the graph while a transaction is running.
type Runtime struct {
	mu    sync.Mutex
	owner atomic.Int64
	graph sync.RWMutex

	current   *Transaction
	callbacks callbackGuard
	txSeq     uint64

	hooks        []func()
	runningHooks bool

	logger  *slog.Logger
	metrics *Metrics

	unhandled *Stream
}

var defaultRuntime = NewRuntime()

// GetRuntime returns the process-wide runtime.
func GetRuntime() *Runtime {
	return defaultRuntime
}

func NewRuntime() *Runtime {
	r := &Runtime{
		logger: defaultConfig().logger,
	}
	r.unhandled = r.NewStream("unhandled")

	return r
}

// Configure applies opts under the transaction lock. Settings that opts do
// not touch keep their current value.
func (r *Runtime) Configure(opts ...Option) (err error) {
	r.locked(func() {
		cfg := config{logger: r.logger}
		for _, opt := range opts {
			opt(&cfg)
		}

		r.logger = cfg.logger

		if cfg.registerer != nil {
			m := NewMetrics()
			err = m.Register(cfg.registerer)
			r.metrics = m
		}
	})

	return err
}

func (r *Runtime) Logger() *slog.Logger {
	return r.logger
}

// Unhandled is the stream that receives failures nobody else handled.
func (r *Runtime) Unhandled() *Stream {
	return r.unhandled
}

// locked runs fn holding mu, unless the calling goroutine already holds it.
func (r *Runtime) locked(fn func()) {
	gid := goroutineID()
	if r.owner.Load() == gid {
		fn()
		return
	}

	r.mu.Lock()
	r.owner.Store(gid)
	defer func() {
		r.owner.Store(0)
		r.mu.Unlock()
	}()

	fn()
}

// Run runs code inside a transaction. A transaction already open on this
// goroutine is joined; otherwise a new one is opened and closed around code.
func (r *Runtime) Run(code func(tx *Transaction)) {
	r.locked(func() {
		if tx := r.current; tx != nil {
			code(tx)
			return
		}

		r.transact(code)
	})
}

// InTransaction reports whether the calling goroutine has a transaction open.
func (r *Runtime) InTransaction() bool {
	return r.owner.Load() == goroutineID() && r.current != nil
}

// InCallback reports whether a delivery callback is running.
// Only meaningful on the goroutine holding the transaction lock.
func (r *Runtime) InCallback() bool {
	return r.callbacks.InCallback()
}

// OnStart registers a hook run before each new transaction. Hooks may open
// transactions themselves; those do not run the hooks again.
func (r *Runtime) OnStart(hook func()) {
	r.locked(func() {
		r.hooks = append(r.hooks, hook)
	})
}

func (r *Runtime) runStartHooks() {
	if r.runningHooks || len(r.hooks) == 0 {
		return
	}

	r.runningHooks = true
	defer func() { r.runningHooks = false }()

	for _, hook := range slices.Clone(r.hooks) {
		hook()
	}
}

func (r *Runtime) transact(code func(*Transaction)) {
	r.runStartHooks()

	r.txSeq++
	tx := newTransaction(r.txSeq)
	r.current = tx
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			// a panic from the post phase was already handled by the
			// transaction that raised it
			if r.current == tx {
				r.abort(tx, rec)
			}
			panic(rec)
		}
	}()

	code(tx)
	tx.close()
	r.current = nil

	r.metrics.closed(tx)
	r.logger.Debug("transaction closed",
		"tx", tx.id,
		"actions", tx.actions,
		"regens", tx.regens,
		"duration", time.Since(start),
	)

	for _, fn := range tx.post.Take() {
		fn()
	}
}

// abort resets the engine after a panic escaped a transaction. Pending cell
// values are committed and firings cleared by running the last phase, so the
// graph stays usable for the next transaction.
func (r *Runtime) abort(tx *Transaction, rec any) {
	r.current = nil
	r.callbacks.reset()

	for tx.last.Len() > 0 {
		actions := tx.last.Take()
		for _, fn := range actions {
			func() {
				defer func() { _ = recover() }()
				fn()
			}()
		}
	}

	r.metrics.aborted()
	r.logger.Warn("transaction aborted", "tx", tx.id, "panic", rec)
}

// deliver invokes a handler inside the callback guard. A failure that is not
// a usage error is reported and does not stop the transaction.
func (r *Runtime) deliver(tx *Transaction, h Handler, ev Event) {
	err := guard(func() {
		r.callbacks.Run(func() {
			h(tx, ev)
		})
	})

	if err != nil {
		r.Report(tx, err)
	}
}

// Report routes an unhandled failure to the Unhandled stream when it has
// listeners, and to the logger otherwise.
func (r *Runtime) Report(tx *Transaction, err error) {
	r.reportFrom(tx, nil, err)
}

func (r *Runtime) reportFrom(tx *Transaction, src *Stream, err error) {
	r.metrics.unhandled()

	// failures raised by listeners of the unhandled stream itself would loop
	if src != r.unhandled && r.unhandled.hasTargets() {
		r.unhandled.Send(tx, Ok(err))
		return
	}

	r.logger.Error("unhandled failure", "tx", tx.id, "error", err)
}

func (r *Runtime) link(tx *Transaction, src, dst *Node, h Handler) *Target {
	r.graph.Lock()
	t, changed := src.Link(dst, h)
	r.graph.Unlock()

	if changed && tx != nil {
		tx.markRegen()
	}

	return t
}

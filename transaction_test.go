package sodium

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction(t *testing.T) {
	t.Run("nested runs join the outer transaction", func(t *testing.T) {
		log := []int{}
		a := NewStreamSink[int]()
		b := NewStreamSink[int]()

		l := a.Merge(b.Stream, func(l, r int) int { return l*10 + r }).ListenValues(func(v int) {
			log = append(log, v)
		})
		defer l.Unlisten()

		Run(func() {
			a.Send(1)
			Run(func() { b.Send(2) })
		})

		assert.Equal(t, []int{12}, log)
	})

	t.Run("run result", func(t *testing.T) {
		c := NewCellSink(3)

		v := RunResult(func() int {
			n, _ := c.Sample()
			return n * 2
		})

		assert.Equal(t, 6, v)
	})

	t.Run("send twice in one transaction", func(t *testing.T) {
		log := []int{}
		s := NewStreamSink[int]()

		l := s.ListenValues(func(v int) { log = append(log, v) })
		defer l.Unlisten()

		err := usagePanic(func() {
			Run(func() {
				s.Send(1)
				s.Send(2)
			})
		})
		assert.ErrorIs(t, err, ErrAlreadySent)

		// the aborted transaction left nothing behind
		s.Send(3)
		assert.Equal(t, []int{3}, log)
	})

	t.Run("send from a listener", func(t *testing.T) {
		a := NewStreamSink[int]()
		b := NewStreamSink[int]()

		l := a.ListenValues(func(v int) { b.Send(v) })

		err := usagePanic(func() { a.Send(1) })
		assert.ErrorIs(t, err, ErrSendInCallback)

		l.Unlisten()

		log := []int{}
		l = b.ListenValues(func(v int) { log = append(log, v) })
		defer l.Unlisten()

		a.Send(2)
		b.Send(3)
		assert.Equal(t, []int{3}, log)
	})

	t.Run("combinators recover from an aborted transaction", func(t *testing.T) {
		updates := []int{}
		sums := []int{}
		s := NewStreamSink[int]()
		other := NewStreamSink[int]()
		c := s.Hold(0)

		l1 := c.Updates().ListenValues(func(v int) { updates = append(updates, v) })
		defer l1.Unlisten()

		l2 := s.Coalesce(func(a, b int) int { return a + b }).ListenValues(func(v int) {
			sums = append(sums, v)
		})
		defer l2.Unlisten()

		// same rank as the two above, so it fails after both have scheduled
		// their output
		bad := Map(s.Stream, func(v int) int {
			if v == 1 {
				other.Send(v)
			}
			return v
		})
		defer bad.Dispose()

		err := usagePanic(func() { s.Send(1) })
		require.ErrorIs(t, err, ErrSendInCallback)

		s.Send(2)
		s.Send(3)

		assert.Equal(t, []int{2, 3}, updates)
		assert.Equal(t, []int{2, 3}, sums)

		v, err := c.Sample()
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})

	t.Run("start hooks", func(t *testing.T) {
		enabled := true
		hooks := 0
		s := NewStreamSink[int]()

		OnStart(func() {
			if !enabled {
				return
			}
			hooks++

			// a hook may open transactions of its own without recursing
			Run(func() {})
		})
		defer func() { enabled = false }()

		before := hooks
		s.Send(1)
		Run(func() {
			Run(func() {})
		})

		assert.Equal(t, before+2, hooks)
	})

	t.Run("concurrent senders are serialized", func(t *testing.T) {
		var wg sync.WaitGroup
		s := NewStreamSink[int]()
		total := Accum(s.Stream, 0, func(v, acc int) int { return acc + v })

		for range 50 {
			wg.Go(func() {
				s.Send(1)
			})
		}
		wg.Wait()

		v, err := total.Sample()
		require.NoError(t, err)
		assert.Equal(t, 50, v)
	})

	t.Run("concurrent inspect", func(t *testing.T) {
		var wg sync.WaitGroup
		s := NewStreamSink[int]()
		c := Map(s.Stream, func(v int) int { return v }).Hold(0)

		wg.Go(func() {
			for i := range 100 {
				s.Send(i)
			}
		})
		wg.Go(func() {
			for range 100 {
				assert.NotEmpty(t, Inspect(s))
			}
		})
		wg.Wait()

		v, _ := c.Sample()
		assert.Equal(t, 99, v)
	})
}

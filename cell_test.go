package sodium

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCell(t *testing.T) {
	t.Run("sample and send", func(t *testing.T) {
		c := NewCellSink(1)

		v, err := c.Sample()
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		c.Send(2)

		v, err = c.Sample()
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("sample inside a transaction sees the old value", func(t *testing.T) {
		c := NewCellSink("old")

		var during string
		Run(func() {
			c.Send("new")
			during, _ = c.Sample()
		})
		after, _ := c.Sample()

		assert.Equal(t, "old", during)
		assert.Equal(t, "new", after)
	})

	t.Run("sample lazy sees the new value", func(t *testing.T) {
		c := NewCellSink("old")

		var lazy func() (string, error)
		Run(func() {
			c.Send("new")
			lazy = c.SampleLazy()
		})

		v, err := lazy()
		require.NoError(t, err)
		assert.Equal(t, "new", v)
	})

	t.Run("updates", func(t *testing.T) {
		log := []int{}
		c := NewCellSink(0)

		l := c.Updates().ListenValues(func(v int) { log = append(log, v) })
		defer l.Unlisten()

		c.Send(2)
		c.Send(9)

		assert.Equal(t, []int{2, 9}, log)
	})

	t.Run("listen starts with the current value", func(t *testing.T) {
		log := []int{}
		c := NewCellSink(5)

		l := c.ListenValues(func(v int) { log = append(log, v) })
		defer l.Unlisten()

		c.Send(6)

		assert.Equal(t, []int{5, 6}, log)
	})

	t.Run("listening in the sending transaction sees only the new value", func(t *testing.T) {
		log := []int{}
		c := NewCellSink(0)

		var l *Listener
		Run(func() {
			c.Send(7)
			l = c.ListenValues(func(v int) { log = append(log, v) })
		})
		defer l.Unlisten()

		c.Send(8)

		assert.Equal(t, []int{7, 8}, log)
	})

	t.Run("lazy sink", func(t *testing.T) {
		calls := 0
		c := NewCellSinkLazy(func() int {
			calls++
			return 7
		})
		assert.Equal(t, 0, calls)

		v, err := c.Sample()
		require.NoError(t, err)
		assert.Equal(t, 7, v)

		c.Sample()
		assert.Equal(t, 1, calls)

		c.Send(8)
		v, _ = c.Sample()
		assert.Equal(t, 8, v)
	})

	t.Run("lazy sink sent to before sampling", func(t *testing.T) {
		c := NewCellSinkLazy(func() int { panic("never called") })

		c.Send(1)

		v, err := c.Sample()
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("value", func(t *testing.T) {
		log := []string{}
		c := NewCellSink("a")

		var l *Listener
		Run(func() {
			l = c.Value().ListenValues(func(v string) { log = append(log, v) })
		})
		defer l.Unlisten()

		c.Send("b")

		assert.Equal(t, []string{"a", "b"}, log)
	})

	t.Run("constant", func(t *testing.T) {
		c := Constant(42)

		v, err := c.Sample()
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("map", func(t *testing.T) {
		log := []string{}
		c := NewCellSink(1)

		m := MapCell(c.Cell, func(v int) string { return fmt.Sprint("#", v) })
		l := m.ListenValues(func(v string) { log = append(log, v) })
		defer l.Unlisten()

		c.Send(2)

		assert.Equal(t, []string{"#1", "#2"}, log)
	})

	t.Run("map of a cell updated in the construction transaction", func(t *testing.T) {
		c := NewCellSink(1)

		var m *Cell[int]
		Run(func() {
			c.Send(2)
			m = MapCell(c.Cell, func(v int) int { return v * 10 })
		})

		v, err := m.Sample()
		require.NoError(t, err)
		assert.Equal(t, 20, v)
	})

	t.Run("no glitches", func(t *testing.T) {
		log := []int{}
		x := NewCellSink(0)

		plusOne := MapCell(x.Cell, func(v int) int { return v + 1 })
		double := MapCell(x.Cell, func(v int) int { return v * 2 })
		sum := Lift2(func(a, b int) int { return a + b }, plusOne, double)

		l := sum.ListenValues(func(v int) { log = append(log, v) })
		defer l.Unlisten()

		x.Send(1)
		x.Send(3)

		assert.Equal(t, []int{1, 4, 10}, log)
	})

	t.Run("apply", func(t *testing.T) {
		f := NewCellSink(func(v int) string { return fmt.Sprint("f", v) })
		a := NewCellSink(1)

		out := Apply(f.Cell, a.Cell)

		v, _ := out.Sample()
		assert.Equal(t, "f1", v)

		a.Send(2)
		v, _ = out.Sample()
		assert.Equal(t, "f2", v)

		f.Send(func(v int) string { return fmt.Sprint("g", v) })
		v, _ = out.Sample()
		assert.Equal(t, "g2", v)
	})

	t.Run("lift3 fires once per transaction", func(t *testing.T) {
		log := []int{}
		a := NewCellSink(1)
		b := NewCellSink(2)
		c := NewCellSink(3)

		out := Lift3(func(x, y, z int) int { return x*100 + y*10 + z }, a.Cell, b.Cell, c.Cell)
		l := out.ListenValues(func(v int) { log = append(log, v) })
		defer l.Unlisten()

		Run(func() {
			a.Send(4)
			c.Send(6)
		})

		assert.Equal(t, []int{123, 426}, log)
	})

	t.Run("switch cell", func(t *testing.T) {
		log := []string{}
		first := NewCellSink("a1")
		second := NewCellSink("b1")
		sel := NewCellSink(first.Cell)

		out := SwitchC(sel.Cell)
		l := out.ListenValues(func(v string) { log = append(log, v) })
		defer l.Unlisten()

		first.Send("a2")
		sel.Send(second.Cell)
		first.Send("a3")
		second.Send("b2")

		// switching and updating the new inner together fires once
		Run(func() {
			sel.Send(first.Cell)
			first.Send("a4")
		})

		assert.Equal(t, []string{"a1", "a2", "b1", "b2", "a4"}, log)

		v, err := out.Sample()
		require.NoError(t, err)
		assert.Equal(t, "a4", v)
	})

	t.Run("switch stream", func(t *testing.T) {
		log := []int{}
		a := NewStreamSink[int]()
		b := NewStreamSink[int]()
		sel := NewCellSink(a.Stream)

		out := SwitchS(sel.Cell)
		l := out.ListenValues(func(v int) { log = append(log, v) })
		defer l.Unlisten()

		a.Send(1)
		b.Send(2)
		sel.Send(b.Stream)
		a.Send(3)
		b.Send(4)

		// the old stream still counts for the rest of the switching transaction
		Run(func() {
			sel.Send(a.Stream)
			b.Send(5)
		})
		a.Send(6)

		assert.Equal(t, []int{1, 4, 5, 6}, log)
	})

	t.Run("collect", func(t *testing.T) {
		log := []string{}
		c := NewCellSink(1)

		out := CollectCell(c.Cell, 0, func(v, prev int) (string, int) {
			return fmt.Sprintf("%d->%d", prev, v), v
		})
		l := out.ListenValues(func(v string) { log = append(log, v) })
		defer l.Unlisten()

		c.Send(5)
		c.Send(7)

		assert.Equal(t, []string{"0->1", "1->5", "5->7"}, log)
	})

	t.Run("send error", func(t *testing.T) {
		boom := errors.New("boom")
		c := NewCellSink(1)

		c.SendError(boom)
		_, err := c.Sample()
		assert.ErrorIs(t, err, boom)

		c.Send(2)
		v, err := c.Sample()
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("dispose releases private streams", func(t *testing.T) {
		x := NewCellSink(1)
		m := MapCell(x.Cell, func(v int) int { return v + 1 })

		assert.Len(t, Inspect(x), 4)

		m.Dispose()

		assert.Len(t, Inspect(x), 2)
	})
}

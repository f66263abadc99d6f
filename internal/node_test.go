package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNode(t *testing.T) {
	t.Run("link raises the destination rank", func(t *testing.T) {
		a, b := NewNode("a"), NewNode("b")

		_, changed := a.Link(b, nil)

		assert.True(t, changed)
		assert.Less(t, a.rank, b.rank)
	})

	t.Run("ranks propagate downstream", func(t *testing.T) {
		a, b, c, d := NewNode("a"), NewNode("b"), NewNode("c"), NewNode("d")

		b.Link(c, nil)
		c.Link(d, nil)
		assert.Equal(t, int64(2), d.rank)

		a.Link(NewNode("x"), nil)
		a.rank = 5
		a.Link(b, nil)

		assert.Equal(t, int64(6), b.rank)
		assert.Equal(t, int64(7), c.rank)
		assert.Equal(t, int64(8), d.rank)
	})

	t.Run("no change when already ordered", func(t *testing.T) {
		a, b := NewNode("a"), NewNode("b")
		b.rank = 10

		_, changed := a.Link(b, nil)

		assert.False(t, changed)
		assert.Equal(t, int64(10), b.rank)
	})

	t.Run("cycles terminate", func(t *testing.T) {
		a, b := NewNode("a"), NewNode("b")

		a.Link(b, nil)
		assert.NotPanics(t, func() { b.Link(a, nil) })
	})

	t.Run("terminal is never raised", func(t *testing.T) {
		a := NewNode("a")
		a.rank = 100

		_, changed := a.Link(terminal, nil)
		defer a.Unlink(a.targets[0])

		assert.False(t, changed)
		assert.Equal(t, RankMax, terminal.rank)
	})

	t.Run("unlink", func(t *testing.T) {
		a, b := NewNode("a"), NewNode("b")

		t1, _ := a.Link(b, nil)
		t2, _ := a.Link(b, nil)
		a.Unlink(t1)

		assert.False(t, t1.active())
		assert.True(t, t2.active())
		assert.Equal(t, []*Target{t2}, a.targets)
		assert.Equal(t, int64(1), b.rank)
	})
}

package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeap(t *testing.T) {
	record := func(log *[]string, s string) func(*Transaction) {
		return func(*Transaction) { *log = append(*log, s) }
	}

	drain := func(h *PriorityHeap) {
		for h.Len() > 0 {
			h.Pop()(nil)
		}
	}

	t.Run("rank then arrival", func(t *testing.T) {
		log := []string{}
		low, high := NewNode("low"), NewNode("high")
		high.rank = 3

		h := NewHeap()
		h.Insert(high, record(&log, "high 1"))
		h.Insert(low, record(&log, "low 1"))
		h.Insert(high, record(&log, "high 2"))
		h.Insert(low, record(&log, "low 2"))
		drain(h)

		assert.Equal(t, []string{"low 1", "low 2", "high 1", "high 2"}, log)
	})

	t.Run("regen after a rank change", func(t *testing.T) {
		log := []string{}
		a, b := NewNode("a"), NewNode("b")
		b.rank = 1

		h := NewHeap()
		h.Insert(a, record(&log, "a"))
		h.Insert(b, record(&log, "b"))

		a.rank = 2
		h.Regen()
		drain(h)

		assert.Equal(t, []string{"b", "a"}, log)
	})
}

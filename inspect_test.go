package sodium

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	t.Run("map and hold", func(t *testing.T) {
		s := NewStreamSink[int]()
		Map(s.Stream, func(v int) int { return v * 2 }).Hold(0)

		var buf bytes.Buffer
		require.NoError(t, RenderGraph(&buf, Inspect(s)))

		g.Assert(t, "map_hold", buf.Bytes())
	})

	t.Run("merge", func(t *testing.T) {
		a := NewStreamSink[int]()
		b := NewStreamSink[int]()
		a.Merge(b.Stream, func(l, r int) int { return l + r }).Hold(0)

		var buf bytes.Buffer
		require.NoError(t, RenderGraph(&buf, Inspect(a, b)))

		g.Assert(t, "merge", buf.Bytes())
	})

	t.Run("ranks grow along every edge", func(t *testing.T) {
		s := NewStreamSink[int]()
		in := Map(s.Stream, func(v int) int { return v })

		var total *CellLoop[int]
		Run(func() {
			total = NewCellLoop[int]()
			total.Loop(Snapshot(in, total.Cell, func(a, b int) int { return a + b }).Hold(0))
		})

		infos := Inspect(s)
		ranks := make(map[uint64]int64, len(infos))
		for _, info := range infos {
			ranks[info.ID] = info.Rank
		}

		for _, info := range infos {
			for _, id := range info.Targets {
				assert.Less(t, info.Rank, ranks[id], "%s -> %d", info.Label, id)
			}
		}
	})
}

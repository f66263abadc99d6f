package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "sodiumctl", cmd.Use)

	for _, name := range []string{"replay", "graph"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	t.Run("global flags", func(t *testing.T) {
		verbose := cmd.PersistentFlags().Lookup("verbose")
		require.NotNil(t, verbose)
		assert.Equal(t, "v", verbose.Shorthand)

		format := cmd.PersistentFlags().Lookup("format")
		require.NotNil(t, format)
		assert.Equal(t, "text", format.DefValue)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := execute(t, "--format", "xml", "graph", "testdata/merge.yaml")
		assert.ErrorContains(t, err, "invalid format")
	})
}

func TestReplayCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "replay", "testdata/merge.yaml")
		require.NoError(t, err)

		assert.Equal(t, "step 0: last=0\nstep 1: last=1\nstep 2: last=5\n", out)
	})

	t.Run("json with metrics", func(t *testing.T) {
		out, err := execute(t, "--format", "json", "replay", "--metrics", "testdata/running_total.yaml")
		require.NoError(t, err)

		var got replayOutput
		require.NoError(t, json.Unmarshal([]byte(out), &got))

		assert.Equal(t, "running-total", got.Scenario)
		assert.Len(t, got.Records, 7)
		assert.GreaterOrEqual(t, got.Metrics["sodium_transactions_total"], uint64(4))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "replay", "testdata/nope.yaml")
		assert.ErrorContains(t, err, "failed to read scenario file")
	})
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "graph", "testdata/merge.yaml")
	require.NoError(t, err)

	assert.Equal(t, `n1 sink rank=0 -> n3
n2 sink rank=0 -> n4
n3 merge-left rank=1 -> n4
n4 merge rank=2 -> n5
n5 coalesce rank=3 -> n6
n6 listener rank=max
`, out)
}

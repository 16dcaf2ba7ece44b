package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoot() *cobra.Command {
	root := &cobra.Command{Use: "medassist", Short: "root"}
	AddGlobalFlags(root)

	ask := &cobra.Command{Use: "ask <question>", Short: "Ask a question", RunE: func(*cobra.Command, []string) error { return nil }}
	ask.Flags().StringP("session", "s", "", "Session to continue")
	root.AddCommand(ask)
	return root
}

func TestHandleHelpJSON_Subcommand(t *testing.T) {
	var buf bytes.Buffer

	handled, err := HandleHelpJSON(testRoot(), []string{"ask", "--help-json"}, &buf)

	require.NoError(t, err)
	assert.True(t, handled)
	var schema CommandSchema
	require.NoError(t, json.Unmarshal(buf.Bytes(), &schema))
	assert.Equal(t, "ask", schema.Name)
	require.Len(t, schema.Flags, 1)
	assert.Equal(t, "session", schema.Flags[0].Name)
	assert.Equal(t, "s", schema.Flags[0].Shorthand)
}

func TestHandleHelpJSON_SkipsPositionalArgs(t *testing.T) {
	var buf bytes.Buffer

	handled, err := HandleHelpJSON(testRoot(), []string{"--output", "ask", "--help-json"}, &buf)

	require.NoError(t, err)
	assert.True(t, handled)
	assert.Contains(t, buf.String(), `"name": "ask"`)
}

func TestHandleHelpJSON_NotRequested(t *testing.T) {
	var buf bytes.Buffer

	handled, err := HandleHelpJSON(testRoot(), []string{"ask", "hej"}, &buf)

	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, buf.String())
}

func TestGenerateSchema_ListsSubcommands(t *testing.T) {
	schema := GenerateSchema(testRoot())

	assert.Equal(t, "medassist", schema.Name)
	require.Len(t, schema.Subcommands, 1)
	assert.Equal(t, "ask", schema.Subcommands[0].Name)
}

func TestWantsJSON(t *testing.T) {
	root := testRoot()
	require.NoError(t, root.ParseFlags([]string{"--output"}))

	assert.True(t, WantsJSON(root))
}

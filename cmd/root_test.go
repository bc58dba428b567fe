package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"import", "list", "show", "fields", "conflict", "edit", "reset", "bulk", "export", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "invoice-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestImportCommand_Flags(t *testing.T) {
	flag := importCmd.Flags().Lookup("file")
	require.NotNil(t, flag, "import command should have --file flag")

	replace := importCmd.Flags().Lookup("replace")
	require.NotNil(t, replace)
	assert.Equal(t, "false", replace.DefValue)
}

func TestEditCommand_Flags(t *testing.T) {
	for _, name := range []string{"set", "hold", "file", "json"} {
		assert.NotNil(t, editCmd.Flags().Lookup(name), "edit should have --%s flag", name)
	}
}

func TestBulkCommand_Flags(t *testing.T) {
	for _, name := range []string{"ids", "search", "field", "op", "amount"} {
		assert.NotNil(t, bulkCmd.Flags().Lookup(name), "bulk should have --%s flag", name)
	}
	assert.Equal(t, "set", bulkCmd.Flags().Lookup("op").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	require.NotNil(t, exportCmd.Flags().Lookup("out"))
}

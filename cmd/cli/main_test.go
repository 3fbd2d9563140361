package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nickyhof/CommitKV"
	"github.com/nickyhof/CommitKV/core"
	"github.com/nickyhof/CommitKV/op"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()

	instance, err := CommitKV.Open(nil)
	require.NoError(t, err)

	var out bytes.Buffer
	return newCLI(instance, nil, &out), &out
}

func TestCLIExecute(t *testing.T) {
	cli, out := setupTestCLI(t)

	require.True(t, cli.execute(`insert {"name": "Alice", "age": 30} into alice`), out.String())
	assert.Contains(t, out.String(), "OK")

	out.Reset()
	require.True(t, cli.execute("get alice"), out.String())
	for _, want := range []string{"| field", "| age ", "| 30 ", "| Alice "} {
		assert.Contains(t, out.String(), want)
	}

	out.Reset()
	assert.False(t, cli.execute("get nobody"))
	assert.Contains(t, out.String(), "NotFound")

	out.Reset()
	assert.False(t, cli.execute("insert {"))
	assert.Contains(t, out.String(), "SyntaxError")
	assert.Contains(t, out.String(), "in: insert {")
}

func TestCLIRendersLargeIntegersExactly(t *testing.T) {
	cli, out := setupTestCLI(t)

	require.True(t, cli.execute(`insert {"id": 9007199254740993} into big`), out.String())

	out.Reset()
	require.True(t, cli.execute("get big"), out.String())
	assert.Contains(t, out.String(), "| 9007199254740993 ")
}

func TestCLIListRendersKeys(t *testing.T) {
	cli, out := setupTestCLI(t)

	cli.execute("insert 1 into b")
	cli.execute("insert 2 into a")

	out.Reset()
	cli.handleCommand(".keys")
	text := out.String()
	assert.Contains(t, text, "2 keys")
	assert.Less(t, strings.Index(text, "| a"), strings.Index(text, "| b"), "keys are sorted")
}

func TestCLIAddToHistory(t *testing.T) {
	cli, _ := setupTestCLI(t)

	cli.addToHistory("get a;")
	cli.addToHistory("insert 1 into a;")
	assert.Len(t, cli.history, 2)

	// Adding duplicate of last command should not increase count
	cli.addToHistory("insert 1 into a;")
	assert.Len(t, cli.history, 2)
}

func TestCLIHistoryLimit(t *testing.T) {
	cli, _ := setupTestCLI(t)

	for i := 0; i < 1100; i++ {
		cli.addToHistory("get " + string(rune('a'+i%26)) + strings.Repeat("x", i))
	}

	assert.Len(t, cli.history, maxHistory)
}

func TestCLIHistoryFile(t *testing.T) {
	cli, _ := setupTestCLI(t)
	cli.historyFile = filepath.Join(t.TempDir(), "history")

	cli.addToHistory("list;")
	cli.addToHistory("get a;")
	cli.saveHistory()

	reloaded, _ := setupTestCLI(t)
	reloaded.historyFile = cli.historyFile
	reloaded.loadHistory()

	assert.Equal(t, []string{"list;", "get a;"}, reloaded.history)
}

func TestCLIGetPrompt(t *testing.T) {
	cli, _ := setupTestCLI(t)

	assert.Contains(t, cli.getPrompt(false), "commitkv (default)")
	assert.Contains(t, cli.getPrompt(true), "...>")
}

func TestCLIHandleCommand(t *testing.T) {
	cli, out := setupTestCLI(t)

	tests := []struct {
		command string
		quit    bool
	}{
		{".help", false},
		{".version", false},
		{".history", false},
		{".databases", false},
		{".log", false},
		{".log x", false},
		{".unknown", false},
		{".quit", true},
		{".EXIT", true},
	}

	for _, test := range tests {
		assert.Equal(t, test.quit, cli.handleCommand(test.command), test.command)
	}

	assert.Contains(t, out.String(), "Unknown command: .unknown")
}

func TestCLIUseDatabase(t *testing.T) {
	cli, out := setupTestCLI(t)

	cli.execute("insert 1 into k")
	cli.handleCommand(".use testdb")

	assert.Equal(t, "testdb", cli.database)
	assert.False(t, cli.execute("get k"), "key belongs to the previous database")

	out.Reset()
	cli.handleCommand(".use _system")
	assert.Equal(t, "testdb", cli.database, "reserved database is refused")
	assert.Contains(t, out.String(), "reserved")
}

func TestCLIDatabasesAndLog(t *testing.T) {
	cli, out := setupTestCLI(t)

	cli.execute("insert 1 into a")
	cli.execute("update 2 into a")
	cli.handleCommand(".use other")
	cli.execute("insert 3 into b")

	out.Reset()
	cli.handleCommand(".databases")
	assert.Contains(t, out.String(), "| default")
	assert.Contains(t, out.String(), "| other")

	cli.handleCommand(".use default")
	out.Reset()
	cli.handleCommand(".log 1")
	text := out.String()
	assert.Contains(t, text, "Update data/a")
	assert.NotContains(t, text, "Insert data/a", "log is limited to one commit")
}

func TestCLISnapshotAndRecover(t *testing.T) {
	cli, out := setupTestCLI(t)

	cli.execute(`insert "before" into k`)
	cli.handleCommand(".snapshot v1")
	require.Contains(t, out.String(), "Snapshot v1 of default created")

	cli.execute(`update "after" into k`)
	cli.handleCommand(".recover v1")

	out.Reset()
	cli.execute("get k")
	assert.Contains(t, out.String(), "before")

	out.Reset()
	cli.handleCommand(".recover nope")
	assert.Contains(t, out.String(), "snapshot not found")
}

func TestCLIRun(t *testing.T) {
	cli, out := setupTestCLI(t)

	input := strings.Join([]string{
		`insert {"multi":`,
		`  "line"} into k;`,
		".keys",
		"get k;",
		".quit",
		"get never;",
	}, "\n") + "\n"

	cli.run(strings.NewReader(input))

	text := out.String()
	assert.Contains(t, text, "1 keys", "multi-line insert runs")
	assert.Contains(t, text, "| multi ")
	assert.NotContains(t, text, "never", "input after .quit is ignored")
	assert.Len(t, cli.history, 2)
}

func TestCLIReadOnlyUser(t *testing.T) {
	instance, err := CommitKV.Open(nil)
	require.NoError(t, err)

	_, err = instance.Shared.System.CreateUser("viewer", "viewer-pw", core.Read, instance.Shared.Identity)
	require.NoError(t, err)
	viewer, err := op.LookupUser(instance.Shared, "viewer")
	require.NoError(t, err)

	var out bytes.Buffer
	reader := newCLI(instance, viewer, &out)

	assert.False(t, reader.execute("insert 1 into k"))
	assert.Contains(t, out.String(), "NotAuthorized")

	out.Reset()
	reader.handleCommand(".snapshot v1")
	assert.Contains(t, out.String(), "not authorized", "snapshots need admin")
}

func TestCLIDeletedUser(t *testing.T) {
	instance, err := CommitKV.Open(nil)
	require.NoError(t, err)

	_, err = instance.Shared.System.CreateUser("temp", "temp-pw", core.ReadAndWrite, instance.Shared.Identity)
	require.NoError(t, err)
	temp, err := op.LookupUser(instance.Shared, "temp")
	require.NoError(t, err)

	var out bytes.Buffer
	cli := newCLI(instance, temp, &out)
	require.True(t, cli.execute("insert 1 into k"), out.String())

	_, err = instance.Shared.System.DeleteUser("temp", instance.Shared.Identity)
	require.NoError(t, err)

	out.Reset()
	assert.False(t, cli.execute("get k"))
	assert.Contains(t, out.String(), "no longer exists")
}

func TestVersionVariable(t *testing.T) {
	assert.NotEmpty(t, Version)
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"single statement", "list", 1},
		{"two statements", "get a; get b", 2},
		{"trailing semicolon", "insert 1 into a; insert 2 into b;", 2},
		{"with comments", "-- comment\nlist", 1},
		{"multiline", "insert {\n  \"a\": 1\n} into k;", 1},
		{"empty", "", 0},
		{"only semicolons", ";;;", 0},
		{"string with semicolon", `insert "a;b" into k`, 1},
		{"single quoted semicolon", "insert user (u, password = 'p;w', permission = 'read')", 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Len(t, splitStatements(test.input), test.expected)
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"short", 10, "short"},
		{"this is a long string", 10, "this is..."},
		{"exact", 5, "exact"},
		{"ab", 10, "ab"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, truncate(test.input, test.max), test.input)
	}
}

func TestImportFile(t *testing.T) {
	cli, out := setupTestCLI(t)

	require.NoError(t, cli.importFile("../../examples/people.kv"))
	assert.Contains(t, out.String(), "8 succeeded, 0 failed")

	out.Reset()
	cli.execute("get bob")
	assert.Contains(t, out.String(), "lead designer")

	out.Reset()
	cli.execute("get motto")
	assert.Contains(t, out.String(), "a; semicolon inside a string")
}

func TestImportFileErrors(t *testing.T) {
	cli, out := setupTestCLI(t)

	path := filepath.Join(t.TempDir(), "bad.kv")
	require.NoError(t, os.WriteFile(path, []byte("insert 1 into a;\ninsert 1 into a;\nget;"), 0o644))

	require.NoError(t, cli.importFile(path))
	assert.Contains(t, out.String(), "1 succeeded, 2 failed")
}

func TestImportFileNotFound(t *testing.T) {
	cli, _ := setupTestCLI(t)

	assert.Error(t, cli.importFile("nonexistent.kv"))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0.0005, "<1ms"},
		{0.0052, "5.2ms"},
		{0.25, "250ms"},
		{2.5, "2.5s"},
		{42, "42s"},
		{120, "2m"},
		{125, "2m5s"},
	}

	for _, test := range tests {
		d := time.Duration(test.seconds * float64(time.Second))
		assert.Equal(t, test.expected, formatDuration(d), d.String())
	}
}

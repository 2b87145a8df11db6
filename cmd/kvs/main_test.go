package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runKVS(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestSetGetRemove(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	res := runKVS(t, "", "--dir", dir, "set", "city", "New York")
	require.Equal(exitOK, res.code, res.stderr)
	require.Empty(res.stdout)

	res = runKVS(t, "", "--dir", dir, "get", "city")
	require.Equal(exitOK, res.code, res.stderr)
	require.Equal("New York\n", res.stdout)

	res = runKVS(t, "", "--dir", dir, "rm", "city")
	require.Equal(exitOK, res.code, res.stderr)
	require.Empty(res.stdout)

	res = runKVS(t, "", "--dir", dir, "get", "city")
	require.Equal(exitOK, res.code)
	require.Equal("Key not found\n", res.stdout)
}

func TestRemoveMissingKey(t *testing.T) {
	require := require.New(t)

	res := runKVS(t, "", "--dir", t.TempDir(), "rm", "ghost")
	require.Equal(exitNotFound, res.code)
	require.Equal("Key not found\n", res.stdout)
	require.Empty(res.stderr)
}

func TestWrongArguments(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	for _, args := range [][]string{
		{"set", "only-key"},
		{"get"},
		{"rm", "a", "b"},
		{"bogus"},
	} {
		res := runKVS(t, "", append([]string{"--dir", dir}, args...)...)
		require.Equal(exitError, res.code, "args %q", args)
		require.Contains(res.stderr, "Error:", "args %q", args)
	}
}

func TestConfigFile(t *testing.T) {
	require := require.New(t)

	base := t.TempDir()
	fromFile := filepath.Join(base, "from-file")
	fromFlag := filepath.Join(base, "from-flag")

	cfg := filepath.Join(base, "kvs.yml")
	require.NoError(os.WriteFile(cfg, []byte("dir: "+fromFile+"\nsync_writes: true\n"), 0644))

	res := runKVS(t, "", "--config", cfg, "set", "k", "file")
	require.Equal(exitOK, res.code, res.stderr)
	require.FileExists(filepath.Join(fromFile, "kvs.db"))

	// flags win over the file
	res = runKVS(t, "", "--config", cfg, "--dir", fromFlag, "set", "k", "flag")
	require.Equal(exitOK, res.code, res.stderr)
	require.FileExists(filepath.Join(fromFlag, "kvs.db"))

	res = runKVS(t, "", "--dir", fromFile, "get", "k")
	require.Equal("file\n", res.stdout)

	res = runKVS(t, "", "--config", filepath.Join(base, "missing.yml"), "get", "k")
	require.Equal(exitError, res.code)
}

func TestFormatHeaderMismatch(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	res := runKVS(t, "", "--dir", dir, "--format-header", "set", "k", "v")
	require.Equal(exitOK, res.code, res.stderr)

	res = runKVS(t, "", "--dir", dir, "get", "k")
	require.Equal(exitError, res.code)
	require.Contains(res.stderr, "format header")

	res = runKVS(t, "", "--dir", dir, "--format-header", "get", "k")
	require.Equal(exitOK, res.code, res.stderr)
	require.Equal("v\n", res.stdout)
}

func TestLogLevel(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	res := runKVS(t, "", "--dir", dir, "--log-level", "info", "set", "k", "v")
	require.Equal(exitOK, res.code, res.stderr)
	require.Contains(res.stderr, "opened store")

	res = runKVS(t, "", "--dir", dir, "--log-level", "loud", "get", "k")
	require.Equal(exitError, res.code)
}

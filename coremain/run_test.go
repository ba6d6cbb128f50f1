package coremain

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func Test_loadConfig(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", `
log:
  level: debug
  file: `+filepath.Join(dir, "q.log")+`
harness:
  fail_percent: 10
  string_length: 16
`)

	cfg, used, err := loadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, p, used)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Harness.FailPercent)
	assert.Equal(t, 16, cfg.Harness.StringLength)
	assert.Equal(t, defaultErrorLimit, cfg.Harness.ErrorLimit)
	assert.Equal(t, uint64(1), cfg.Harness.Seed)
}

func Test_loadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	_, _, err := loadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	p := writeFile(t, dir, "bad.yaml", "harness:\n  no_such_key: 1\n")
	_, _, err = loadConfig(p)
	assert.Error(t, err)
}

func Test_loadConfig_Default(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, used, err := loadConfig("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, defaultStringLength, cfg.Harness.StringLength)
}

func Test_runConsole(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", "log:\n  file: "+filepath.Join(dir, "q.log")+"\n")
	script := writeFile(t, dir, "ok.cmd", "new\nit b\nit a\nsort\nrh a\nrh b\n")

	var out bytes.Buffer
	err := runConsole(&runFlags{c: cfgPath, file: script, fail: -1}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Removed b from queue")
	assert.Contains(t, out.String(), "Freeing queue")

	out.Reset()
	err = runConsole(&runFlags{c: cfgPath, fail: -1, verbose: true}, strings.NewReader("new\nit a\nrh z\n"), &out)
	assert.ErrorContains(t, err, "1 errors")
	assert.Contains(t, out.String(), "cmd> rh z")

	err = runConsole(&runFlags{c: cfgPath, file: filepath.Join(dir, "missing.cmd"), fail: -1}, nil, &out)
	assert.Error(t, err)
}

func Test_versionCmd(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, Run())
	assert.Equal(t, version+"\n", out.String())
}

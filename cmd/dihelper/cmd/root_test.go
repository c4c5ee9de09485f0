package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GoCodeAlone/dihelper"
	"github.com/GoCodeAlone/dihelper/cmd/dihelper/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listedBean struct {
	Name  string               `json:"name"`
	Type  string               `json:"type"`
	Init  dihelper.InitConfig  `json:"init"`
	Run   dihelper.RunConfig   `json:"run"`
	Close dihelper.CloseConfig `json:"close"`
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := cmd.NewRootCommand()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	rootCmd := cmd.NewRootCommand()
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "dihelper", rootCmd.Use)

	out, err := execute(t, "--help")
	assert.NoError(t, err)
	assert.Contains(t, out, "reference bean set")
	assert.Contains(t, out, "beans")
	assert.Contains(t, out, "run")
}

func TestVersionInfo(t *testing.T) {
	assert.Contains(t, cmd.PrintVersion(), "dihelper v")

	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dihelper v")
}

func TestBeansCommand_JSON(t *testing.T) {
	out, err := execute(t, "beans", "--json", "--log-level", "error")
	require.NoError(t, err)

	var beans []listedBean
	require.NoError(t, json.Unmarshal([]byte(out), &beans))
	require.Len(t, beans, 8)

	names := make([]string, 0, len(beans))
	for _, b := range beans {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"apple", "red", "redColor", "text", "textList", "numbers", "sum", "heartbeat"}, names)

	assert.Equal(t, "cmd.Fruit", beans[0].Type)
	assert.Equal(t, dihelper.InitConfig{Enabled: false, Order: 1}, beans[2].Init)
	assert.False(t, beans[2].Run.Enabled)
	assert.Equal(t, dihelper.CloseConfig{Enabled: false, Order: 3}, beans[2].Close)
	assert.Equal(t, "[]string", beans[4].Type)
	assert.Equal(t, dihelper.DefaultRunConfig(), beans[6].Run)
	assert.Equal(t, int64(10), beans[7].Run.RepetitionPeriod)
}

func TestBeansCommand_Table(t *testing.T) {
	out, err := execute(t, "beans", "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "redColor")
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "every 10s after 0s")
	assert.Contains(t, out, "once after 0s")
}

func TestBeansCommand_ConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dihelper:
  beans:
    heartbeat:
      run:
        repetitionPeriod: 250
        timeUnit: milliseconds
    sum:
      init:
        order: 5
`), 0o600))

	out, err := execute(t, "beans", "--json", "--log-level", "error", "--config", path)
	require.NoError(t, err)

	var beans []listedBean
	require.NoError(t, json.Unmarshal([]byte(out), &beans))
	require.Len(t, beans, 8)
	assert.Equal(t, 5, beans[6].Init.Order)
	assert.Equal(t, dihelper.RunConfig{Enabled: true, RepetitionPeriod: 250, TimeUnit: dihelper.Milliseconds}, beans[7].Run)
}

func TestBeansCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	ini := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(ini, []byte("x=1"), 0o600))

	_, err := execute(t, "beans", "--config", ini)
	assert.ErrorContains(t, err, "unsupported config file format")

	_, err = execute(t, "beans", "--config", filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = execute(t, "beans", "--log-level", "loud")
	assert.ErrorContains(t, err, "log level")

	_, err = execute(t, "run", "--watch")
	assert.ErrorContains(t, err, "--watch requires --config")
}

func TestReferenceBeansRunHeartbeat(t *testing.T) {
	b := cmd.ReferenceBeans(dihelper.NopLogger())
	p, err := dihelper.NewBeanProvider(b)
	require.NoError(t, err)
	require.NoError(t, p.Init(context.Background()))

	hb, ok := dihelper.GetBean[*cmd.Heartbeat](p, "heartbeat")
	require.True(t, ok)
	require.Eventually(t, func() bool { return hb.Value().Beats() == 1 }, 2*time.Second, 10*time.Millisecond)

	fruit, ok := dihelper.GetBean[cmd.Fruit](p, "apple")
	require.True(t, ok)
	assert.Equal(t, "red", fruit.Value().Color())

	require.NoError(t, p.Shutdown(context.Background()))
}

package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "json", "warn")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", slog.String("k", "v"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger, err = newLogger(&buf, "text", "debug")
	require.NoError(t, err)
	logger.Debug("detail")
	assert.Contains(t, buf.String(), "msg=detail")

	_, err = newLogger(&buf, "xml", "info")
	assert.Error(t, err)
	_, err = newLogger(&buf, "text", "loud")
	assert.Error(t, err)
}

func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func useTestStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Set("mode", "dev")
	viper.Set("driver", "sqlite")
	viper.Set("data", dir)
	viper.Set("dsn", "")
	viper.Set("timezone", "UTC")
	return dir
}

func TestParseCmd(t *testing.T) {
	viper.Set("timezone", "UTC")

	out := run(t, newParseCmd(), "08:06\n10/31\n晚上七點半\nnothing", "--ref", "2025-10-30")
	assert.Contains(t, out, "+ 2025-10-30 08:06  08:06")
	assert.Contains(t, out, "+ 2025-10-31 19:30  晚上七點半")
	assert.Contains(t, out, "2 of 4 lines have a time")

	cmd := newParseCmd()
	cmd.SetIn(strings.NewReader("08:00"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--ref", "30/10"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestSampleCmd(t *testing.T) {
	viper.Set("timezone", "UTC")

	first := run(t, newSampleCmd(), "", "normal", "--seed", "7")
	second := run(t, newSampleCmd(), "", "normal", "--seed", "7")
	assert.Contains(t, first, "normal sample:")
	assert.Contains(t, first, "seed 7")
	assert.Equal(t, first, second)

	cmd := newSampleCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"weird"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestRecordCommands(t *testing.T) {
	dir := useTestStore(t)

	out := run(t, newImportCmd(), "10/30\n08:06\njunk\n21:40")
	assert.Contains(t, out, "imported 2 records from 4 lines (2 skipped)")
	assert.Contains(t, out, "-10-30 08:06")

	out = run(t, newAddCmd(), "", "--category", "5", "07:00")
	assert.Contains(t, out, "07:00")
	assert.Contains(t, out, "水樣")
	assert.Contains(t, out, "manual")

	out = run(t, newListCmd(), "", "--origin", "import")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	uid := strings.Fields(lines[0])[0]
	assert.True(t, strings.HasPrefix(uid, "imp-"), uid)

	out = run(t, newEditCmd(), "", uid, "--time", "09:15", "-c", "2")
	assert.Contains(t, out, "09:15")
	assert.Contains(t, out, "理想")

	out = run(t, newDeleteCmd(), "", uid)
	assert.Contains(t, out, "deleted "+uid)

	csvPath := filepath.Join(dir, "out.csv")
	run(t, newExportCmd(), "", "csv", "-o", csvPath)
	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "date,time,type"))
	assert.Len(t, strings.Split(strings.TrimSpace(string(b)), "\n"), 3)

	out = run(t, newStatsCmd(), "")
	assert.Contains(t, out, "# 排便週報")

	cardPath := filepath.Join(dir, "card.png")
	run(t, newExportCmd(), "", "card", "-o", cardPath, "--dark", "--width", "300")
	info, err := os.Stat(cardPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	cmd := newClearCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(nil)
	assert.Error(t, cmd.ExecuteContext(context.Background()))

	run(t, newClearCmd(), "", "--yes")
	out = run(t, newListCmd(), "")
	assert.Empty(t, strings.TrimSpace(out))
}

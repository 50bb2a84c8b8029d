package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	dp := write("dp.csv", "EFF_DATE,DP_NAME,DP_COMPUTER_CODE,ORIG_GROUP,TRANSITION_COMPUTER_CODE,ROUTE_POINTS\n"+
		"2024-01-25,KAYLN THREE,KAYLN3.KAYLN,KSFO,KAYLN3.SMUUV,KAYLN SMUUV\n")
	star := write("star.csv", "EFF_DATE,ARRIVAL_NAME,STAR_COMPUTER_CODE,DEST_GROUP,TRANSITION_COMPUTER_CODE,ROUTE_POINTS\n"+
		"2024-01-25,WYNDE THREE,WYNDE.WYNDE3,KJFK,SMUUV.WYNDE3,SMUUV WYNDE\n")

	return write("config.toml", fmt.Sprintf(`
[logging]
level = "error"

[reference]
source = "csv"
dp_path = %q
star_path = %q
sqlite_path = %q
`, dp, star, filepath.Join(dir, "ref.db")))
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestResolveCommand(t *testing.T) {
	cfg := writeConfig(t)
	out := run(t, "resolve", "--config", cfg, "KSFO", "KAYLN3SMUUV", "KJFK")
	assert.Contains(t, out, "KSFO KAYLN3.SMUUV KJFK")
}

func TestExpandCommand(t *testing.T) {
	cfg := writeConfig(t)
	out := run(t, "expand", "--config", cfg, "KSFO KAYLN3.SMUUV KJFK")
	assert.Contains(t, out, "KAYLN SMUUV")
}

func TestImportCommand(t *testing.T) {
	cfg := writeConfig(t)
	dp := filepath.Join(filepath.Dir(cfg), "dp.csv")
	out := run(t, "import", "--config", cfg, "--family", "dp", dp)
	assert.Contains(t, out, "imported 1 DP rows")
}

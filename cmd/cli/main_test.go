package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleConfig = "../../examples/config.yaml"

// execute runs the root command. Flags keep their values between runs, so every
// test passes the ones it depends on.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error", "--limit", "0", "--timeline", ""))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSimulateWritesLedger(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "hourly.csv")
	out, err := execute(t, "simulate", "-c", exampleConfig, "--out", csvPath, "--json=false", "--report", "")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Year-one totals (48 hours) ===")
	assert.Contains(t, out, "solar_gen_mwh")

	raw, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 49)
}

func TestLifetimePrintsEveryYear(t *testing.T) {
	out, err := execute(t, "lifetime", "-c", exampleConfig, "--out", "")
	require.NoError(t, err)
	assert.Contains(t, out, "over 5 years")
	// year 4 carries the augmentation marker
	assert.Regexp(t, `(?m)^\s+4 .*\*$`, out)
}

func TestFinancePrintsSummary(t *testing.T) {
	report := filepath.Join(t.TempDir(), "report.md")
	out, err := execute(t, "finance", "-c", exampleConfig, "--report", report, "--revenue", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "project IRR")
	assert.FileExists(t, report)
}

func TestCompareAgainstTotals(t *testing.T) {
	truth := filepath.Join(t.TempDir(), "truth.yaml")
	require.NoError(t, os.WriteFile(truth, []byte("solar_gen_mwh: 1.0\n"), 0o644))

	out, err := execute(t, "compare", "-c", exampleConfig, "--truth-totals", truth, "--truth-hourly", "", "--tolerance", "0", "--report", "")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Worst fields ===")
	assert.Contains(t, out, "total.solar_gen_mwh")
}

func TestCompareNeedsTruth(t *testing.T) {
	_, err := execute(t, "compare", "-c", exampleConfig, "--truth-totals", "", "--truth-hourly", "")
	require.Error(t, err)
}

func TestScenarios(t *testing.T) {
	out, err := execute(t, "scenarios", "-c", exampleConfig, "--dir", "../../examples/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Scenario Summary ===")
	assert.Contains(t, out, "- bigger_battery:")
	assert.Contains(t, out, "- unrestricted:")
}

func TestMissingConfig(t *testing.T) {
	_, err := execute(t, "simulate", "-c", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, mk func(*string) *cobra.Command, args ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cmd := mk(&path)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestCompute_FlagsOverrideDefaults(t *testing.T) {
	out := run(t, computeCmd, "--outdoor-temperature", "-3", "--defrost=false", "--format", "json")

	var got struct {
		Input  map[string]any `json:"input"`
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, -3.0, got.Input["outdoor_temperature"])
	assert.Equal(t, 70.0, got.Input["humidity"], "unset flags keep the configured value")
	assert.Equal(t, false, got.Input["defrost"])
	assert.Equal(t, 1.0, got.Result["defrost_penalty"])
}

func TestCompute_DegenerateKeepsStdoutParseable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cmd := computeCmd(&path)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--outdoor-temperature", "50", "--water-temperature", "30", "--format", "json"})
	require.NoError(t, cmd.Execute())

	var got struct {
		Result map[string]any `json:"result"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got), "stdout: %s", stdout.String())
	assert.Equal(t, true, got.Result["degenerate"])
	assert.Contains(t, stderr.String(), "condenser is not above evaporator")
}

func TestCompute_DegenerateCSVStartsWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cmd := computeCmd(&path)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--outdoor-temperature", "50", "--water-temperature", "30", "--format", "csv"})
	require.NoError(t, cmd.Execute())

	assert.True(t, strings.HasPrefix(stdout.String(), "quantity,value\n"), "stdout: %s", stdout.String())
}

func TestCompute_TableReferencePoint(t *testing.T) {
	out := run(t, computeCmd)
	assert.Contains(t, out, "QUANTITY")
	assert.Regexp(t, `(?m)^cop\s+2\.9161$`, out)
	assert.Regexp(t, `(?m)^rating\s+fair$`, out)
}

func TestSweep_MultipleWaterTemperaturesCSV(t *testing.T) {
	out := run(t, sweepCmd, "--waters", "35, 55", "--from", "-10", "--to", "10", "--points", "3", "--format", "csv")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1+2*3)
	assert.Equal(t, "water_temperature,outdoor_temperature,carnot_cop,ideal_cop,raw_cop,cop", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "35.0000,-10.0000,"))
	assert.True(t, strings.HasPrefix(lines[3], "35.0000,10.0000,"))
	assert.True(t, strings.HasPrefix(lines[4], "55.0000,-10.0000,"))
}

func TestSweep_RejectsBadWaters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cmd := sweepCmd(&path)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--waters", "35,hot"})
	assert.ErrorContains(t, cmd.Execute(), "--waters")
}

func TestSweep_RejectsBadRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cmd := sweepCmd(&path)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--points", "0"})
	assert.Error(t, cmd.Execute())
}

func TestSeasonal_Table(t *testing.T) {
	out := run(t, seasonalCmd)
	for _, label := range []string{"Winter", "Freezing", "Mild", "Spring"} {
		assert.Contains(t, out, label)
	}
}

func TestParseFloats(t *testing.T) {
	got, err := parseFloats("35,45 , 55.5")
	require.NoError(t, err)
	assert.Equal(t, []float64{35, 45, 55.5}, got)

	_, err = parseFloats("35,,45")
	assert.Error(t, err)
}

func TestFlagName(t *testing.T) {
	assert.Equal(t, "delta-t-source", flagName("delta_t_source"))
	assert.Equal(t, "defrost", flagName("defrost"))
}

package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ClientClean/internal/core"
)

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SCRATCH_DIR", t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clients.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCleanCmd(t *testing.T) {
	in := writeCSV(t, "name,number\n"+
		"Ali,01012345678\n"+
		"Sara,00966501234567\n"+
		"Omar,12345\n"+
		",201012345679\n"+
		"Ali,+20 101 234 5678\n")
	out := filepath.Join(t.TempDir(), "result", "out.zip")

	stdout, err := run(t, "clean", in, "--out", out, "--quiet", "--format", "csv", "--show-rejected")
	require.NoError(t, err)

	assert.Regexp(t, `Valid:\s+2\n`, stdout)
	assert.Regexp(t, `Rejected:\s+2\n`, stdout)
	assert.Regexp(t, `Duplicates:\s+1\n`, stdout)
	assert.Contains(t, stdout, core.ReasonInvalidNumber)
	assert.Contains(t, stdout, core.ReasonEmptyName)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "clients_1.csv", zr.File[0].Name)
}

func TestCleanCmd_RejectedOut(t *testing.T) {
	in := writeCSV(t, "name,number\nAli,01012345678\nOmar,12345\n")
	rejected := filepath.Join(t.TempDir(), "rejected.csv")

	_, err := run(t, "clean", in, "-q", "-o", filepath.Join(t.TempDir(), "out.zip"), "--rejected-out", rejected)
	require.NoError(t, err)

	data, err := os.ReadFile(rejected)
	require.NoError(t, err)
	assert.Equal(t, "_line,_reason,name,number\n3,invalid number,Omar,12345\n", string(data))
}

func TestCleanCmd_MaxRows(t *testing.T) {
	in := writeCSV(t, "name,number\n"+
		"A,201000000001\n"+
		"B,201000000002\n"+
		"C,201000000003\n")
	out := filepath.Join(t.TempDir(), "out.zip")

	stdout, err := run(t, "clean", in, "-o", out, "-q", "--max-rows", "2")
	require.NoError(t, err)
	assert.Regexp(t, `Chunks:\s+2\n`, stdout)

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
	assert.Equal(t, "clients_1.xlsx", zr.File[0].Name)
	assert.Equal(t, "clients_2.xlsx", zr.File[1].Name)
}

func TestCleanCmd_Errors(t *testing.T) {
	in := writeCSV(t, "name,phone\nAli,01012345678\n")

	tests := []struct {
		name string
		args []string
		is   error
		msg  string
	}{
		{
			name: "missing column",
			args: []string{"clean", in, "-q", "-o", filepath.Join(t.TempDir(), "x.zip")},
			msg:  "number",
		},
		{
			name: "bad max rows",
			args: []string{"clean", in, "-q", "--max-rows", "0"},
			msg:  "--max-rows",
		},
		{
			name: "bad format",
			args: []string{"clean", in, "-q", "--format", "pdf"},
			is:   core.ErrUnsupportedFormat,
		},
		{
			name: "missing file",
			args: []string{"clean", filepath.Join(t.TempDir(), "nope.csv"), "-q"},
			is:   os.ErrNotExist,
		},
		{
			name: "no args",
			args: []string{"clean"},
			msg:  "accepts 1 arg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestCleanCmd_ColumnErrorIsTyped(t *testing.T) {
	in := writeCSV(t, "name,phone\nAli,01012345678\n")

	_, err := run(t, "clean", in, "-q", "--number-col", "mobile", "-o", filepath.Join(t.TempDir(), "x.zip"))
	require.Error(t, err)

	var colErr *core.ColumnNotFoundError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, []string{"mobile"}, colErr.Missing)
}

func TestCodesCmd(t *testing.T) {
	stdout, err := run(t, "codes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "+20")
	assert.Contains(t, stdout, "EG")
	assert.Contains(t, stdout, "+966")

	stdout, err = run(t, "codes", "--json")
	require.NoError(t, err)

	var codes []struct {
		Prefix string `json:"prefix"`
		Length int    `json:"length"`
		Region string `json:"region"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &codes))
	require.NotEmpty(t, codes)
	assert.Equal(t, "20", codes[0].Prefix)
	assert.Equal(t, 12, codes[0].Length)
	assert.Equal(t, "EG", codes[0].Region)
}

func TestCodesCmd_CustomTable(t *testing.T) {
	t.Setenv("EXPORT_COUNTRY_CODES", "44:12")
	stdout, err := run(t, "codes", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"prefix": "44"`)
	assert.NotContains(t, stdout, `"prefix": "20"`)
}

func TestCleanCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	clean, _, err := cmd.Find([]string{"clean"})
	require.NoError(t, err)

	assert.Equal(t, "name", clean.Flag("name-col").DefValue)
	assert.Equal(t, "number", clean.Flag("number-col").DefValue)
	assert.Equal(t, core.ArchiveName, clean.Flag("out").DefValue)
	assert.Equal(t, "240", clean.Flag("max-rows").DefValue)
	assert.Equal(t, "xlsx", clean.Flag("format").DefValue)
}

func TestVersionCmd(t *testing.T) {
	stdout, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "clientclean dev\n", stdout)
}

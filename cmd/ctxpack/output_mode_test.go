package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNormalizeOutputMode(t *testing.T) {
	cases := map[string]string{
		"print":     outputModePrint,
		"PRINT":     outputModePrint,
		"copy":      outputModeCopy,
		"clipboard": outputModeCopy,
		"ssh-copy":  outputModeSSHCopy,
		"sshcopy":   outputModeSSHCopy,
		"ssh":       outputModeSSHCopy,
		" osc52 ":   outputModeSSHCopy,
	}
	for in, want := range cases {
		got, ok := normalizeOutputMode(in)
		require.Truef(t, ok, "normalizeOutputMode(%q)", in)
		require.Equalf(t, want, got, "normalizeOutputMode(%q)", in)
	}
	_, ok := normalizeOutputMode("bogus")
	require.False(t, ok)
}

func TestResolveOutputMode(t *testing.T) {
	mode, err := resolveOutputMode("", false, false, false)
	require.NoError(t, err)
	require.Equal(t, outputModePrint, mode)

	mode, err = resolveOutputMode("Copy", false, false, false)
	require.NoError(t, err)
	require.Equal(t, outputModeCopy, mode)

	mode, err = resolveOutputMode(outputModeCopy, true, false, false)
	require.NoError(t, err)
	require.Equal(t, outputModePrint, mode, "explicit flag wins over configured mode")

	_, err = resolveOutputMode(outputModePrint, true, true, false)
	require.Error(t, err)
	_, err = resolveOutputMode("fax", false, false, false)
	require.Error(t, err)
}

func TestReadWriteDefaultOutputMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)

	mode, err := readDefaultOutputModeFromFile(path)
	require.NoError(t, err)
	require.Empty(t, mode, "missing file has no mode")

	require.NoError(t, writeDefaultOutputModeToFile(path, outputModeCopy))
	mode, err = readDefaultOutputModeFromFile(path)
	require.NoError(t, err)
	require.Equal(t, outputModeCopy, mode)

	data, err := yaml.Marshal(map[string]any{
		"include": []string{"**/*.go"},
		"exclude": []string{"vendor/"},
		"model":   "gpt-4o",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	// WriteFile keeps the mode of an existing file.
	require.NoError(t, os.Chmod(path, 0o600))

	require.NoError(t, writeDefaultOutputModeToFile(path, "osc52"))
	mode, err = readDefaultOutputModeFromFile(path)
	require.NoError(t, err)
	require.Equal(t, outputModeSSHCopy, mode)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded := map[string]any{}
	require.NoError(t, yaml.Unmarshal(raw, &decoded))
	require.NotNil(t, decoded["include"])
	require.NotNil(t, decoded["exclude"])
	require.Equal(t, "gpt-4o", decoded["model"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.Error(t, writeDefaultOutputModeToFile(path, "bogus"))
}

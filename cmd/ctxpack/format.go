package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/agusx1211/ctxpack"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func normalizeFormat(format string) (string, error) {
	switch f := strings.TrimSpace(strings.ToLower(format)); f {
	case "", formatText, "txt":
		return formatText, nil
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("invalid format %q (expected text, json, or yaml)", format)
	}
}

// renderResult returns what gets printed, copied or saved: the document
// itself for text, the whole result otherwise.
func renderResult(result ctxpack.ScanResult, format string) (string, error) {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode result as json: %w", err)
		}
		return string(data) + "\n", nil
	case formatYAML:
		data, err := yaml.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("failed to encode result as yaml: %w", err)
		}
		return string(data), nil
	default:
		return result.Content, nil
	}
}

func printSummary(w io.Writer, result ctxpack.ScanResult) {
	fmt.Fprintf(w, "- Total files: %d\n", result.Stats.TotalFiles)
	fmt.Fprintf(w, "- Total tokens: %d\n", result.Stats.TotalTokens)
	fmt.Fprintf(w, "- Total chars: %d\n", result.Stats.TotalChars)
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "WARNING: possible %s in %s\n", warning.Type, warning.File)
	}
}

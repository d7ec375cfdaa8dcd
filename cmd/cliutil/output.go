// Package cliutil holds argument parsing and output helpers shared by the commands.
package cliutil

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Write encodes v to w in format.
func Write(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q, use %s or %s", format, FormatJSON, FormatYAML)
	}
}

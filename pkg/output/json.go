package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sambabib/portability-analyzer/pkg/analyzer"
)

// GenerateJSONReport converts an analysis response to indented JSON.
func GenerateJSONReport(resp *analyzer.AnalyzeResponse) ([]byte, error) {
	return json.MarshalIndent(resp, "", "  ")
}

// Write renders resp to out in the given format ("text" or "json").
func Write(out io.Writer, format string, resp *analyzer.AnalyzeResponse) error {
	switch strings.ToLower(format) {
	case "json":
		data, err := GenerateJSONReport(resp)
		if err != nil {
			return fmt.Errorf("failed to marshal report to JSON: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "text", "":
		return PrintTextReport(out, resp)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

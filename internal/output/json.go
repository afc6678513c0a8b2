package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"text/tabwriter"
)

// OutputMode is the process-wide default rendering mode.
type OutputMode string

const (
	OutputModeText OutputMode = "text"
	OutputModeJSON OutputMode = "json"
)

var outputMode atomic.Value

// SetOutputMode switches the process-wide mode.
func SetOutputMode(jsonMode bool) {
	if jsonMode {
		outputMode.Store(OutputModeJSON)
		return
	}
	outputMode.Store(OutputModeText)
}

// GetOutputMode returns the current mode, text when unset.
func GetOutputMode() OutputMode {
	if m, ok := outputMode.Load().(OutputMode); ok {
		return m
	}
	return OutputModeText
}

// IsJSON reports whether JSON mode is active.
func IsJSON() bool {
	return GetOutputMode() == OutputModeJSON
}

// ErrorPayload is the structured error body.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputJSON writes v to stdout as indented JSON.
func OutputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// OutputJSONError writes err to stdout as an ErrorPayload.
func OutputJSONError(err error, code int) error {
	return OutputJSON(ErrorPayload{
		Error:   "error",
		Message: err.Error(),
		Details: map[string]any{"code": code},
	})
}

// OutputTable writes an aligned table to stderr.
func OutputTable(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

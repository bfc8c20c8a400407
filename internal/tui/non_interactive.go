package tui

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/unibundle/unibundle/internal/core"
)

// NonInteractiveCallback handles quiet and JSON output modes.
type NonInteractiveCallback struct {
	flags core.NonInteractiveFlags
}

// NewNonInteractiveCallback creates a new non-interactive callback
func NewNonInteractiveCallback(flags core.NonInteractiveFlags) *NonInteractiveCallback {
	return &NonInteractiveCallback{flags: flags}
}

// StageStarted prints stage progress in normal mode only.
func (n *NonInteractiveCallback) StageStarted(stage string) {
	if n.flags.Mode == core.OutputNormal {
		fmt.Println("-> " + stage)
	}
}

// FileProcessed is silent in non-interactive mode.
func (n *NonInteractiveCallback) FileProcessed(string) {}

// ShowError displays an error message
func (n *NonInteractiveCallback) ShowError(title, message string) {
	if n.flags.Mode == core.OutputJSON {
		n.formatJSON(core.JSONOutput{
			Status: "error",
			Error: &core.JSONError{
				Title:   title,
				Message: message,
			},
		})
	} else {
		// Errors print even in quiet mode; failures must never be silent.
		fmt.Fprintf(os.Stderr, "Error: %s - %s\n", title, message)
	}
}

// ShowSuccess displays a success message
func (n *NonInteractiveCallback) ShowSuccess(message string) {
	if n.flags.Mode == core.OutputJSON {
		n.formatJSON(core.JSONOutput{
			Status:  "success",
			Message: message,
		})
	} else if n.flags.Mode != core.OutputQuiet {
		fmt.Println(message)
	}
}

// ShowWarning displays a warning message
func (n *NonInteractiveCallback) ShowWarning(title, message string) {
	if n.flags.Mode == core.OutputJSON {
		n.formatJSON(core.JSONOutput{
			Status:  "warning",
			Message: fmt.Sprintf("%s: %s", title, message),
		})
	} else if n.flags.Mode != core.OutputQuiet {
		fmt.Fprintf(os.Stderr, "Warning: %s - %s\n", title, message)
	}
}

// formatJSON writes a JSON output line to stdout.
func (n *NonInteractiveCallback) formatJSON(out core.JSONOutput) {
	data, err := json.Marshal(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to format JSON output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

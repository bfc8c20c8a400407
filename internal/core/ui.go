package core

// OutputMode controls how output is displayed
type OutputMode int

// OutputMode constants define available output formatting modes.
const (
	OutputNormal OutputMode = iota // Default: styled output
	OutputQuiet                    // Minimal output
	OutputJSON                     // Structured JSON
)

// NonInteractiveFlags groups all non-interactive options
type NonInteractiveFlags struct {
	Yes  bool       // Auto-approve prompts
	Mode OutputMode // Output formatting mode
}

// JSONOutput represents structured output
type JSONOutput struct {
	Status  string     `json:"status"`            // "success", "error", "warning"
	Message string     `json:"message,omitempty"` // Optional message
	Error   *JSONError `json:"error,omitempty"`   // Error details
}

// JSONError represents error information in JSON output
type JSONError struct {
	Title   string `json:"title"`   // Error title
	Message string `json:"message"` // Error message
}

// UICallback receives pipeline progress and result notifications.
// The pipeline never prints directly; the CLI layer chooses the
// implementation (styled terminal, progress bar, JSON, silent).
type UICallback interface {
	// StageStarted announces a pipeline stage about to run.
	StageStarted(stage string)
	// FileProcessed reports one file handled within the current stage.
	FileProcessed(path string)
	// ShowError displays a fatal error.
	ShowError(title, message string)
	// ShowSuccess displays the final success message.
	ShowSuccess(message string)
	// ShowWarning displays a non-fatal notice.
	ShowWarning(title, message string)
}

// SilentUICallback discards all notifications. Used as the default when no
// UI is attached and throughout tests.
type SilentUICallback struct{}

// StageStarted implements UICallback
func (s *SilentUICallback) StageStarted(string) {}

// FileProcessed implements UICallback
func (s *SilentUICallback) FileProcessed(string) {}

// ShowError implements UICallback
func (s *SilentUICallback) ShowError(string, string) {}

// ShowSuccess implements UICallback
func (s *SilentUICallback) ShowSuccess(string) {}

// ShowWarning implements UICallback
func (s *SilentUICallback) ShowWarning(string, string) {}

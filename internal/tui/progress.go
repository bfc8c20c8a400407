package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ========================================
// Bubbletea Progress Model
// ========================================

// progressModel renders pipeline stage progress as a bar with the current
// stage name beneath it.
type progressModel struct {
	current int
	total   int
	label   string
	message string
	done    bool
	failed  bool
	err     error
	width   int
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case stageMsg:
		m.current++
		m.message = msg.stage
	case detailMsg:
		m.message = msg.detail
	case completeMsg:
		m.done = true
		return m, tea.Quit
	case failMsg:
		m.failed = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return styleSuccess.Render(fmt.Sprintf("✓ %s (%d/%d stages)", m.label, m.current, m.total))
	}
	if m.failed {
		return styleErr.Render(fmt.Sprintf("✗ %s (failed: %v)", m.label, m.err))
	}

	percent := float64(m.current) / float64(m.total)
	barWidth := 40
	if m.width > 0 && m.width < 80 {
		barWidth = 20
	}
	filled := int(percent * float64(barWidth))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	status := fmt.Sprintf("[%s] %d/%d", bar, m.current, m.total)
	if m.message != "" {
		status += fmt.Sprintf(" - %s", m.message)
	}
	return fmt.Sprintf("%s\n%s", styleTitle.Render(m.label), status)
}

// ========================================
// Bubbletea Messages
// ========================================

type stageMsg struct {
	stage string
}

type detailMsg struct {
	detail string
}

type completeMsg struct{}

type failMsg struct {
	err error
}

// ========================================
// ProgressUI
// ========================================

// ProgressUI implements core.UICallback by driving a bubbletea progress
// display in a background goroutine. Use on interactive terminals only;
// call Wait after the pipeline returns so the final frame is rendered.
type ProgressUI struct {
	program *tea.Program
	done    chan struct{}
}

// NewProgressUI starts the progress display for a pipeline with the given
// number of stages.
func NewProgressUI(label string, totalStages int) *ProgressUI {
	ui := &ProgressUI{
		program: tea.NewProgram(progressModel{label: label, total: totalStages}),
		done:    make(chan struct{}),
	}
	go func() {
		_, _ = ui.program.Run()
		close(ui.done)
	}()
	return ui
}

// StageStarted advances the bar to the next stage.
func (u *ProgressUI) StageStarted(stage string) {
	u.program.Send(stageMsg{stage: stage})
}

// FileProcessed shows the file currently being handled.
func (u *ProgressUI) FileProcessed(path string) {
	u.program.Send(detailMsg{detail: path})
}

// ShowError finishes the display in the failed state.
func (u *ProgressUI) ShowError(title, message string) {
	u.program.Send(failMsg{err: fmt.Errorf("%s: %s", title, message)})
}

// ShowSuccess finishes the display in the completed state.
func (u *ProgressUI) ShowSuccess(string) {
	u.program.Send(completeMsg{})
}

// ShowWarning updates the detail line; warnings do not stop the display.
func (u *ProgressUI) ShowWarning(title, message string) {
	u.program.Send(detailMsg{detail: title + ": " + message})
}

// Wait blocks until the display has rendered its final frame.
func (u *ProgressUI) Wait() {
	<-u.done
}

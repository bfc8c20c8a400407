package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/unibundle/unibundle/internal/config"
	"github.com/unibundle/unibundle/internal/core"
	"github.com/unibundle/unibundle/internal/logging"
	"github.com/unibundle/unibundle/internal/tui"
	"github.com/unibundle/unibundle/internal/types"
)

var mergeFlags struct {
	x64Path      string
	arm64Path    string
	outPath      string
	force        bool
	report       string
	archAgnostic []string
	quiet        bool
	jsonOut      bool
	verbose      bool
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge an x64 and an arm64 app bundle into one universal bundle",
	Long: `Merge verifies the two input bundles are identical apart from
architecture-specific files, lipo-merges every executable, repackages the
application code of both architectures under tagged names with a dispatch
launcher, and merges Info.plist integrity records. The output path is
only written once the merge has fully succeeded.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeFlags.x64Path, "x64", "", "path to the x64 .app bundle (required)")
	mergeCmd.Flags().StringVar(&mergeFlags.arm64Path, "arm64", "", "path to the arm64 .app bundle (required)")
	mergeCmd.Flags().StringVarP(&mergeFlags.outPath, "out", "o", "", "path for the universal .app bundle (required)")
	mergeCmd.Flags().BoolVarP(&mergeFlags.force, "force", "f", false, "replace the output path if it already exists")
	mergeCmd.Flags().StringVar(&mergeFlags.report, "report", "", "write a YAML merge report to this path")
	mergeCmd.Flags().StringArrayVar(&mergeFlags.archAgnostic, "arch-agnostic", nil, "glob pattern for plain files allowed to differ (repeatable)")
	mergeCmd.Flags().BoolVarP(&mergeFlags.quiet, "quiet", "q", false, "minimal output")
	mergeCmd.Flags().BoolVar(&mergeFlags.jsonOut, "json", false, "JSON output")
	mergeCmd.Flags().BoolVarP(&mergeFlags.verbose, "verbose", "v", false, "debug logging")
	_ = mergeCmd.MarkFlagRequired("x64")
	_ = mergeCmd.MarkFlagRequired("arm64")
	_ = mergeCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	if err := preflight(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts, err := buildMergeOptions(cfg)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if mergeFlags.verbose {
		level = logging.LevelDebug
	}
	log := logging.New(os.Stderr, level)

	// Interactive terminals get one chance to approve an overwrite; the
	// pipeline itself still refuses unless force is set.
	if !opts.Force && tui.IsInteractive() {
		if _, err := os.Stat(opts.OutPath); err == nil {
			if tui.AskConfirmation("Output exists", fmt.Sprintf("Replace %s?", opts.OutPath)) {
				opts.Force = true
			}
		}
	}

	ui, progress := pickCallback()
	manager := core.NewManager(log, ui)

	err = manager.Merge(cmd.Context(), opts)
	if err != nil {
		ui.ShowError("Merge failed", err.Error())
		if progress != nil {
			progress.Wait()
		}
		return describeFailure(err)
	}
	if progress != nil {
		progress.Wait()
	}
	return nil
}

// preflight verifies the external tools the pipeline shells out to are
// present before any work starts.
func preflight() error {
	if !core.IsFileProbeInstalled() {
		return errors.New("file(1) not found in PATH; it is required to identify native executables")
	}
	if !core.IsLipoInstalled() {
		return errors.New("lipo not found in PATH; install the Xcode command line tools")
	}
	return nil
}

// buildMergeOptions combines flags with config defaults and makes the
// three paths absolute.
func buildMergeOptions(cfg *config.Config) (types.MergeOptions, error) {
	opts := types.MergeOptions{
		Force:                mergeFlags.force,
		TempRoot:             cfg.Merge.TempRoot,
		ReportPath:           mergeFlags.report,
		ArchAgnosticPatterns: append(cfg.Merge.ArchAgnosticPatterns, mergeFlags.archAgnostic...),
	}
	if opts.ReportPath == "" {
		opts.ReportPath = cfg.Merge.Report
	}

	var err error
	if opts.X64Path, err = filepath.Abs(mergeFlags.x64Path); err != nil {
		return opts, err
	}
	if opts.Arm64Path, err = filepath.Abs(mergeFlags.arm64Path); err != nil {
		return opts, err
	}
	if opts.OutPath, err = filepath.Abs(mergeFlags.outPath); err != nil {
		return opts, err
	}
	if opts.ReportPath != "" {
		if opts.ReportPath, err = filepath.Abs(opts.ReportPath); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// pickCallback selects the UI implementation for this run. The returned
// ProgressUI is non-nil only when the bubbletea display is active.
func pickCallback() (core.UICallback, *tui.ProgressUI) {
	switch {
	case mergeFlags.jsonOut:
		return tui.NewNonInteractiveCallback(core.NonInteractiveFlags{Mode: core.OutputJSON}), nil
	case mergeFlags.quiet:
		return tui.NewNonInteractiveCallback(core.NonInteractiveFlags{Mode: core.OutputQuiet}), nil
	case tui.IsInteractive():
		progress := tui.NewProgressUI("Merging universal bundle", len(core.MergeStages))
		return progress, progress
	default:
		return tui.NewStyledCallback(), nil
	}
}

// describeFailure adds a hint for the most common failure classes without
// rewrapping the underlying error.
func describeFailure(err error) error {
	var setErr *core.FileSetMismatchError
	if errors.As(err, &setErr) {
		return fmt.Errorf("%w\n\nThe two bundles were not built from the same inputs. "+
			"If a listed file is intentionally architecture-specific, pass --arch-agnostic with a matching pattern", err)
	}
	return err
}

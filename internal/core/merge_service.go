package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/unibundle/unibundle/internal/logging"
	"github.com/unibundle/unibundle/internal/types"
)

// MergeStages lists the pipeline stage names in execution order. Exposed
// so UI implementations can size progress displays.
var MergeStages = []string{
	"validate inputs",
	"detect packaging",
	"stage copy",
	"scan bundles",
	"validate consistency",
	"merge executables",
	"repackage app code",
	"copy snapshots",
	"merge property lists",
	"finalize",
}

// MergeServiceInterface defines the contract for running the full merge
// pipeline.
type MergeServiceInterface interface {
	Merge(ctx context.Context, opts types.MergeOptions) error
}

// Compile-time interface satisfaction check.
var _ MergeServiceInterface = (*MergeService)(nil)

// MergeService sequences the pipeline against a disposable staging copy of
// the x64 bundle. The two input bundles are never written; the output path
// is only populated by the final move, so no partially merged bundle is
// ever visible there.
type MergeService struct {
	fsys      FileSystem
	scanner   ScanServiceInterface
	validator ValidationServiceInterface
	binaries  BinaryMergeServiceInterface
	repack    AsarServiceInterface
	plists    PlistMergeServiceInterface
	ui        UICallback
	log       *logging.Logger
}

// NewMergeService creates a new MergeService
func NewMergeService(
	fsys FileSystem,
	scanner ScanServiceInterface,
	validator ValidationServiceInterface,
	binaries BinaryMergeServiceInterface,
	repack AsarServiceInterface,
	plists PlistMergeServiceInterface,
	ui UICallback,
	log *logging.Logger,
) *MergeService {
	if ui == nil {
		ui = &SilentUICallback{}
	}
	return &MergeService{
		fsys:      fsys,
		scanner:   scanner,
		validator: validator,
		binaries:  binaries,
		repack:    repack,
		plists:    plists,
		ui:        ui,
		log:       log,
	}
}

// Merge runs the pipeline: validate inputs, detect packaging modes, stage a
// copy of the x64 bundle, scan both trees, validate consistency, merge
// executables, repackage app code, copy snapshots, merge property lists,
// then move the staging bundle to the output path. The staging directory is
// removed on every exit path.
func (s *MergeService) Merge(ctx context.Context, opts types.MergeOptions) error {
	mergeID := uuid.NewString()[:8]
	log := s.log.With("merge_id", mergeID)
	log.Info("merge starting",
		"x64", opts.X64Path, "arm64", opts.Arm64Path, "out", opts.OutPath, "force", opts.Force)

	s.ui.StageStarted(MergeStages[0])
	if err := s.validateInputs(opts); err != nil {
		return err
	}

	s.ui.StageStarted(MergeStages[1])
	mode, err := s.detectModes(opts)
	if err != nil {
		return err
	}
	log.Info("packaging mode detected", "mode", mode.String())

	s.ui.StageStarted(MergeStages[2])
	stagingDir, err := s.fsys.CreateTemp(opts.TempRoot, "unibundle-"+mergeID+"-*")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		if err := s.fsys.RemoveAll(stagingDir); err != nil {
			log.Warn("staging cleanup failed", "dir", stagingDir, "error", err)
		}
	}()

	stagedApp := filepath.Join(stagingDir, filepath.Base(opts.OutPath))
	if _, err := s.fsys.CopyDir(opts.X64Path, stagedApp); err != nil {
		return fmt.Errorf("stage x64 bundle: %w", err)
	}

	s.ui.StageStarted(MergeStages[3])
	stagingScan, err := s.scanner.Scan(ctx, stagedApp)
	if err != nil {
		return fmt.Errorf("scan staged bundle: %w", err)
	}
	arm64Scan, err := s.scanner.Scan(ctx, opts.Arm64Path)
	if err != nil {
		return fmt.Errorf("scan arm64 bundle: %w", err)
	}
	log.Info("bundles scanned", "staging_files", len(stagingScan.Files), "arm64_files", len(arm64Scan.Files))

	s.ui.StageStarted(MergeStages[4])
	if err := s.validator.Validate(stagingScan, arm64Scan, opts.ArchAgnosticPatterns); err != nil {
		return err
	}

	s.ui.StageStarted(MergeStages[5])
	mergedCount, err := s.binaries.MergeBinaries(ctx, stagedApp, stagingScan, opts.X64Path, opts.Arm64Path)
	if err != nil {
		return err
	}
	log.Info("executables merged", "count", mergedCount)

	s.ui.StageStarted(MergeStages[6])
	if err := s.repack.Repackage(ctx, stagedApp, opts.Arm64Path, mode); err != nil {
		return err
	}

	s.ui.StageStarted(MergeStages[7])
	snapshots, err := s.repack.CopySnapshots(arm64Scan, stagedApp)
	if err != nil {
		return err
	}
	log.Info("snapshots copied", "count", snapshots)

	s.ui.StageStarted(MergeStages[8])
	integrity, err := s.plists.MergePlists(stagedApp, opts.Arm64Path, stagingScan)
	if err != nil {
		return err
	}

	if opts.ReportPath != "" {
		if err := s.writeReport(ctx, opts, mergeID, mode, mergedCount, integrity, stagedApp); err != nil {
			return err
		}
	}

	s.ui.StageStarted(MergeStages[9])
	if err := s.fsys.Move(stagedApp, opts.OutPath); err != nil {
		return fmt.Errorf("move merged bundle into place: %w", err)
	}

	log.Info("merge complete", "out", opts.OutPath)
	s.ui.ShowSuccess(fmt.Sprintf("Universal bundle written to %s", opts.OutPath))
	return nil
}

// validateInputs enforces absolute paths and the output-path overwrite
// policy. Runs before any filesystem mutation; removing a pre-existing
// output under force is the one exception, and it happens here so a later
// failure can never leave a half-written bundle at the output path.
func (s *MergeService) validateInputs(opts types.MergeOptions) error {
	for _, p := range []string{opts.X64Path, opts.Arm64Path, opts.OutPath} {
		if !filepath.IsAbs(p) {
			return fmt.Errorf("%w: %s", ErrNotAbsolutePath, p)
		}
	}
	for _, p := range []string{opts.X64Path, opts.Arm64Path} {
		info, err := s.fsys.Stat(p)
		if err != nil {
			return fmt.Errorf("input bundle %s: %w", p, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("input bundle %s is not a directory", p)
		}
	}

	if _, err := s.fsys.Stat(opts.OutPath); err == nil {
		if !opts.Force {
			return fmt.Errorf("%w: %s", ErrOutputExists, opts.OutPath)
		}
		if err := s.fsys.RemoveAll(opts.OutPath); err != nil {
			return fmt.Errorf("remove existing output: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("check output path: %w", err)
	}
	return nil
}

// detectModes checks both bundles independently and fails on disagreement.
func (s *MergeService) detectModes(opts types.MergeOptions) (types.PackagingMode, error) {
	x64Mode, err := s.repack.DetectMode(opts.X64Path)
	if err != nil {
		return 0, fmt.Errorf("detect x64 packaging: %w", err)
	}
	arm64Mode, err := s.repack.DetectMode(opts.Arm64Path)
	if err != nil {
		return 0, fmt.Errorf("detect arm64 packaging: %w", err)
	}
	if x64Mode != arm64Mode {
		return 0, fmt.Errorf("%w: x64 is %s, arm64 is %s", ErrPackagingModeMismatch, x64Mode, arm64Mode)
	}
	return x64Mode, nil
}

// writeReport scans the finished staging bundle and persists the YAML
// merge report.
func (s *MergeService) writeReport(
	ctx context.Context,
	opts types.MergeOptions,
	mergeID string,
	mode types.PackagingMode,
	mergedCount int,
	integrity map[string]types.IntegrityEntry,
	stagedApp string,
) error {
	finalScan, err := s.scanner.Scan(ctx, stagedApp)
	if err != nil {
		return fmt.Errorf("scan merged bundle for report: %w", err)
	}

	report := types.MergeReport{
		GeneratedAt: time.Now().UTC(),
		MergeID:     mergeID,
		X64Path:     opts.X64Path,
		Arm64Path:   opts.Arm64Path,
		OutPath:     opts.OutPath,
		Mode:        mode.String(),
		Universal:   mergedCount,
		Integrity:   make(map[string]string, len(integrity)),
	}
	for key, entry := range integrity {
		report.Integrity[key] = entry.Algorithm + ":" + entry.Hash
	}
	for _, f := range finalScan.Files {
		digest, err := HashFile(filepath.Join(stagedApp, filepath.FromSlash(f.RelPath)))
		if err != nil {
			return fmt.Errorf("hash %s for report: %w", f.RelPath, err)
		}
		report.Files = append(report.Files, types.ReportFile{
			Path:   f.RelPath,
			Type:   f.Type.String(),
			SHA256: digest,
		})
	}

	store := NewYAMLStore[types.MergeReport](filepath.Dir(opts.ReportPath), filepath.Base(opts.ReportPath), false)
	if err := store.Save(report); err != nil {
		return fmt.Errorf("write merge report: %w", err)
	}
	return nil
}

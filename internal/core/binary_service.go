package core

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/unibundle/unibundle/internal/logging"
	"github.com/unibundle/unibundle/internal/types"
)

// BinaryMergeServiceInterface defines the contract for combining matched
// per-architecture executables into universal ones.
type BinaryMergeServiceInterface interface {
	MergeBinaries(ctx context.Context, stagingRoot string, staging types.ScanResult, x64Root, arm64Root string) (int, error)
}

// Compile-time interface satisfaction check.
var _ BinaryMergeServiceInterface = (*BinaryMergeService)(nil)

// BinaryMergeService lipo-merges every Mach-O file in the staging copy with
// its counterpart from the arm64 bundle. The earlier set validation already
// guaranteed every executable path exists on both sides, so a missing
// counterpart here surfaces as a combiner error rather than being checked
// again.
type BinaryMergeService struct {
	combiner BinaryCombiner
	ui       UICallback
	log      *logging.Logger
}

// NewBinaryMergeService creates a new BinaryMergeService
func NewBinaryMergeService(combiner BinaryCombiner, ui UICallback, log *logging.Logger) *BinaryMergeService {
	if ui == nil {
		ui = &SilentUICallback{}
	}
	return &BinaryMergeService{combiner: combiner, ui: ui, log: log}
}

// MergeBinaries combines each executable pair, overwriting the staging
// copy's file, and returns the number of merged executables. The inputs are
// read from the untouched source bundles so the combiner never reads the
// file it is writing. Any combine failure aborts the merge.
func (s *BinaryMergeService) MergeBinaries(ctx context.Context, stagingRoot string, staging types.ScanResult, x64Root, arm64Root string) (int, error) {
	merged := 0
	for _, f := range staging.OfType(types.MachO) {
		native := filepath.FromSlash(f.RelPath)
		x64Path := filepath.Join(x64Root, native)
		arm64Path := filepath.Join(arm64Root, native)
		outPath := filepath.Join(stagingRoot, native)

		s.log.Debug("merging executable", "path", f.RelPath)
		if err := s.combiner.Combine(ctx, x64Path, arm64Path, outPath); err != nil {
			return merged, fmt.Errorf("combine %s: %w", f.RelPath, err)
		}
		s.ui.FileProcessed(f.RelPath)
		merged++
	}
	return merged, nil
}

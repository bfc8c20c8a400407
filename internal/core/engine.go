// Package core implements the universal bundle merge pipeline: scanning,
// validation, binary merging, asar repackaging, plist merging and the
// orchestration that sequences them against a staging copy.
package core

import (
	"context"
	"os/exec"

	"github.com/unibundle/unibundle/internal/logging"
	"github.com/unibundle/unibundle/internal/types"
)

// Bundle layout names. These are the fixed Electron conventions the merge
// recognizes inside a .app bundle.
const (
	// ResourcesDir is the bundle-relative resources directory.
	ResourcesDir = "Contents/Resources"
	// AsarName is the canonical packed code artifact filename.
	AsarName = "app.asar"
	// AppDirName is the canonical unpacked code directory name.
	AppDirName = "app"
	// UnpackedSuffix marks the companion directory of files shipped outside
	// a packed asar (app.asar.unpacked).
	UnpackedSuffix = ".unpacked"
	// LauncherName is the generated architecture-dispatch module.
	LauncherName = "index.js"
	// PackageJSONName is the application package descriptor inside the
	// code artifact.
	PackageJSONName = "package.json"
	// EntryPointField is the package descriptor field naming the module
	// loaded at startup.
	EntryPointField = "main"
	// InfoPlistName is the metadata property-list basename.
	InfoPlistName = "Info.plist"
	// SnapshotExt is the extension of precompiled V8 snapshot blobs.
	SnapshotExt = ".bin"
	// MachOPrefix is the file(1) output prefix identifying native executables.
	MachOPrefix = "Mach-O"
	// IntegrityKey is the Info.plist key holding asar integrity records.
	IntegrityKey = "ElectronAsarIntegrity"
	// IntegrityAlgorithm names the hash algorithm recorded for new artifacts.
	IntegrityAlgorithm = "SHA256"
)

// Architecture tags used in renamed per-architecture artifacts.
const (
	ArchX64   = "x64"
	ArchArm64 = "arm64"
)

// AsarRelPath is the canonical code artifact path relative to the bundle root.
const AsarRelPath = ResourcesDir + "/" + AsarName

// AppDirRelPath is the canonical code directory path relative to the bundle root.
const AppDirRelPath = ResourcesDir + "/" + AppDirName

// TaggedAsarName returns the architecture-tagged asar filename, e.g.
// "app-x64.asar".
func TaggedAsarName(arch string) string {
	return "app-" + arch + ".asar"
}

// TaggedAppDirName returns the architecture-tagged code directory name,
// e.g. "app-arm64".
func TaggedAppDirName(arch string) string {
	return "app-" + arch
}

// IntegrityPathKey returns the Info.plist integrity record key for an asar
// filename. Keys are relative to Contents, e.g. "Resources/app.asar".
func IntegrityPathKey(asarName string) string {
	return "Resources/" + asarName
}

// Manager wires the merge pipeline with its default collaborators.
// It is the entry point used by the CLI layer.
type Manager struct {
	merge MergeServiceInterface
}

// NewManager creates a Manager backed by the real filesystem, the system
// file(1) probe and lipo(1).
func NewManager(log *logging.Logger, ui UICallback) *Manager {
	if ui == nil {
		ui = &SilentUICallback{}
	}

	fs := NewOSFileSystem()
	probe := NewSystemFileProbe()
	combiner := NewLipoCombiner()
	archive := NewAsarArchive()

	scanner := NewScanService(probe)
	validator := NewValidationService()
	binaries := NewBinaryMergeService(combiner, ui, log)
	repack := NewAsarService(fs, archive, log)
	plists := NewPlistMergeService(fs, archive)

	return &Manager{
		merge: NewMergeService(fs, scanner, validator, binaries, repack, plists, ui, log),
	}
}

// NewManagerWithMergeService creates a Manager around a custom merge service
// (useful for testing).
func NewManagerWithMergeService(merge MergeServiceInterface) *Manager {
	return &Manager{merge: merge}
}

// Merge runs the full pipeline for one pair of bundles.
func (m *Manager) Merge(ctx context.Context, opts types.MergeOptions) error {
	return m.merge.Merge(ctx, opts)
}

// IsLipoInstalled checks if lipo is available on the system.
func IsLipoInstalled() bool {
	_, err := exec.LookPath("lipo")
	return err == nil
}

// IsFileProbeInstalled checks if file(1) is available on the system.
func IsFileProbeInstalled() bool {
	_, err := exec.LookPath("file")
	return err == nil
}

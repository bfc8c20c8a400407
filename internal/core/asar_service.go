package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/unibundle/unibundle/internal/logging"
	"github.com/unibundle/unibundle/internal/types"
)

// launcherJS is the generated architecture-dispatch module placed in the
// new canonical app.asar. At startup it resolves the code artifact tagged
// with the running architecture and forwards to that artifact's own entry
// point.
const launcherJS = `// Generated by unibundle. Loads the application code built for the
// architecture this process is running on.
const fs = require('fs');
const path = require('path');

const arch = process.arch === 'arm64' ? 'arm64' : 'x64';
const resources = path.dirname(__dirname);

const candidates = ['app-' + arch + '.asar', 'app-' + arch];
let appPath = null;
for (const name of candidates) {
  const candidate = path.join(resources, name);
  if (fs.existsSync(candidate)) {
    appPath = candidate;
    break;
  }
}
if (!appPath) {
  throw new Error('no application code found for architecture ' + arch);
}

const pkg = JSON.parse(fs.readFileSync(path.join(appPath, 'package.json'), 'utf8'));
require(path.join(appPath, pkg.main));
`

// AsarServiceInterface defines the contract for packaging-mode detection
// and code repackaging.
type AsarServiceInterface interface {
	DetectMode(root string) (types.PackagingMode, error)
	Repackage(ctx context.Context, stagingRoot, arm64Root string, mode types.PackagingMode) error
	CopySnapshots(arm64 types.ScanResult, stagingRoot string) (int, error)
}

// Compile-time interface satisfaction check.
var _ AsarServiceInterface = (*AsarService)(nil)

// AsarService makes both architectures' application code available inside
// the staging bundle under architecture-tagged names and builds the new
// canonical app.asar holding the dispatch launcher.
type AsarService struct {
	fsys    FileSystem
	archive Archive
	log     *logging.Logger
}

// NewAsarService creates a new AsarService
func NewAsarService(fsys FileSystem, archive Archive, log *logging.Logger) *AsarService {
	return &AsarService{fsys: fsys, archive: archive, log: log}
}

// DetectMode reports how a bundle ships its application code: the presence
// of Contents/Resources/app.asar means packed, its absence means unpacked.
func (s *AsarService) DetectMode(root string) (types.PackagingMode, error) {
	_, err := s.fsys.Stat(filepath.Join(root, filepath.FromSlash(AsarRelPath)))
	if err == nil {
		return types.Packed, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return types.Unpacked, nil
	}
	return types.Unpacked, err
}

// Repackage renames the staging copy's code under an x64 tag, brings the
// arm64 bundle's code in under an arm64 tag, and writes a new minimal
// app.asar containing only the launcher and the rewritten package
// descriptor taken from the x64 side.
func (s *AsarService) Repackage(ctx context.Context, stagingRoot, arm64Root string, mode types.PackagingMode) error {
	var descriptor []byte
	var err error

	if mode == types.Unpacked {
		descriptor, err = s.splitUnpacked(stagingRoot, arm64Root)
	} else {
		descriptor, err = s.splitPacked(stagingRoot, arm64Root)
	}
	if err != nil {
		return err
	}

	return s.writeLauncherAsar(stagingRoot, descriptor)
}

// splitUnpacked handles loose app directories.
func (s *AsarService) splitUnpacked(stagingRoot, arm64Root string) ([]byte, error) {
	stagingRes := filepath.Join(stagingRoot, filepath.FromSlash(ResourcesDir))
	arm64Res := filepath.Join(arm64Root, filepath.FromSlash(ResourcesDir))

	x64Dir := filepath.Join(stagingRes, TaggedAppDirName(ArchX64))
	if err := s.fsys.Rename(filepath.Join(stagingRes, AppDirName), x64Dir); err != nil {
		return nil, fmt.Errorf("tag x64 app directory: %w", err)
	}
	if _, err := s.fsys.CopyDir(filepath.Join(arm64Res, AppDirName), filepath.Join(stagingRes, TaggedAppDirName(ArchArm64))); err != nil {
		return nil, fmt.Errorf("copy arm64 app directory: %w", err)
	}

	descriptor, err := s.fsys.ReadFile(filepath.Join(x64Dir, PackageJSONName))
	if err != nil {
		return nil, fmt.Errorf("read %s from x64 app directory: %w", PackageJSONName, err)
	}
	return descriptor, nil
}

// splitPacked handles asar archives and their optional unpacked companions.
func (s *AsarService) splitPacked(stagingRoot, arm64Root string) ([]byte, error) {
	stagingRes := filepath.Join(stagingRoot, filepath.FromSlash(ResourcesDir))
	arm64Res := filepath.Join(arm64Root, filepath.FromSlash(ResourcesDir))

	x64Asar := filepath.Join(stagingRes, TaggedAsarName(ArchX64))
	if err := s.fsys.Rename(filepath.Join(stagingRes, AsarName), x64Asar); err != nil {
		return nil, fmt.Errorf("tag x64 asar: %w", err)
	}
	stagingUnpacked := filepath.Join(stagingRes, AsarName+UnpackedSuffix)
	if _, err := s.fsys.Stat(stagingUnpacked); err == nil {
		if err := s.fsys.Rename(stagingUnpacked, x64Asar+UnpackedSuffix); err != nil {
			return nil, fmt.Errorf("tag x64 unpacked directory: %w", err)
		}
	}

	arm64Asar := filepath.Join(stagingRes, TaggedAsarName(ArchArm64))
	if _, err := s.fsys.CopyFile(filepath.Join(arm64Res, AsarName), arm64Asar); err != nil {
		return nil, fmt.Errorf("copy arm64 asar: %w", err)
	}
	arm64Unpacked := filepath.Join(arm64Res, AsarName+UnpackedSuffix)
	if _, err := s.fsys.Stat(arm64Unpacked); err == nil {
		if _, err := s.fsys.CopyDir(arm64Unpacked, arm64Asar+UnpackedSuffix); err != nil {
			return nil, fmt.Errorf("copy arm64 unpacked directory: %w", err)
		}
	}

	descriptor, err := s.archive.Extract(x64Asar, PackageJSONName)
	if err != nil {
		return nil, fmt.Errorf("read %s from x64 asar: %w", PackageJSONName, err)
	}
	return descriptor, nil
}

// writeLauncherAsar builds the new canonical app.asar: the launcher module
// plus the package descriptor with its entry point rewritten to the
// launcher.
func (s *AsarService) writeLauncherAsar(stagingRoot string, descriptor []byte) error {
	rewritten, err := rewriteEntryPoint(descriptor)
	if err != nil {
		return err
	}

	shimDir, err := s.fsys.CreateTemp("", "unibundle-shim-*")
	if err != nil {
		return err
	}
	defer func() { _ = s.fsys.RemoveAll(shimDir) }()

	if err := s.fsys.WriteFile(filepath.Join(shimDir, LauncherName), []byte(launcherJS), 0644); err != nil {
		return err
	}
	if err := s.fsys.WriteFile(filepath.Join(shimDir, PackageJSONName), rewritten, 0644); err != nil {
		return err
	}

	dest := filepath.Join(stagingRoot, filepath.FromSlash(AsarRelPath))
	if err := s.archive.Pack(shimDir, dest); err != nil {
		return fmt.Errorf("pack launcher asar: %w", err)
	}
	s.log.Debug("wrote launcher asar", "path", AsarRelPath)
	return nil
}

// rewriteEntryPoint points the package descriptor's entry field at the
// generated launcher, leaving every other field as-is.
func rewriteEntryPoint(descriptor []byte) ([]byte, error) {
	var pkg map[string]any
	if err := json.Unmarshal(descriptor, &pkg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", PackageJSONName, err)
	}
	pkg[EntryPointField] = LauncherName

	out, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", PackageJSONName, err)
	}
	return append(out, '\n'), nil
}

// CopySnapshots copies every snapshot file from the arm64 bundle over the
// matching staging path, unconditionally. The staging copy starts from the
// x64 tree, so the arm64 snapshots are the ones that would otherwise be
// missing; Electron resolves the right variant at runtime.
func (s *AsarService) CopySnapshots(arm64 types.ScanResult, stagingRoot string) (int, error) {
	copied := 0
	for _, f := range arm64.OfType(types.Snapshot) {
		native := filepath.FromSlash(f.RelPath)
		src := filepath.Join(arm64.Root, native)
		dst := filepath.Join(stagingRoot, native)

		if err := s.fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return copied, err
		}
		if _, err := s.fsys.CopyFile(src, dst); err != nil {
			return copied, fmt.Errorf("copy snapshot %s: %w", f.RelPath, err)
		}
		copied++
	}
	return copied, nil
}

package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/unibundle/unibundle/internal/types"
)

// ValidationServiceInterface defines the contract for checking that two
// scanned bundles are mergeable.
type ValidationServiceInterface interface {
	Validate(x64, arm64 types.ScanResult, archAgnosticPatterns []string) error
}

// Compile-time interface satisfaction check.
var _ ValidationServiceInterface = (*ValidationService)(nil)

// ValidationService compares two scan results for structural parity and
// byte-identical plain content.
type ValidationService struct{}

// NewValidationService creates a new ValidationService
func NewValidationService() *ValidationService {
	return &ValidationService{}
}

// Validate fails fast if the two bundles cannot be merged.
//
// Snapshot files and the app asar are exempt from the path-set comparison:
// snapshots are per-architecture blobs and the code archives are merged
// separately. Every other path must exist on both sides, and every plain
// file must hash identically unless it matches one of the arch-agnostic
// patterns.
func (s *ValidationService) Validate(x64, arm64 types.ScanResult, archAgnosticPatterns []string) error {
	x64Set := comparableSet(x64)
	arm64Set := comparableSet(arm64)

	onlyX64 := missingFrom(x64Set, arm64Set)
	onlyArm64 := missingFrom(arm64Set, x64Set)
	if len(onlyX64) > 0 || len(onlyArm64) > 0 {
		return &FileSetMismatchError{OnlyX64: onlyX64, OnlyArm64: onlyArm64}
	}

	arm64Types := make(map[string]types.FileType, len(arm64.Files))
	for _, f := range arm64.Files {
		arm64Types[f.RelPath] = f.Type
	}

	for _, f := range x64.OfType(types.Plain) {
		if arm64Types[f.RelPath] != types.Plain {
			continue
		}
		if MatchesExclude(f.RelPath, archAgnosticPatterns) {
			continue
		}

		x64Hash, err := HashFile(filepath.Join(x64.Root, filepath.FromSlash(f.RelPath)))
		if err != nil {
			return fmt.Errorf("hash %s in x64 bundle: %w", f.RelPath, err)
		}
		arm64Hash, err := HashFile(filepath.Join(arm64.Root, filepath.FromSlash(f.RelPath)))
		if err != nil {
			return fmt.Errorf("hash %s in arm64 bundle: %w", f.RelPath, err)
		}
		if x64Hash != arm64Hash {
			return &ContentMismatchError{Path: f.RelPath, X64Hash: x64Hash, Arm64Hash: arm64Hash}
		}
	}
	return nil
}

// comparableSet returns the relative paths subject to the set comparison.
func comparableSet(scan types.ScanResult) map[string]bool {
	set := make(map[string]bool, len(scan.Files))
	for _, f := range scan.Files {
		if f.Type == types.Snapshot || f.Type == types.AppCode {
			continue
		}
		set[f.RelPath] = true
	}
	return set
}

// missingFrom returns the sorted members of a that are absent from b.
func missingFrom(a, b map[string]bool) []string {
	var out []string
	for path := range a {
		if !b[path] {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// HashFile returns the hex SHA-256 digest of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the hex SHA-256 digest of a byte slice.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

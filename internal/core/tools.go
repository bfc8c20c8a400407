package core

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/unibundle/unibundle/internal/asar"
)

// FileTypeProbe describes files so the scanner can spot native executables.
type FileTypeProbe interface {
	// Describe returns a short description of the file at path, in the
	// style of file(1) --brief output.
	Describe(ctx context.Context, path string) (string, error)
}

// BinaryCombiner merges two single-architecture executables into one
// universal executable.
type BinaryCombiner interface {
	Combine(ctx context.Context, x64Path, arm64Path, outPath string) error
}

// Archive is the packed-archive capability: reading headers, extracting
// members and packing directory trees as asar files.
type Archive interface {
	RawHeader(archivePath string) (string, error)
	Extract(archivePath, member string) ([]byte, error)
	Pack(srcDir, dest string) error
}

// Compile-time interface satisfaction checks.
var (
	_ FileTypeProbe  = (*SystemFileProbe)(nil)
	_ BinaryCombiner = (*LipoCombiner)(nil)
	_ Archive        = (*AsarArchive)(nil)
)

// SystemFileProbe implements FileTypeProbe using file(1)
type SystemFileProbe struct{}

// NewSystemFileProbe creates a new SystemFileProbe
func NewSystemFileProbe() *SystemFileProbe {
	return &SystemFileProbe{}
}

// Describe runs file --brief on the path and returns the trimmed output.
func (p *SystemFileProbe) Describe(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, "file", "--brief", path).Output()
	if err != nil {
		return "", fmt.Errorf("file --brief %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsMachO reports whether a probe description identifies a native executable.
func IsMachO(description string) bool {
	return strings.HasPrefix(description, MachOPrefix)
}

// LipoCombiner implements BinaryCombiner using lipo(1)
type LipoCombiner struct{}

// NewLipoCombiner creates a new LipoCombiner
func NewLipoCombiner() *LipoCombiner {
	return &LipoCombiner{}
}

// Combine runs lipo -create over the two thin executables. lipo's own
// message is kept verbatim; combine failures indicate tool or input faults
// and abort the merge.
func (c *LipoCombiner) Combine(ctx context.Context, x64Path, arm64Path, outPath string) error {
	cmd := exec.CommandContext(ctx, "lipo", x64Path, arm64Path, "-create", "-output", outPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("lipo -create %s: %w: %s", outPath, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// AsarArchive implements Archive with the in-process asar package.
type AsarArchive struct{}

// NewAsarArchive creates a new AsarArchive
func NewAsarArchive() *AsarArchive {
	return &AsarArchive{}
}

// RawHeader returns the archive's JSON header string as stored on disk.
func (a *AsarArchive) RawHeader(archivePath string) (string, error) {
	return asar.RawHeader(archivePath)
}

// Extract returns the bytes of a named archive member.
func (a *AsarArchive) Extract(archivePath, member string) ([]byte, error) {
	return asar.Extract(archivePath, member)
}

// Pack creates an archive at dest from the tree rooted at srcDir.
func (a *AsarArchive) Pack(srcDir, dest string) error {
	return asar.Pack(srcDir, dest)
}

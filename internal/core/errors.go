package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for input and structural failures.
// These can be used with errors.Is() for error type checking.
var (
	// ErrNotAbsolutePath indicates a bundle or output path was not absolute.
	ErrNotAbsolutePath = errors.New("path must be absolute")

	// ErrOutputExists indicates the output path already exists and force
	// was not requested.
	ErrOutputExists = errors.New("output path already exists (pass --force to replace it)")

	// ErrPackagingModeMismatch indicates one bundle packs its code as an
	// asar while the other ships a loose app directory.
	ErrPackagingModeMismatch = errors.New("input bundles use different app packaging")
)

// FileSetMismatchError reports paths present in only one of the two bundles.
// Snapshot and asar paths are exempt from the comparison; everything else
// must exist on both sides. This is the most common integration fault, so
// both lists are carried in full.
type FileSetMismatchError struct {
	OnlyX64   []string // present in the x64 bundle only
	OnlyArm64 []string // present in the arm64 bundle only
}

func (e *FileSetMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("bundle file sets differ")
	if len(e.OnlyX64) > 0 {
		fmt.Fprintf(&b, "; only in x64 bundle: %s", strings.Join(e.OnlyX64, ", "))
	}
	if len(e.OnlyArm64) > 0 {
		fmt.Fprintf(&b, "; only in arm64 bundle: %s", strings.Join(e.OnlyArm64, ", "))
	}
	return b.String()
}

// ContentMismatchError reports a plain file whose bytes differ between the
// two bundles. Plain files are expected to be architecture-independent.
type ContentMismatchError struct {
	Path      string
	X64Hash   string
	Arm64Hash string
}

func (e *ContentMismatchError) Error() string {
	return fmt.Sprintf("file %s differs between bundles (x64 sha256 %s, arm64 sha256 %s)",
		e.Path, e.X64Hash, e.Arm64Hash)
}

// PlistMismatchError reports an Info.plist whose contents (integrity records
// aside) are not value-equal between the two bundles.
type PlistMismatchError struct {
	Path string
}

func (e *PlistMismatchError) Error() string {
	return fmt.Sprintf("property list %s differs between bundles", e.Path)
}

// IntegrityPresenceError reports an asar integrity record present in only
// one bundle's Info.plist, which means the two builds were signed with
// different expectations.
type IntegrityPresenceError struct {
	Path string // the Info.plist relative path
	Side string // "x64" or "arm64": the side that has the record
}

func (e *IntegrityPresenceError) Error() string {
	return fmt.Sprintf("asar integrity in %s is present only in the %s bundle", e.Path, e.Side)
}

// IntegrityFormatError reports an asar integrity record that is not a
// dictionary keyed by artifact path, or that lacks the entry for the app
// archive itself.
type IntegrityFormatError struct {
	Path string // the Info.plist relative path
	Side string // the side carrying the malformed record
}

func (e *IntegrityFormatError) Error() string {
	return fmt.Sprintf("asar integrity in %s of the %s bundle is malformed", e.Path, e.Side)
}

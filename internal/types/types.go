package types

import "time"

// FileType classifies a file found inside an application bundle.
// Classification happens once at scan time and is never revisited.
type FileType int

// File classifications, in matching precedence order.
const (
	// AppCode is the bundle's packed application code artifact (app.asar).
	AppCode FileType = iota
	// MachO is a native executable (any file the probe reports as Mach-O).
	MachO
	// Snapshot is a precompiled V8 snapshot blob (*.bin).
	Snapshot
	// InfoPlist is a property-list metadata file (basename Info.plist).
	InfoPlist
	// Plain is everything else; plain files must be byte-identical across
	// the two input bundles.
	Plain
)

// String returns a human-readable name for the file type.
func (t FileType) String() string {
	switch t {
	case AppCode:
		return "app-code"
	case MachO:
		return "mach-o"
	case Snapshot:
		return "snapshot"
	case InfoPlist:
		return "info-plist"
	case Plain:
		return "plain"
	}
	return "unknown"
}

// BundleFile is a single regular file discovered in a bundle scan.
// RelPath is relative to the bundle root and unique within one scan.
type BundleFile struct {
	RelPath string
	Type    FileType
}

// ScanResult is the ordered list of files from one bundle walk.
// It is produced fresh per scan and never mutated afterwards.
type ScanResult struct {
	Root  string
	Files []BundleFile
}

// OfType returns the files with the given classification, in scan order.
func (r ScanResult) OfType(t FileType) []BundleFile {
	var out []BundleFile
	for _, f := range r.Files {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

// PackagingMode describes how a bundle ships its application code.
type PackagingMode int

const (
	// Packed means the code lives in a single app.asar archive.
	Packed PackagingMode = iota
	// Unpacked means the code lives in a loose app directory.
	Unpacked
)

// String returns a human-readable name for the packaging mode.
func (m PackagingMode) String() string {
	if m == Packed {
		return "packed"
	}
	return "unpacked"
}

// MergeOptions are the inputs to a single merge operation.
// All three paths must be absolute. The two input bundles are read-only
// for the whole operation; OutPath is written exactly once, at the end.
type MergeOptions struct {
	X64Path   string
	Arm64Path string
	OutPath   string
	// Force removes a pre-existing OutPath before the merge starts.
	Force bool
	// ArchAgnosticPatterns lists glob patterns for plain files that are
	// allowed to differ between the two bundles; the x64 copy is kept.
	ArchAgnosticPatterns []string
	// ReportPath, when non-empty, is where the YAML merge report is written.
	ReportPath string
	// TempRoot overrides the parent directory for the staging copy.
	// Empty means the system temp directory.
	TempRoot string
}

// IntegrityEntry is one code-artifact integrity record as stored under
// ElectronAsarIntegrity in Info.plist.
type IntegrityEntry struct {
	Algorithm string
	Hash      string
}

// MergeReport is the optional YAML artifact describing a completed merge.
type MergeReport struct {
	GeneratedAt time.Time         `yaml:"generated_at"`
	MergeID     string            `yaml:"merge_id"`
	X64Path     string            `yaml:"x64_path"`
	Arm64Path   string            `yaml:"arm64_path"`
	OutPath     string            `yaml:"out_path"`
	Mode        string            `yaml:"packaging_mode"`
	Universal   int               `yaml:"universal_binaries"`
	Integrity   map[string]string `yaml:"asar_integrity,omitempty"`
	Files       []ReportFile      `yaml:"files"`
}

// ReportFile is one merged file in the report inventory.
type ReportFile struct {
	Path   string `yaml:"path"`
	Type   string `yaml:"type"`
	SHA256 string `yaml:"sha256,omitempty"`
}

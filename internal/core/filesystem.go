package core

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyStats tracks file copy statistics
type CopyStats struct {
	FileCount int
	ByteCount int64
}

// Add adds another CopyStats to this one
func (s *CopyStats) Add(other CopyStats) {
	s.FileCount += other.FileCount
	s.ByteCount += other.ByteCount
}

// FileSystem abstracts file system operations for testing
type FileSystem interface {
	CopyFile(src, dst string) (CopyStats, error)
	CopyDir(src, dst string) (CopyStats, error)
	MkdirAll(path string, perm os.FileMode) error
	Stat(path string) (os.FileInfo, error)
	Rename(oldPath, newPath string) error
	Move(src, dst string) error
	RemoveAll(path string) error
	CreateTemp(dir, pattern string) (string, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
}

// Compile-time interface satisfaction check.
var _ FileSystem = (*OSFileSystem)(nil)

// OSFileSystem implements FileSystem using standard os package
type OSFileSystem struct{}

// NewOSFileSystem creates a new OSFileSystem
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// CopyFile copies a single file from src to dst, preserving the file mode.
// Executable bundle files must stay executable in the staging copy.
func (f *OSFileSystem) CopyFile(src, dst string) (CopyStats, error) {
	info, err := os.Stat(src)
	if err != nil {
		return CopyStats{}, err
	}

	source, err := os.Open(src)
	if err != nil {
		return CopyStats{}, err
	}
	defer func() { _ = source.Close() }()

	dest, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return CopyStats{}, err
	}
	defer func() { _ = dest.Close() }()

	bytes, err := io.Copy(dest, source)
	if err != nil {
		return CopyStats{}, err
	}

	return CopyStats{FileCount: 1, ByteCount: bytes}, nil
}

// CopyDir recursively copies a directory from src to dst. Symbolic links
// are recreated with their original targets rather than followed; .app
// bundles link framework versions and following those links would explode
// the copy.
func (f *OSFileSystem) CopyDir(src, dst string) (CopyStats, error) {
	var stats CopyStats

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		destPath := filepath.Join(dst, relPath)

		if d.Type()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(target, destPath)
		}

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(destPath, info.Mode().Perm())
		}

		fileStats, err := f.CopyFile(path, destPath)
		if err != nil {
			return err
		}
		stats.Add(fileStats)
		return nil
	})

	return stats, err
}

// MkdirAll creates a directory path
func (f *OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Stat returns file info
func (f *OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// Rename renames a path within the same filesystem
func (f *OSFileSystem) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// Move relocates a file or directory, falling back to copy-and-remove when
// the destination lives on a different filesystem than the source.
func (f *OSFileSystem) Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return err
	}

	info, statErr := os.Stat(src)
	if statErr != nil {
		return err
	}
	if info.IsDir() {
		if _, copyErr := f.CopyDir(src, dst); copyErr != nil {
			return copyErr
		}
	} else {
		if _, copyErr := f.CopyFile(src, dst); copyErr != nil {
			return copyErr
		}
	}
	return os.RemoveAll(src)
}

// RemoveAll removes a directory tree
func (f *OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// CreateTemp creates a temporary directory
func (f *OSFileSystem) CreateTemp(dir, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

// ReadFile reads a whole file
func (f *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes a whole file
func (f *OSFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/unibundle/unibundle/internal/types"
)

// ScanServiceInterface defines the contract for scanning a bundle tree.
type ScanServiceInterface interface {
	Scan(ctx context.Context, root string) (types.ScanResult, error)
}

// Compile-time interface satisfaction check.
var _ ScanServiceInterface = (*ScanService)(nil)

// ScanService walks a bundle and classifies every regular file.
type ScanService struct {
	probe FileTypeProbe
}

// NewScanService creates a new ScanService
func NewScanService(probe FileTypeProbe) *ScanService {
	return &ScanService{probe: probe}
}

// Scan returns every regular file under root with its classification.
// Symbolic links are skipped entirely (neither followed nor recorded) and
// directories are visited at most once by canonical path, so link cycles
// and doubly-reachable directories cannot loop the walk. Entries are
// visited depth-first in sorted name order, which keeps the emission order
// stable between runs.
func (s *ScanService) Scan(ctx context.Context, root string) (types.ScanResult, error) {
	visited := make(map[string]bool)
	var files []types.BundleFile

	if err := s.walkDir(ctx, root, root, visited, &files); err != nil {
		return types.ScanResult{}, err
	}
	return types.ScanResult{Root: root, Files: files}, nil
}

func (s *ScanService) walkDir(ctx context.Context, root, dir string, visited map[string]bool, files *[]types.BundleFile) error {
	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	if visited[canonical] {
		return nil
	}
	visited[canonical] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		if entry.IsDir() {
			if err := s.walkDir(ctx, root, path, visited, files); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		fileType, err := s.classify(ctx, rel, path)
		if err != nil {
			return err
		}
		*files = append(*files, types.BundleFile{RelPath: rel, Type: fileType})
	}
	return nil
}

// classify assigns the file type; the first matching rule wins.
func (s *ScanService) classify(ctx context.Context, rel, path string) (types.FileType, error) {
	if rel == AsarRelPath {
		return types.AppCode, nil
	}

	description, err := s.probe.Describe(ctx, path)
	if err != nil {
		return 0, err
	}
	if IsMachO(description) {
		return types.MachO, nil
	}

	if strings.HasSuffix(rel, SnapshotExt) {
		return types.Snapshot, nil
	}
	if filepath.Base(rel) == InfoPlistName {
		return types.InfoPlist, nil
	}
	return types.Plain, nil
}

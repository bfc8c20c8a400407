package core

import (
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/unibundle/unibundle/internal/plist"
	"github.com/unibundle/unibundle/internal/types"
)

// PlistMergeServiceInterface defines the contract for merging bundle
// metadata property lists.
type PlistMergeServiceInterface interface {
	MergePlists(stagingRoot, arm64Root string, staging types.ScanResult) (map[string]types.IntegrityEntry, error)
}

// Compile-time interface satisfaction check.
var _ PlistMergeServiceInterface = (*PlistMergeService)(nil)

// PlistMergeService merges every Info.plist pair. The two documents must be
// value-equal once their asar integrity records are set aside; the merged
// integrity record carries both originals under architecture-tagged keys
// plus a freshly computed entry for the new launcher asar.
type PlistMergeService struct {
	fsys    FileSystem
	archive Archive
}

// NewPlistMergeService creates a new PlistMergeService
func NewPlistMergeService(fsys FileSystem, archive Archive) *PlistMergeService {
	return &PlistMergeService{fsys: fsys, archive: archive}
}

// MergePlists rewrites every metadata file in the staging copy and returns
// the integrity entries recorded for the canonical asar and both tagged
// asars, keyed the way Info.plist keys them.
func (s *PlistMergeService) MergePlists(stagingRoot, arm64Root string, staging types.ScanResult) (map[string]types.IntegrityEntry, error) {
	// The launcher asar was written by the repackaging stage; its header
	// hash becomes the canonical integrity value.
	header, err := s.archive.RawHeader(filepath.Join(stagingRoot, filepath.FromSlash(AsarRelPath)))
	if err != nil {
		return nil, fmt.Errorf("read launcher asar header: %w", err)
	}
	freshEntry := map[string]any{
		"algorithm": IntegrityAlgorithm,
		"hash":      HashBytes([]byte(header)),
	}

	recorded := make(map[string]types.IntegrityEntry)
	for _, f := range staging.OfType(types.InfoPlist) {
		entries, err := s.mergeOne(stagingRoot, arm64Root, f.RelPath, freshEntry)
		if err != nil {
			return nil, err
		}
		for key, entry := range entries {
			recorded[key] = entry
		}
	}
	return recorded, nil
}

// mergeOne merges a single Info.plist pair and writes the result back to
// the staging path in the file's original plist format.
func (s *PlistMergeService) mergeOne(stagingRoot, arm64Root, relPath string, freshEntry map[string]any) (map[string]types.IntegrityEntry, error) {
	native := filepath.FromSlash(relPath)

	x64Data, err := s.fsys.ReadFile(filepath.Join(stagingRoot, native))
	if err != nil {
		return nil, fmt.Errorf("read x64 %s: %w", relPath, err)
	}
	arm64Data, err := s.fsys.ReadFile(filepath.Join(arm64Root, native))
	if err != nil {
		return nil, fmt.Errorf("read arm64 %s: %w", relPath, err)
	}

	x64Doc, format, err := plist.Parse(x64Data)
	if err != nil {
		return nil, fmt.Errorf("parse x64 %s: %w", relPath, err)
	}
	arm64Doc, _, err := plist.Parse(arm64Data)
	if err != nil {
		return nil, fmt.Errorf("parse arm64 %s: %w", relPath, err)
	}

	x64Integrity, x64Has := x64Doc[IntegrityKey]
	arm64Integrity, arm64Has := arm64Doc[IntegrityKey]
	delete(x64Doc, IntegrityKey)
	delete(arm64Doc, IntegrityKey)

	// Everything except the integrity record must match by value, not by
	// serialized text.
	if !reflect.DeepEqual(x64Doc, arm64Doc) {
		return nil, &PlistMismatchError{Path: relPath}
	}

	merged := make(map[string]any)
	switch {
	case x64Has && arm64Has:
		x64Dict, err := integrityDict(x64Integrity, relPath, ArchX64)
		if err != nil {
			return nil, err
		}
		arm64Dict, err := integrityDict(arm64Integrity, relPath, ArchArm64)
		if err != nil {
			return nil, err
		}

		canonical := IntegrityPathKey(AsarName)
		merged[IntegrityPathKey(TaggedAsarName(ArchX64))] = x64Dict[canonical]
		merged[IntegrityPathKey(TaggedAsarName(ArchArm64))] = arm64Dict[canonical]

		// Records for any other artifact must agree between the two sides
		// and are carried through untouched.
		if len(x64Dict) != len(arm64Dict) {
			return nil, &PlistMismatchError{Path: relPath}
		}
		for key, value := range x64Dict {
			if key == canonical {
				continue
			}
			other, ok := arm64Dict[key]
			if !ok || !reflect.DeepEqual(value, other) {
				return nil, &PlistMismatchError{Path: relPath}
			}
			merged[key] = value
		}
	case x64Has:
		return nil, &IntegrityPresenceError{Path: relPath, Side: ArchX64}
	case arm64Has:
		return nil, &IntegrityPresenceError{Path: relPath, Side: ArchArm64}
	}
	merged[IntegrityPathKey(AsarName)] = freshEntry

	x64Doc[IntegrityKey] = merged
	out, err := plist.Serialize(x64Doc, format)
	if err != nil {
		return nil, fmt.Errorf("serialize merged %s: %w", relPath, err)
	}
	if err := s.fsys.WriteFile(filepath.Join(stagingRoot, native), out, 0644); err != nil {
		return nil, fmt.Errorf("write merged %s: %w", relPath, err)
	}

	return reportEntries(merged), nil
}

// integrityDict checks one side's integrity record: it must be a dictionary
// keyed by artifact path and must contain the canonical asar entry.
func integrityDict(integrity any, relPath, side string) (map[string]any, error) {
	dict, ok := integrity.(map[string]any)
	if !ok {
		return nil, &IntegrityFormatError{Path: relPath, Side: side}
	}
	if _, ok := dict[IntegrityPathKey(AsarName)]; !ok {
		return nil, &IntegrityFormatError{Path: relPath, Side: side}
	}
	return dict, nil
}

// reportEntries converts a merged integrity dictionary into the typed form
// used by the merge report.
func reportEntries(merged map[string]any) map[string]types.IntegrityEntry {
	out := make(map[string]types.IntegrityEntry, len(merged))
	for key, raw := range merged {
		dict, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		entry := types.IntegrityEntry{}
		if alg, ok := dict["algorithm"].(string); ok {
			entry.Algorithm = alg
		}
		if hash, ok := dict["hash"].(string); ok {
			entry.Hash = hash
		}
		out[key] = entry
	}
	return out
}

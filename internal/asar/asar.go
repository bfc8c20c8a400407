// Package asar reads and writes Electron asar archives.
//
// An asar file is a JSON directory header framed by two Chromium pickles,
// followed by the concatenated file contents:
//
//	uint32  4                      size of the next field
//	uint32  headerPickleLen        length of the header pickle
//	uint32  payloadLen             4 + aligned JSON length
//	uint32  jsonLen                raw JSON length
//	bytes   JSON header, zero-padded to a 4-byte boundary
//	bytes   file contents, at offsets relative to 8+headerPickleLen
//
// Only the operations the merge pipeline needs are implemented: reading the
// raw header string, extracting a named member, and packing a directory.
package asar

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// entry is one node of the asar directory header. A node is either a
// directory (Files non-nil) or a file (Size/Offset set).
type entry struct {
	Files      map[string]*entry `json:"files,omitempty"`
	Size       int64             `json:"size,omitempty"`
	Offset     string            `json:"offset,omitempty"`
	Executable bool              `json:"executable,omitempty"`
	Unpacked   bool              `json:"unpacked,omitempty"`
}

// align4 rounds n up to the next multiple of four.
func align4(n int) int {
	return (n + 3) &^ 3
}

// RawHeader returns the archive's JSON header exactly as stored, without
// re-marshaling. Integrity hashes are computed over this string, so byte
// fidelity matters.
func RawHeader(archivePath string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	var frame [16]byte
	if _, err := io.ReadFull(f, frame[:]); err != nil {
		return "", fmt.Errorf("read asar frame of %s: %w", archivePath, err)
	}
	if sz := binary.LittleEndian.Uint32(frame[0:4]); sz != 4 {
		return "", fmt.Errorf("%s is not an asar archive (frame size %d)", archivePath, sz)
	}
	jsonLen := binary.LittleEndian.Uint32(frame[12:16])

	header := make([]byte, jsonLen)
	if _, err := io.ReadFull(f, header); err != nil {
		return "", fmt.Errorf("read asar header of %s: %w", archivePath, err)
	}
	return string(header), nil
}

// Extract returns the contents of the named member. Member names use
// forward slashes relative to the archive root, e.g. "package.json".
func Extract(archivePath, name string) ([]byte, error) {
	header, err := RawHeader(archivePath)
	if err != nil {
		return nil, err
	}

	var root entry
	if err := json.Unmarshal([]byte(header), &root); err != nil {
		return nil, fmt.Errorf("parse asar header of %s: %w", archivePath, err)
	}

	node := &root
	for _, part := range strings.Split(name, "/") {
		if node.Files == nil {
			return nil, fmt.Errorf("%s: no such member in %s", name, archivePath)
		}
		next, ok := node.Files[part]
		if !ok {
			return nil, fmt.Errorf("%s: no such member in %s", name, archivePath)
		}
		node = next
	}
	if node.Files != nil {
		return nil, fmt.Errorf("%s is a directory in %s", name, archivePath)
	}
	if node.Unpacked {
		return nil, fmt.Errorf("%s is stored unpacked outside %s", name, archivePath)
	}

	offset, err := strconv.ParseInt(node.Offset, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad offset for %s in %s: %w", name, archivePath, err)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	dataStart, err := dataOffset(f)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, node.Size)
	if _, err := f.ReadAt(buf, dataStart+offset); err != nil {
		return nil, fmt.Errorf("read member %s of %s: %w", name, archivePath, err)
	}
	return buf, nil
}

// dataOffset reads the pickle frame and returns the absolute offset at
// which file contents begin.
func dataOffset(f *os.File) (int64, error) {
	var frame [8]byte
	if _, err := f.ReadAt(frame[:], 0); err != nil {
		return 0, err
	}
	headerPickleLen := binary.LittleEndian.Uint32(frame[4:8])
	return int64(8 + headerPickleLen), nil
}

// Pack creates a new archive at dest from the tree rooted at srcDir.
// Directory entries are emitted in sorted name order so the header is
// deterministic for a given tree. Symbolic links are not supported.
func Pack(srcDir, dest string) error {
	var files []string // relative paths, in header emission order
	var offset int64

	root, err := buildHeader(srcDir, "", &files, &offset)
	if err != nil {
		return err
	}

	headerJSON, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("marshal asar header: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if err := writeFrame(out, headerJSON); err != nil {
		return fmt.Errorf("write asar frame: %w", err)
	}

	for _, rel := range files {
		src, err := os.Open(filepath.Join(srcDir, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		_, err = io.Copy(out, src)
		_ = src.Close()
		if err != nil {
			return fmt.Errorf("write member %s: %w", rel, err)
		}
	}
	return out.Close()
}

// buildHeader walks one directory level and records file entries with
// running offsets. rel is srcDir-relative with forward slashes.
func buildHeader(srcDir, rel string, files *[]string, offset *int64) (*entry, error) {
	dirPath := srcDir
	if rel != "" {
		dirPath = filepath.Join(srcDir, filepath.FromSlash(rel))
	}
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	node := &entry{Files: make(map[string]*entry)}
	for _, e := range entries {
		childRel := e.Name()
		if rel != "" {
			childRel = rel + "/" + e.Name()
		}
		if e.Type()&os.ModeSymlink != 0 {
			return nil, fmt.Errorf("cannot pack symlink %s", childRel)
		}
		if e.IsDir() {
			child, err := buildHeader(srcDir, childRel, files, offset)
			if err != nil {
				return nil, err
			}
			node.Files[e.Name()] = child
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		node.Files[e.Name()] = &entry{
			Size:       info.Size(),
			Offset:     strconv.FormatInt(*offset, 10),
			Executable: info.Mode()&0o111 != 0,
		}
		*files = append(*files, childRel)
		*offset += info.Size()
	}
	return node, nil
}

// writeFrame writes the two pickles framing the JSON header.
func writeFrame(w io.Writer, headerJSON []byte) error {
	padded := align4(len(headerJSON))
	payloadLen := 4 + padded
	headerPickleLen := 4 + payloadLen

	var frame [16]byte
	binary.LittleEndian.PutUint32(frame[0:4], 4)
	binary.LittleEndian.PutUint32(frame[4:8], uint32(headerPickleLen))
	binary.LittleEndian.PutUint32(frame[8:12], uint32(payloadLen))
	binary.LittleEndian.PutUint32(frame[12:16], uint32(len(headerJSON)))
	if _, err := w.Write(frame[:]); err != nil {
		return err
	}
	if _, err := w.Write(headerJSON); err != nil {
		return err
	}
	if pad := padded - len(headerJSON); pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return err
		}
	}
	return nil
}

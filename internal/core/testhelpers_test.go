package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/unibundle/unibundle/internal/asar"
	"github.com/unibundle/unibundle/internal/logging"
)

// machoMagic marks file content the fake probe reports as a native
// executable. Tests cannot ship real Mach-O binaries, so the probe sniffs
// this marker instead.
const machoMagic = "MACHO"

func testLogger() *logging.Logger {
	return logging.New(io.Discard, "error")
}

// fakeProbe classifies files by content prefix instead of shelling out to
// file(1).
type fakeProbe struct{}

func (p *fakeProbe) Describe(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(string(data), machoMagic) {
		return "Mach-O 64-bit executable x86_64", nil
	}
	return "ASCII text", nil
}

// fakeCombiner concatenates the two inputs under a marker prefix so tests
// can verify which sources fed each output.
type fakeCombiner struct {
	mu    sync.Mutex
	calls []string
}

func (c *fakeCombiner) Combine(_ context.Context, x64Path, arm64Path, outPath string) error {
	x64Data, err := os.ReadFile(x64Path)
	if err != nil {
		return err
	}
	arm64Data, err := os.ReadFile(arm64Path)
	if err != nil {
		return err
	}
	out := "UNIVERSAL\n" + string(x64Data) + "\n" + string(arm64Data)
	if err := os.WriteFile(outPath, []byte(out), 0755); err != nil {
		return err
	}
	c.mu.Lock()
	c.calls = append(c.calls, outPath)
	c.mu.Unlock()
	return nil
}

// writeBundleFile creates a file (and its parents) under a bundle root.
// rel uses forward slashes.
func writeBundleFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

// writeExecutable creates a file the fake probe reports as Mach-O.
func writeExecutable(t *testing.T, root, rel, variant string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(machoMagic+" "+variant), 0755); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

// plainPlist is a minimal Info.plist with no integrity record.
func plainPlist(bundleName string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleExecutable</key>
	<string>%s</string>
	<key>CFBundleName</key>
	<string>%s</string>
</dict>
</plist>
`, bundleName, bundleName)
}

// integrityPlist is a minimal Info.plist carrying one asar integrity record
// for Resources/app.asar.
func integrityPlist(bundleName, hash string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleExecutable</key>
	<string>%s</string>
	<key>CFBundleName</key>
	<string>%s</string>
	<key>ElectronAsarIntegrity</key>
	<dict>
		<key>Resources/app.asar</key>
		<dict>
			<key>algorithm</key>
			<string>SHA256</string>
			<key>hash</key>
			<string>%s</string>
		</dict>
	</dict>
</dict>
</plist>
`, bundleName, bundleName, hash)
}

// buildUnpackedBundle creates a synthetic .app tree shipping a loose app
// directory. The app code is identical for every arch; the executable and
// snapshot carry the arch name so merged output can be checked.
func buildUnpackedBundle(t *testing.T, parent, name, arch string) string {
	t.Helper()
	root := filepath.Join(parent, name)

	writeBundleFile(t, root, "Contents/Info.plist", plainPlist("Demo"))
	writeBundleFile(t, root, "Contents/Resources/icon.png", "png bytes")
	writeBundleFile(t, root, "Contents/Resources/app/package.json", `{"name":"demo","version":"1.0.0","main":"app.js"}`+"\n")
	writeBundleFile(t, root, "Contents/Resources/app/app.js", "module.exports = 42;\n")
	writeBundleFile(t, root, "Contents/Resources/v8_context_snapshot.bin", "snapshot "+arch)
	writeExecutable(t, root, "Contents/MacOS/Demo", arch)
	writeExecutable(t, root, "Contents/Frameworks/libnode.dylib", arch+" dylib")

	return root
}

// buildPackedBundle creates a synthetic .app tree shipping an app.asar. The
// asar content may differ between archs; only its path identity matters to
// validation.
func buildPackedBundle(t *testing.T, parent, name, arch, hash string) string {
	t.Helper()
	root := filepath.Join(parent, name)

	writeBundleFile(t, root, "Contents/Info.plist", integrityPlist("Demo", hash))
	writeBundleFile(t, root, "Contents/Resources/icon.png", "png bytes")
	writeBundleFile(t, root, "Contents/Resources/v8_context_snapshot.bin", "snapshot "+arch)
	writeExecutable(t, root, "Contents/MacOS/Demo", arch)

	appSrc := filepath.Join(parent, name+"-appsrc")
	writeBundleFile(t, appSrc, "package.json", `{"name":"demo","version":"1.0.0","main":"app.js"}`+"\n")
	writeBundleFile(t, appSrc, "app.js", "module.exports = '"+arch+"';\n")

	asarPath := filepath.Join(root, filepath.FromSlash(AsarRelPath))
	if err := os.MkdirAll(filepath.Dir(asarPath), 0755); err != nil {
		t.Fatalf("mkdir resources: %v", err)
	}
	if err := asar.Pack(appSrc, asarPath); err != nil {
		t.Fatalf("pack test asar: %v", err)
	}
	return root
}

// newTestMergeService wires a MergeService over the real filesystem and
// asar codec with fake probe and combiner.
func newTestMergeService() (*MergeService, *fakeCombiner) {
	fs := NewOSFileSystem()
	archive := NewAsarArchive()
	log := testLogger()
	combiner := &fakeCombiner{}
	scanner := NewScanService(&fakeProbe{})

	svc := NewMergeService(
		fs,
		scanner,
		NewValidationService(),
		NewBinaryMergeService(combiner, nil, log),
		NewAsarService(fs, archive, log),
		NewPlistMergeService(fs, archive),
		nil,
		log,
	)
	return svc, combiner
}

package discovery

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, root string, parts ...string) {
	t.Helper()
	path := filepath.Join(append([]string{root}, parts...)...)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("# source\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSourceFilesSkipsTopLevelAndExcludedDirs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "setup.py")
	writeFile(t, root, "algorithms", "quick_sort.py")
	writeFile(t, root, "algorithms", "merge_sort.py")
	writeFile(t, root, "tests", "test_quick_sort.py")
	writeFile(t, root, "venv", "lib", "site.py")
	writeFile(t, root, "docs", "readme.md")

	paths, err := SourceFiles(root, nil)
	if err != nil {
		t.Fatalf("source files: %v", err)
	}

	want := []string{
		"algorithms/merge_sort.py",
		"algorithms/quick_sort.py",
		"tests/test_quick_sort.py",
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
}

func TestSourceFilesEmptyRootRejected(t *testing.T) {
	t.Parallel()

	if _, err := SourceFiles("  ", nil); err == nil {
		t.Fatal("expected empty root error")
	}
}

func TestSourceFilesCustomExclusions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "pkg", "mod.py")
	writeFile(t, root, "build", "gen.py")

	paths, err := SourceFiles(root, []string{"build"})
	if err != nil {
		t.Fatalf("source files: %v", err)
	}
	if !reflect.DeepEqual(paths, []string{"pkg/mod.py"}) {
		t.Fatalf("paths = %v", paths)
	}
}

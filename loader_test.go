package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeVaultFiles(t *testing.T, dir string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		name := filepath.Join(dir, fmt.Sprintf("note-%03d.md", i))
		content := fmt.Sprintf("- [ ] task a %d\n- [x] task b %d\n", i, i)
		if err := os.WriteFile(name, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// stubProgress keeps the loading screen from opening a real terminal when
// a test machine is slow enough to hit the slow path.
func stubProgress(t *testing.T) {
	t.Helper()
	old := showProgress
	showProgress = func(done <-chan struct{}, progress <-chan ScanProgress) {}
	t.Cleanup(func() { showProgress = old })
}

func TestRunWithLoaderFastPath(t *testing.T) {
	stubProgress(t)

	tmpDir := t.TempDir()
	writeVaultFiles(t, tmpDir, 3)

	files, tasks, cache, err := RunWithLoader(tmpDir, DefaultStatusMarks(), true)
	if err != nil {
		t.Fatalf("RunWithLoader failed: %v", err)
	}

	if len(files) != 3 {
		t.Errorf("Expected 3 files, got %d", len(files))
	}
	if len(tasks) != 6 {
		t.Errorf("Expected 6 tasks, got %d", len(tasks))
	}
	if cache == nil || cache.Len() != 3 {
		t.Errorf("Expected 3 cached files, got %+v", cache)
	}
}

func TestRunWithLoaderCompletesAfterEarlyQuit(t *testing.T) {
	tmpDir := t.TempDir()
	writeVaultFiles(t, tmpDir, 40)

	oldDelay := loadingDelay
	loadingDelay = 0
	defer func() { loadingDelay = oldDelay }()

	// The stub returns immediately, like the user pressing q while
	// loading.
	stubProgress(t)

	files, tasks, cache, err := RunWithLoader(tmpDir, DefaultStatusMarks(), true)
	if err != nil {
		t.Fatalf("RunWithLoader failed: %v", err)
	}

	// Quitting the loading screen must never hand back a partial scan.
	if len(files) != 40 {
		t.Errorf("Expected 40 files, got %d", len(files))
	}
	if len(tasks) != 80 {
		t.Errorf("Expected 80 tasks, got %d", len(tasks))
	}
	if cache == nil || cache.Len() != 40 {
		t.Error("Cache should cover every scanned file")
	}
}

func TestRunWithLoaderNoCache(t *testing.T) {
	stubProgress(t)

	tmpDir := t.TempDir()
	writeVaultFiles(t, tmpDir, 2)

	_, _, cache, err := RunWithLoader(tmpDir, DefaultStatusMarks(), false)
	if err != nil {
		t.Fatalf("RunWithLoader failed: %v", err)
	}
	if cache != nil {
		t.Error("Cache should be nil when disabled")
	}
}

func TestRunWithLoaderScanError(t *testing.T) {
	stubProgress(t)

	missing := filepath.Join(t.TempDir(), "does-not-exist")

	_, _, _, err := RunWithLoader(missing, DefaultStatusMarks(), true)
	if err == nil {
		t.Error("Expected an error for a missing vault")
	}
}

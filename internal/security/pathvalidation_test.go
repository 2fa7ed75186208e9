package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	safeDir := filepath.Join(tmpDir, "results")
	unsafeDir := filepath.Join(tmpDir, "elsewhere")
	for _, d := range []string{safeDir, unsafeDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", d, err)
		}
	}
	symlinkPath := filepath.Join(safeDir, "evil-symlink")
	if err := os.Symlink(unsafeDir, symlinkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	testCases := []struct {
		name      string
		filePath  string
		safeDir   string
		wantError bool
	}{
		{"file in directory", filepath.Join(safeDir, "points.csv"), safeDir, false},
		{"nested file not yet created", filepath.Join(safeDir, "run1", "points.csv"), safeDir, false},
		{"traversal with ..", filepath.Join(safeDir, "..", "points.csv"), safeDir, true},
		{"relative traversal", "../../../etc/passwd", safeDir, true},
		{"absolute path outside", "/etc/passwd", safeDir, true},
		{"through symlinked directory", filepath.Join(symlinkPath, "points.csv"), safeDir, true},
		{"symlink itself", symlinkPath, safeDir, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tc.filePath, tc.safeDir)
			if (err != nil) != tc.wantError {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantError %v", tc.filePath, err, tc.wantError)
			}
		})
	}
}

func TestValidatePathWithinAllowedDirs(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	testCases := []struct {
		name        string
		filePath    string
		allowedDirs []string
		wantError   bool
	}{
		{"first allowed dir", filepath.Join(dir1, "points.csv"), []string{dir1, dir2}, false},
		{"second allowed dir", filepath.Join(dir2, "points.csv"), []string{dir1, dir2}, false},
		{"outside all dirs", "/etc/passwd", []string{dir1, dir2}, true},
		{"no allowed directories", filepath.Join(dir1, "points.csv"), nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePathWithinAllowedDirs(tc.filePath, tc.allowedDirs)
			if (err != nil) != tc.wantError {
				t.Errorf("ValidatePathWithinAllowedDirs() error = %v, wantError %v", err, tc.wantError)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	if err := ValidateOutputPath(filepath.Join(os.TempDir(), "points.csv")); err != nil {
		t.Errorf("temp dir path rejected: %v", err)
	}
	if err := ValidateOutputPath("/etc/passwd"); err == nil {
		t.Error("expected /etc/passwd to be rejected")
	}

	t.Chdir(t.TempDir())
	if err := ValidateOutputPath("points.csv"); err != nil {
		t.Errorf("relative path in working directory rejected: %v", err)
	}
}

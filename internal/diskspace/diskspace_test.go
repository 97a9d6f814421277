package diskspace

import (
	"fmt"
	"path/filepath"
	"testing"
)

func TestCheckAvailableSpace(t *testing.T) {
	target := filepath.Join(t.TempDir(), "download.bin")

	t.Run("SmallFile", func(t *testing.T) {
		if err := CheckAvailableSpace(target, 1024, DefaultSafetyMargin); err != nil {
			t.Errorf("Expected no error for small file, got: %v", err)
		}
	})

	t.Run("UnknownSize", func(t *testing.T) {
		if err := CheckAvailableSpace(target, -1, DefaultSafetyMargin); err != nil {
			t.Errorf("unknown size should pass, got: %v", err)
		}
	})

	t.Run("MoreThanAvailable", func(t *testing.T) {
		available, ok := availableBytes(filepath.Dir(target))
		if !ok || available == 0 {
			t.Skip("Could not determine available space")
		}
		err := CheckAvailableSpace(target, available, DefaultSafetyMargin)
		if !IsInsufficientSpaceError(err) {
			t.Fatalf("Expected InsufficientSpaceError, got: %v", err)
		}
		e := err.(*InsufficientSpaceError)
		if e.Path != target || e.RequiredBytes <= available {
			t.Errorf("unexpected error fields: %+v", e)
		}
	})

	t.Run("MissingDirectoryPasses", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "no", "such", "dir", "f.bin")
		if err := CheckAvailableSpace(missing, 1<<40, DefaultSafetyMargin); err != nil {
			t.Errorf("unstattable directory should pass, got: %v", err)
		}
	})
}

func TestAvailableBytes(t *testing.T) {
	available, ok := availableBytes(t.TempDir())
	if !ok || available == 0 {
		t.Errorf("availableBytes(tempdir) = (%d, %v), want free space", available, ok)
	}
	t.Logf("Available space: %.2f GB", float64(available)/(1024*1024*1024))
}

func TestIsInsufficientSpaceError(t *testing.T) {
	base := &InsufficientSpaceError{Path: "x", RequiredBytes: 2 << 20, AvailableBytes: 1 << 20}
	if !IsInsufficientSpaceError(fmt.Errorf("download: %w", base)) {
		t.Error("wrapped error not recognised")
	}
	if IsInsufficientSpaceError(fmt.Errorf("other")) {
		t.Error("unrelated error recognised")
	}
	if got := base.Error(); got != "insufficient disk space for x: need 2.00 MB, have 1.00 MB available" {
		t.Errorf("Error() = %q", got)
	}
}

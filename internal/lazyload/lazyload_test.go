package lazyload

import (
	"path/filepath"
	"testing"
)

func TestDefaultBasePath(t *testing.T) {
	SetBasePath("")
	if got := BasePath(); got != "." {
		t.Errorf("BasePath = %q, want %q", got, ".")
	}
}

func TestAbsolutePath(t *testing.T) {
	SetBasePath("/data/scans")
	defer SetBasePath("")

	if got := AbsolutePath("frame_0001.bin"); got != filepath.Join("/data/scans", "frame_0001.bin") {
		t.Errorf("relative path resolved to %q", got)
	}

	abs := filepath.Join(string(filepath.Separator), "tmp", "frame.bin")
	if got := AbsolutePath(abs); got != abs {
		t.Errorf("absolute path changed to %q, want %q", got, abs)
	}
}

func TestSetBasePathEmptyResets(t *testing.T) {
	SetBasePath("/somewhere")
	SetBasePath("")
	if got := AbsolutePath("x"); got != filepath.Join(".", "x") {
		t.Errorf("after reset AbsolutePath = %q", got)
	}
}

package terminal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRedirectedStdoutIsNotTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdout"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	saved := os.Stdout
	os.Stdout = f
	defer func() { os.Stdout = saved }()

	if IsStdoutTerminal() {
		t.Error("a regular file is not a terminal")
	}
	if IsInteractive() {
		t.Error("output redirected to a file is not interactive")
	}
}

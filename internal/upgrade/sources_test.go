package upgrade

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestReadOSReleaseID(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"plain", "NAME=\"Kali GNU/Linux\"\nID=kali\nID_LIKE=debian\n", "kali"},
		{"quoted", "ID=\"Ubuntu\"\n", "ubuntu"},
		{"single quoted", "ID='debian'\n", "debian"},
		{"ID_LIKE is not ID", "ID_LIKE=ubuntu\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "os-release")
			writeFile(t, path, tt.content)
			got, err := ReadOSReleaseID(path)
			if err != nil {
				t.Fatalf("ReadOSReleaseID() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadOSReleaseID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadOSReleaseIDMissingFile(t *testing.T) {
	got, err := ReadOSReleaseID(filepath.Join(t.TempDir(), "missing"))
	if err != nil || got != "" {
		t.Errorf("ReadOSReleaseID() = %q, %v; want empty and no error", got, err)
	}
}

func TestSourceFilesOrder(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "sources.list")
	sub := filepath.Join(dir, "sources.list.d")
	writeFile(t, list, "")
	writeFile(t, filepath.Join(sub, "zz.list"), "")
	writeFile(t, filepath.Join(sub, "aa.list"), "")
	writeFile(t, filepath.Join(sub, "ubuntu.sources"), "")
	writeFile(t, filepath.Join(sub, "ignored.save"), "")

	files, err := SourceFiles(list, sub)
	if err != nil {
		t.Fatalf("SourceFiles() error = %v", err)
	}
	want := []string{list, filepath.Join(sub, "aa.list"), filepath.Join(sub, "ubuntu.sources"), filepath.Join(sub, "zz.list")}
	if len(files) != len(want) {
		t.Fatalf("SourceFiles() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestSourceFilesMissingList(t *testing.T) {
	dir := t.TempDir()
	files, err := SourceFiles(filepath.Join(dir, "sources.list"), filepath.Join(dir, "nope"))
	if err != nil {
		t.Fatalf("SourceFiles() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestFindVendorSources(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "sources.list")
	extra := filepath.Join(dir, "ppa.list")
	writeFile(t, main, `# deb http://archive.ubuntu.com/ubuntu jammy main

deb http://http.kali.org/kali kali-rolling main contrib non-free
   #deb-src http://archive.ubuntu.com/ubuntu jammy main
`)
	writeFile(t, extra, "deb http://ppa.launchpad.net/foo/ubuntu jammy main\ndeb http://security.ubuntu.com/ubuntu jammy-security main\n")

	entries, err := FindVendorSources([]string{main, extra, filepath.Join(dir, "gone.list")}, "ubuntu.com")
	if err != nil {
		t.Fatalf("FindVendorSources() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %+v", entries)
	}
	e := entries[0]
	if e.File != extra || e.Line != 2 || e.Text != "deb http://security.ubuntu.com/ubuntu jammy-security main" {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestFindVendorSourcesDeb822(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sources.list.d")
	writeFile(t, filepath.Join(sub, "ubuntu.sources"), `Types: deb
URIs: http://archive.ubuntu.com/ubuntu
Suites: noble noble-updates
Components: main restricted
Signed-By: /usr/share/keyrings/ubuntu-archive-keyring.gpg

# URIs: http://security.ubuntu.com/ubuntu
`)

	files, err := SourceFiles(filepath.Join(dir, "sources.list"), sub)
	if err != nil {
		t.Fatalf("SourceFiles() error = %v", err)
	}
	entries, err := FindVendorSources(files, "ubuntu.com")
	if err != nil {
		t.Fatalf("FindVendorSources() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected the deb822 URIs line, got %+v", entries)
	}
	if entries[0].Line != 2 || entries[0].Text != "URIs: http://archive.ubuntu.com/ubuntu" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
}

func TestFindVendorSourcesLongLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.list")
	writeFile(t, path, "# "+strings.Repeat("x", 70*1024)+"\ndeb http://archive.ubuntu.com/ubuntu jammy main\n")

	entries, err := FindVendorSources([]string{path}, "ubuntu.com")
	if err != nil {
		t.Fatalf("FindVendorSources() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Line != 2 {
		t.Errorf("entry after a long line should be found, got %+v", entries)
	}
}

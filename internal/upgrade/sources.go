package upgrade

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SourceEntry is an active package source line pointing at a vendor mirror
type SourceEntry struct {
	File string
	Line int
	Text string
}

// ReadOSReleaseID returns the ID field of an os-release file, lowercased
// and unquoted. A missing file yields "".
func ReadOSReleaseID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok || key != "ID" {
			continue
		}
		return strings.ToLower(strings.Trim(value, `"'`)), nil
	}
	return "", scanner.Err()
}

// sourcePatterns are the one-line (*.list) and deb822 (*.sources) formats
var sourcePatterns = []string{"*.list", "*.sources"}

// SourceFiles returns the main sources list followed by every *.list and
// *.sources file in dir, sorted. Paths that do not exist are left out.
func SourceFiles(list, dir string) ([]string, error) {
	var files []string
	if list != "" {
		if _, err := os.Stat(list); err == nil {
			files = append(files, list)
		}
	}

	if dir != "" {
		var matches []string
		for _, pattern := range sourcePatterns {
			m, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, err
			}
			matches = append(matches, m...)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}

	return files, nil
}

// FindVendorSources returns uncommented source lines mentioning domain
func FindVendorSources(files []string, domain string) ([]SourceEntry, error) {
	var found []SourceEntry

	for _, file := range files {
		entries, err := scanSourceFile(file, domain)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		found = append(found, entries...)
	}

	return found, nil
}

func scanSourceFile(path, domain string) ([]SourceEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var found []SourceEntry
	for i, line := range strings.Split(string(data), "\n") {
		text := strings.TrimSpace(line)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if strings.Contains(text, domain) {
			found = append(found, SourceEntry{File: path, Line: i + 1, Text: text})
		}
	}
	return found, nil
}

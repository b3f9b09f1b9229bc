package apt

import (
	"context"
	"os"
	"strings"
)

// Manager defines the package manager operations kpm relies on.
// This interface allows for mocking apt in tests.
type Manager interface {
	// Update refreshes the package index and returns its output
	Update(ctx context.Context) (string, error)

	// SimulateUpgrade returns the output of a simulated full-upgrade
	SimulateUpgrade(ctx context.Context) (string, error)

	// Upgrade performs a full-upgrade, asking the operator when interactive
	Upgrade(ctx context.Context, interactive bool) error

	// SimulateInstall returns the output of a simulated install
	SimulateInstall(ctx context.Context, pkgs ...string) (string, error)

	// Install installs packages, asking the operator when interactive
	Install(ctx context.Context, interactive bool, pkgs ...string) error

	// SimulateAutoremove returns the output of a simulated autoremove
	SimulateAutoremove(ctx context.Context) (string, error)

	// Autoremove removes packages that are no longer required
	Autoremove(ctx context.Context, interactive bool) error

	// ResidualConfigPackages lists removed packages whose configuration remains
	ResidualConfigPackages(ctx context.Context) ([]string, error)

	// Purge removes packages together with their configuration
	Purge(ctx context.Context, pkgs ...string) error

	// Autoclean erases obsolete downloaded archives
	Autoclean(ctx context.Context) error

	// ImportKeys fetches signing keys from a keyserver in a single call
	ImportKeys(ctx context.Context, keyserver string, ids ...string) error

	// ShowHold returns packages marked as held
	ShowHold(ctx context.Context) ([]string, error)

	// Search returns apt-cache search results for a query
	Search(ctx context.Context, query string) (string, error)

	// Madison returns the available versions of a package
	Madison(ctx context.Context, pkg string) (string, error)

	// HasDirmngr reports whether the key import helper is installed
	HasDirmngr() bool
}

// Binaries names the executables AptManager calls
type Binaries struct {
	AptGet    string
	AptCache  string
	AptKey    string
	AptMark   string
	DpkgQuery string
	Dirmngr   string // absolute path checked by HasDirmngr
}

// DefaultBinaries returns the stock Debian tool names
func DefaultBinaries() Binaries {
	return Binaries{
		AptGet:    "apt-get",
		AptCache:  "apt-cache",
		AptKey:    "apt-key",
		AptMark:   "apt-mark",
		DpkgQuery: "dpkg-query",
		Dirmngr:   "/usr/bin/dirmngr",
	}
}

// AptManager implements Manager on top of the apt command line tools
type AptManager struct {
	runner *Runner
	bin    Binaries
}

// NewAptManager creates an AptManager using runner to execute commands
func NewAptManager(runner *Runner, bin Binaries) *AptManager {
	return &AptManager{runner: runner, bin: bin}
}

// Update runs apt-get update, streaming its output
func (m *AptManager) Update(ctx context.Context) (string, error) {
	return m.runner.Stream(ctx, m.bin.AptGet, "update")
}

// SimulateUpgrade runs apt-get -s full-upgrade
func (m *AptManager) SimulateUpgrade(ctx context.Context) (string, error) {
	return m.runner.Output(ctx, m.bin.AptGet, "-s", "full-upgrade")
}

// Upgrade runs apt-get full-upgrade, with -y unless interactive
func (m *AptManager) Upgrade(ctx context.Context, interactive bool) error {
	if interactive {
		return m.runner.Interactive(ctx, m.bin.AptGet, "full-upgrade")
	}
	return m.runner.Interactive(ctx, m.bin.AptGet, "full-upgrade", "-y")
}

// SimulateInstall runs apt-get -s install
func (m *AptManager) SimulateInstall(ctx context.Context, pkgs ...string) (string, error) {
	args := append([]string{"-s", "install"}, pkgs...)
	return m.runner.Output(ctx, m.bin.AptGet, args...)
}

// Install runs apt-get install, with -y unless interactive
func (m *AptManager) Install(ctx context.Context, interactive bool, pkgs ...string) error {
	args := []string{"install"}
	if !interactive {
		args = append(args, "-y")
	}
	args = append(args, pkgs...)
	return m.runner.Interactive(ctx, m.bin.AptGet, args...)
}

// SimulateAutoremove runs apt-get -s autoremove
func (m *AptManager) SimulateAutoremove(ctx context.Context) (string, error) {
	return m.runner.Output(ctx, m.bin.AptGet, "-s", "autoremove")
}

// Autoremove runs apt-get autoremove
func (m *AptManager) Autoremove(ctx context.Context, interactive bool) error {
	if interactive {
		return m.runner.Interactive(ctx, m.bin.AptGet, "autoremove")
	}
	return m.runner.Interactive(ctx, m.bin.AptGet, "autoremove", "-y")
}

// residualFormat prints one "<status> <package>" row per installed or
// remembered package, free of dpkg -l column truncation
const residualFormat = "-f=${db:Status-Abbrev} ${binary:Package}\n"

// ResidualConfigPackages lists packages in the "rc" state via dpkg-query
func (m *AptManager) ResidualConfigPackages(ctx context.Context) ([]string, error) {
	out, err := m.runner.Output(ctx, m.bin.DpkgQuery, "-W", residualFormat)
	if err != nil {
		return nil, err
	}
	return ParseResidualConfig(out), nil
}

// Purge runs apt-get purge -y
func (m *AptManager) Purge(ctx context.Context, pkgs ...string) error {
	args := append([]string{"purge", "-y"}, pkgs...)
	_, err := m.runner.Stream(ctx, m.bin.AptGet, args...)
	return err
}

// Autoclean runs apt-get autoclean
func (m *AptManager) Autoclean(ctx context.Context) error {
	_, err := m.runner.Stream(ctx, m.bin.AptGet, "autoclean")
	return err
}

// ImportKeys runs apt-key adv --keyserver <server> --recv-keys <ids...>
func (m *AptManager) ImportKeys(ctx context.Context, keyserver string, ids ...string) error {
	args := append([]string{"adv", "--keyserver", keyserver, "--recv-keys"}, ids...)
	_, err := m.runner.Stream(ctx, m.bin.AptKey, args...)
	return err
}

// ShowHold runs apt-mark showhold
func (m *AptManager) ShowHold(ctx context.Context) ([]string, error) {
	out, err := m.runner.Output(ctx, m.bin.AptMark, "showhold")
	if err != nil {
		return nil, err
	}
	return splitNonEmptyLines(out), nil
}

// Search runs apt-cache search
func (m *AptManager) Search(ctx context.Context, query string) (string, error) {
	return m.runner.Output(ctx, m.bin.AptCache, "search", query)
}

// Madison runs apt-cache madison
func (m *AptManager) Madison(ctx context.Context, pkg string) (string, error) {
	return m.runner.Output(ctx, m.bin.AptCache, "madison", pkg)
}

// HasDirmngr checks for the dirmngr binary apt-key needs to reach keyservers
func (m *AptManager) HasDirmngr() bool {
	return fileExists(m.bin.Dirmngr)
}

// ParseResidualConfig extracts package names from dpkg-query rows whose
// status abbreviation is "rc" (removed, configuration files remain)
func ParseResidualConfig(output string) []string {
	var pkgs []string

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		// the third status letter is the error flag, blank unless reinstall is required
		if strings.HasPrefix(fields[0], "rc") {
			pkgs = append(pkgs, fields[1])
		}
	}

	return pkgs
}

func splitNonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// fileExists checks if a file or directory exists using os.Stat
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Ensure AptManager implements Manager interface
var _ Manager = (*AptManager)(nil)

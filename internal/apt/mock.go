package apt

import (
	"context"
	"strings"
)

// MockManager implements Manager for testing.
// Each method can be configured with a custom function to control behavior.
// Every call is recorded in Calls as "method arg1 arg2".
type MockManager struct {
	UpdateFunc                 func() (string, error)
	SimulateUpgradeFunc        func() (string, error)
	UpgradeFunc                func(interactive bool) error
	SimulateInstallFunc        func(pkgs ...string) (string, error)
	InstallFunc                func(interactive bool, pkgs ...string) error
	SimulateAutoremoveFunc     func() (string, error)
	AutoremoveFunc             func(interactive bool) error
	ResidualConfigPackagesFunc func() ([]string, error)
	PurgeFunc                  func(pkgs ...string) error
	AutocleanFunc              func() error
	ImportKeysFunc             func(keyserver string, ids ...string) error
	ShowHoldFunc               func() ([]string, error)
	SearchFunc                 func(query string) (string, error)
	MadisonFunc                func(pkg string) (string, error)
	HasDirmngrFunc             func() bool

	Calls []string
}

func (m *MockManager) record(method string, args ...string) {
	m.Calls = append(m.Calls, strings.TrimSpace(method+" "+strings.Join(args, " ")))
}

// Called reports whether a call starting with prefix was recorded
func (m *MockManager) Called(prefix string) bool {
	for _, c := range m.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// Count returns how many recorded calls start with prefix
func (m *MockManager) Count(prefix string) int {
	n := 0
	for _, c := range m.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Update refreshes the package index
func (m *MockManager) Update(ctx context.Context) (string, error) {
	m.record("Update")
	if m.UpdateFunc != nil {
		return m.UpdateFunc()
	}
	return "", nil
}

// SimulateUpgrade returns simulated full-upgrade output
func (m *MockManager) SimulateUpgrade(ctx context.Context) (string, error) {
	m.record("SimulateUpgrade")
	if m.SimulateUpgradeFunc != nil {
		return m.SimulateUpgradeFunc()
	}
	return "0 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.\n", nil
}

// Upgrade performs a full-upgrade
func (m *MockManager) Upgrade(ctx context.Context, interactive bool) error {
	if interactive {
		m.record("Upgrade", "interactive")
	} else {
		m.record("Upgrade", "-y")
	}
	if m.UpgradeFunc != nil {
		return m.UpgradeFunc(interactive)
	}
	return nil
}

// SimulateInstall returns simulated install output
func (m *MockManager) SimulateInstall(ctx context.Context, pkgs ...string) (string, error) {
	m.record("SimulateInstall", pkgs...)
	if m.SimulateInstallFunc != nil {
		return m.SimulateInstallFunc(pkgs...)
	}
	return "1 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.\n", nil
}

// Install installs packages
func (m *MockManager) Install(ctx context.Context, interactive bool, pkgs ...string) error {
	mode := "-y"
	if interactive {
		mode = "interactive"
	}
	m.record("Install", append([]string{mode}, pkgs...)...)
	if m.InstallFunc != nil {
		return m.InstallFunc(interactive, pkgs...)
	}
	return nil
}

// SimulateAutoremove returns simulated autoremove output
func (m *MockManager) SimulateAutoremove(ctx context.Context) (string, error) {
	m.record("SimulateAutoremove")
	if m.SimulateAutoremoveFunc != nil {
		return m.SimulateAutoremoveFunc()
	}
	return "0 upgraded, 0 newly installed, 0 to remove and 0 not upgraded.\n", nil
}

// Autoremove removes unneeded packages
func (m *MockManager) Autoremove(ctx context.Context, interactive bool) error {
	m.record("Autoremove")
	if m.AutoremoveFunc != nil {
		return m.AutoremoveFunc(interactive)
	}
	return nil
}

// ResidualConfigPackages lists packages in the "rc" state
func (m *MockManager) ResidualConfigPackages(ctx context.Context) ([]string, error) {
	m.record("ResidualConfigPackages")
	if m.ResidualConfigPackagesFunc != nil {
		return m.ResidualConfigPackagesFunc()
	}
	return nil, nil
}

// Purge removes packages and their configuration
func (m *MockManager) Purge(ctx context.Context, pkgs ...string) error {
	m.record("Purge", pkgs...)
	if m.PurgeFunc != nil {
		return m.PurgeFunc(pkgs...)
	}
	return nil
}

// Autoclean erases obsolete archives
func (m *MockManager) Autoclean(ctx context.Context) error {
	m.record("Autoclean")
	if m.AutocleanFunc != nil {
		return m.AutocleanFunc()
	}
	return nil
}

// ImportKeys fetches signing keys
func (m *MockManager) ImportKeys(ctx context.Context, keyserver string, ids ...string) error {
	m.record("ImportKeys", append([]string{keyserver}, ids...)...)
	if m.ImportKeysFunc != nil {
		return m.ImportKeysFunc(keyserver, ids...)
	}
	return nil
}

// ShowHold returns held packages
func (m *MockManager) ShowHold(ctx context.Context) ([]string, error) {
	m.record("ShowHold")
	if m.ShowHoldFunc != nil {
		return m.ShowHoldFunc()
	}
	return nil, nil
}

// Search returns search results
func (m *MockManager) Search(ctx context.Context, query string) (string, error) {
	m.record("Search", query)
	if m.SearchFunc != nil {
		return m.SearchFunc(query)
	}
	return "", nil
}

// Madison returns available versions
func (m *MockManager) Madison(ctx context.Context, pkg string) (string, error) {
	m.record("Madison", pkg)
	if m.MadisonFunc != nil {
		return m.MadisonFunc(pkg)
	}
	return "", nil
}

// HasDirmngr reports whether dirmngr is installed
func (m *MockManager) HasDirmngr() bool {
	if m.HasDirmngrFunc != nil {
		return m.HasDirmngrFunc()
	}
	return true
}

// Ensure MockManager implements Manager interface
var _ Manager = (*MockManager)(nil)

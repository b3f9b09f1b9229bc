package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/obentoo/kpm/internal/apt"
	"github.com/obentoo/kpm/internal/common/config"
	"github.com/obentoo/kpm/internal/common/logger"
	"github.com/obentoo/kpm/internal/common/output"
	"github.com/obentoo/kpm/internal/common/terminal"
	"github.com/obentoo/kpm/internal/netcheck"
	"github.com/obentoo/kpm/internal/prompt"
	"github.com/obentoo/kpm/internal/selfupdate"
	"github.com/obentoo/kpm/internal/upgrade"
)

var (
	// ErrNotRoot indicates kpm was started without superuser privileges
	ErrNotRoot = errors.New("kpm must be run with root privileges")
	// ErrForcedUpdate indicates --force_upgrade could not update kpm
	ErrForcedUpdate = errors.New("forced self-update failed")
)

// app holds the dependencies of one kpm run
type app struct {
	cfg        *config.Config
	manager    apt.Manager
	prompter   prompt.Prompter
	checker    netcheck.Checker
	updater    *selfupdate.Updater
	state      *upgrade.RunState
	euid       func() int
	executable func() (string, error)
	out        io.Writer
}

// newApp wires the real apt tools, prompt, connectivity check and updater from cfg
func newApp(cfg *config.Config, o options) (*app, error) {
	checker, err := netcheck.FromConfig(cfg.Connectivity)
	if err != nil {
		return nil, err
	}

	bin := apt.Binaries{
		AptGet:    cfg.Apt.AptGet,
		AptCache:  cfg.Apt.AptCache,
		AptKey:    cfg.Apt.AptKey,
		AptMark:   cfg.Apt.AptMark,
		DpkgQuery: cfg.Apt.DpkgQuery,
		Dirmngr:   cfg.Keys.Dirmngr,
	}

	updater := selfupdate.NewUpdater(selfupdate.NewClientFromConfig(cfg.SelfUpdate), cfg.SelfUpdate.Asset)
	if terminal.IsStdoutTerminal() && !quiet {
		updater.Progress = os.Stdout
	}

	state := upgrade.NewRunState()
	if !cfg.Log.Disable {
		if err := logger.Default().EnableFileLogging(cfg.Log.File); err != nil {
			logger.Warn("File logging disabled: %v", err)
		}
	}
	logger.Default().SetRunID(state.ID)

	return &app{
		cfg:        cfg,
		manager:    apt.NewAptManager(apt.NewRunner(), bin),
		prompter:   newPrompter(o.yes),
		checker:    checker,
		updater:    updater,
		state:      state,
		euid:       os.Geteuid,
		executable: os.Executable,
		out:        output.Stdout,
	}, nil
}

// newPrompter asks the operator through huh. With --yes routine questions
// are accepted, but risky ones still reach the operator or keep their default.
func newPrompter(yes bool) prompt.Prompter {
	if !yes {
		return prompt.NewHuhPrompter()
	}
	assume := prompt.AssumeYes()
	assume.Risky = prompt.NewHuhPrompter()
	return assume
}

func (a *app) orchestrator() *upgrade.Orchestrator {
	return upgrade.NewOrchestrator(a.manager, a.prompter, upgrade.Options{
		Keyserver:    a.cfg.Keys.Keyserver,
		SourcesList:  a.cfg.Apt.SourcesList,
		SourcesDir:   a.cfg.Apt.SourcesDir,
		OSRelease:    a.cfg.Apt.OSRelease,
		VendorDomain: a.cfg.Sources.VendorDomain,
		VendorID:     a.cfg.Sources.VendorID,
	})
}

// run executes the mode selected by o
func (a *app) run(ctx context.Context, o options) error {
	logger.Debug("Run %s", a.state.ID)

	if a.euid() != 0 {
		return ErrNotRoot
	}

	if o.installKPM {
		exe, err := a.executable()
		if err != nil {
			return err
		}
		return selfupdate.Install(exe, a.cfg.Install.Path)
	}

	if o.ignoreConnectivity {
		logger.Warn("Skipping the internet connectivity check")
	} else {
		logger.Debug("Checking internet connectivity")
		if err := a.checker.Check(ctx); err != nil {
			return err
		}
	}

	if o.forceUpgrade {
		return a.forceUpdate(ctx)
	}

	if a.cfg.SelfUpdate.CheckOnStart {
		updated, err := a.checkForUpdate(ctx)
		if err != nil {
			return err
		}
		if updated {
			return nil
		}
	}

	orch := a.orchestrator()

	switch {
	case o.xinstall != "":
		pkgs, err := upgrade.SplitPackages(o.xinstall)
		if err != nil {
			return err
		}
		_, err = orch.Install(ctx, pkgs, true)
		return err
	case o.install != "":
		pkgs, err := upgrade.SplitPackages(o.install)
		if err != nil {
			return err
		}
		_, err = orch.Install(ctx, pkgs, false)
		return err
	case o.search != "":
		res, err := a.manager.Search(ctx, o.search)
		if err != nil {
			return err
		}
		fmt.Fprint(a.out, output.HighlightLines(res, o.search))
		return nil
	case o.madison != "":
		res, err := a.manager.Madison(ctx, o.madison)
		if err != nil {
			return err
		}
		fmt.Fprint(a.out, res)
		return nil
	case o.autoremove:
		return a.manager.Autoremove(ctx, true)
	}

	result, err := orch.Upgrade(ctx, a.state)
	if err != nil {
		return err
	}
	logger.Info("Upgrade finished: %s", result.Outcome)

	if _, err := orch.Cleanup(ctx); err != nil {
		return err
	}
	output.PrintSuccess("System is up to date")
	return nil
}

// forceUpdate replaces the running executable with the latest release
func (a *app) forceUpdate(ctx context.Context) error {
	exe, err := a.executable()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrForcedUpdate, err)
	}
	release, _, err := a.updater.Check(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrForcedUpdate, err)
	}
	if err := a.updater.Apply(ctx, release, exe); err != nil {
		return fmt.Errorf("%w: %w", ErrForcedUpdate, err)
	}
	return nil
}

// checkForUpdate offers to install a newer release. Failures are logged and
// the run continues; it reports whether kpm was replaced.
func (a *app) checkForUpdate(ctx context.Context) (bool, error) {
	logger.Debug("Checking for kpm updates")
	release, newer, err := a.updater.Check(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logger.Warn("Could not check for kpm updates: %v", err)
		return false, nil
	}
	if !newer {
		logger.Debug("kpm is up to date")
		return false, nil
	}

	output.Box("Update available", fmt.Sprintf("kpm %s → %s", a.updater.Current, release.TagName))
	ok, err := a.prompter.Confirm("Update kpm now?", true)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	exe, err := a.executable()
	if err != nil {
		logger.Error("Could not locate the kpm executable: %v", err)
		return false, nil
	}
	if err := a.updater.Apply(ctx, release, exe); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		logger.Error("Updating kpm failed: %v", err)
		return false, nil
	}
	logger.Info("kpm updated to %s. Run kpm again to use the new version", release.TagName)
	return true, nil
}

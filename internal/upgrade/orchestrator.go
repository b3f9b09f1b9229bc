// Package upgrade decides whether a system upgrade is safe to apply and
// sequences the maintenance stages around it.
package upgrade

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/obentoo/kpm/internal/apt"
	"github.com/obentoo/kpm/internal/common/logger"
	"github.com/obentoo/kpm/internal/common/output"
	"github.com/obentoo/kpm/internal/prompt"
)

var (
	// ErrAborted indicates the operator declined to continue
	ErrAborted = errors.New("aborted by operator")
	// ErrEmptyPackageName indicates a package list contained an empty name
	ErrEmptyPackageName = errors.New("package names must not be empty")
)

// RunState is the transient state of one kpm run
type RunState struct {
	ID            string
	PendingKeyIDs []string
}

// NewRunState creates the state for a new run with a random ID
func NewRunState() *RunState {
	return &RunState{ID: uuid.New().String()}
}

// Outcome describes how an upgrade run ended
type Outcome int

const (
	OutcomeNothingToDo Outcome = iota
	OutcomeUpgraded
	OutcomeManualUpgrade
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNothingToDo:
		return "nothing to do"
	case OutcomeUpgraded:
		return "upgraded"
	case OutcomeManualUpgrade:
		return "manual upgrade"
	default:
		return "unknown"
	}
}

// Result contains upgrade run results
type Result struct {
	Outcome Outcome
	Plan    Plan
	Summary Summary
	Held    []string // packages held back when nothing was upgradable
}

// Options configures the orchestrator
type Options struct {
	Keyserver    string
	SourcesList  string
	SourcesDir   string
	OSRelease    string
	VendorDomain string
	VendorID     string
}

// Orchestrator sequences the upgrade stages against a package manager
type Orchestrator struct {
	manager  apt.Manager
	prompter prompt.Prompter
	opts     Options
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(manager apt.Manager, prompter prompt.Prompter, opts Options) *Orchestrator {
	return &Orchestrator{manager: manager, prompter: prompter, opts: opts}
}

// wrapStage annotates a failure with the stage it happened in. Interrupts
// pass through untouched.
func wrapStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, prompt.ErrInterrupted) {
		return err
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// Upgrade runs the source check, cache update, key import, availability and
// safety checks, then applies the upgrade. Only the key import may re-run
// the update, and only once.
func (o *Orchestrator) Upgrade(ctx context.Context, state *RunState) (*Result, error) {
	logger.Info("Starting automatic upgrade")

	if err := o.checkSources(); err != nil {
		return nil, err
	}

	logger.Info("Updating APT cache")
	out, err := o.manager.Update(ctx)
	if err != nil {
		return nil, wrapStage("cache update", err)
	}
	state.PendingKeyIDs = ScanKeys(out)
	logger.Info("APT cache updated")

	if err := o.importKeys(ctx, state); err != nil {
		return nil, err
	}

	logger.Debug("Checking package updates")
	sim, err := o.manager.SimulateUpgrade(ctx)
	if err != nil {
		return nil, wrapStage("upgrade simulation", err)
	}

	plan, summary, err := Classify(sim)
	result := &Result{Plan: plan, Summary: summary}
	if err != nil {
		logger.Error("Could not determine whether the upgrade is safe")
		return result, wrapStage("upgrade simulation", err)
	}
	logger.Debug("Simulation: %d upgraded, %d newly installed, %d to remove, %d not upgraded %s",
		summary.Upgraded, summary.NewlyInstalled, summary.ToRemove, summary.NotUpgraded, output.FormatPlan(plan.String()))

	if plan == PlanNoneAvailable {
		logger.Info("No upgrades available")
		result.Outcome = OutcomeNothingToDo
		if summary.NotUpgraded > 0 {
			result.Held = o.showHeld(ctx)
		}
		return result, nil
	}

	logger.Debug("Checking if upgrade is safe")
	if plan == PlanSafe {
		logger.Info("Upgrade safe. Starting upgrade")
		if err := o.manager.Upgrade(ctx, false); err != nil {
			return result, wrapStage("upgrade", err)
		}
		result.Outcome = OutcomeUpgraded
		return result, nil
	}

	logger.Warn("Upgrade NOT safe: %d package(s) would be removed. Requiring human confirmation", summary.ToRemove)
	if err := o.manager.Upgrade(ctx, true); err != nil {
		return result, wrapStage("manual upgrade", err)
	}
	result.Outcome = OutcomeManualUpgrade
	return result, nil
}

// checkSources warns about vendor mirrors on a foreign distribution and
// asks before continuing
func (o *Orchestrator) checkSources() error {
	if o.opts.VendorDomain == "" {
		return nil
	}

	id, err := ReadOSReleaseID(o.opts.OSRelease)
	if err != nil {
		logger.Warn("Could not read %s: %v", o.opts.OSRelease, err)
	}
	if id == strings.ToLower(o.opts.VendorID) {
		return nil
	}

	files, err := SourceFiles(o.opts.SourcesList, o.opts.SourcesDir)
	if err != nil {
		return wrapStage("source check", err)
	}
	entries, err := FindVendorSources(files, o.opts.VendorDomain)
	if err != nil {
		return wrapStage("source check", err)
	}
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		logger.Warn("%s source detected in %s:%d: %s", o.opts.VendorDomain, e.File, e.Line, e.Text)
	}
	logger.Warn("Continuing the upgrade might cause severe consequences!")

	ok, err := prompt.ConfirmRisky(o.prompter, "Are you sure that you want to continue?", false)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn("Aborting system upgrade")
		return ErrAborted
	}
	return nil
}

// showHeld lists held packages. Failure only loses the list.
func (o *Orchestrator) showHeld(ctx context.Context) []string {
	held, err := o.manager.ShowHold(ctx)
	if err != nil {
		logger.Debug("apt-mark showhold failed: %v", err)
		return nil
	}
	if len(held) == 0 {
		return nil
	}
	logger.Warn("Following packages are marked hold and will not be upgraded:")
	for _, pkg := range held {
		fmt.Fprintln(output.Stdout, "  "+output.Sprint(output.Error, pkg))
	}
	return held
}

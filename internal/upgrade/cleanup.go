package upgrade

import (
	"context"
	"errors"
	"strings"

	"github.com/obentoo/kpm/internal/common/logger"
)

// CleanupResult contains cleanup stage results
type CleanupResult struct {
	Autoremoved bool
	Purged      []string
}

// Cleanup offers to autoremove unneeded packages and purge residual
// configuration, then erases obsolete downloaded archives
func (o *Orchestrator) Cleanup(ctx context.Context) (*CleanupResult, error) {
	result := &CleanupResult{}

	logger.Debug("Checking for unused packages")
	sim, err := o.manager.SimulateAutoremove(ctx)
	if err != nil {
		return result, wrapStage("autoremove simulation", err)
	}
	summary, err := ParseSummary(sim)
	switch {
	case errors.Is(err, ErrSummaryNotFound):
		logger.Warn("Could not determine whether unused packages exist")
	case summary.ToRemove > 0:
		ok, err := o.prompter.Confirm("Remove useless packages?", true)
		if err != nil {
			return result, err
		}
		if ok {
			if err := o.manager.Autoremove(ctx, true); err != nil {
				return result, wrapStage("autoremove", err)
			}
			result.Autoremoved = true
		}
	default:
		logger.Info("No unused packages found")
	}

	logger.Debug("Checking for residual configuration files")
	residual, err := o.manager.ResidualConfigPackages(ctx)
	if err != nil {
		return result, wrapStage("residual configuration check", err)
	}
	if len(residual) > 0 {
		logger.Info("Residual configuration found for: %s", strings.Join(residual, " "))
		ok, err := o.prompter.Confirm("Purge residual configuration files?", true)
		if err != nil {
			return result, err
		}
		if ok {
			if err := o.manager.Purge(ctx, residual...); err != nil {
				return result, wrapStage("purge", err)
			}
			result.Purged = residual
		}
	} else {
		logger.Info("No residual configuration files found")
	}

	logger.Info("Erasing old downloaded archive files")
	if err := o.manager.Autoclean(ctx); err != nil {
		return result, wrapStage("autoclean", err)
	}

	return result, nil
}

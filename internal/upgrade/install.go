package upgrade

import (
	"context"
	"strings"

	"github.com/obentoo/kpm/internal/common/logger"
)

// SplitPackages splits a comma separated package list. Any empty name
// (for example "vim,,git" or a trailing comma) is rejected.
func SplitPackages(list string) ([]string, error) {
	parts := strings.Split(list, ",")
	pkgs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, ErrEmptyPackageName
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, nil
}

// Install installs pkgs. With dryRunFirst the install is simulated and
// applied without questions only when it removes nothing; otherwise apt asks
// the operator.
func (o *Orchestrator) Install(ctx context.Context, pkgs []string, dryRunFirst bool) (Plan, error) {
	if len(pkgs) == 0 {
		return PlanUndetermined, ErrEmptyPackageName
	}
	for _, p := range pkgs {
		if strings.TrimSpace(p) == "" {
			return PlanUndetermined, ErrEmptyPackageName
		}
	}

	if !dryRunFirst {
		logger.Info("Installing: %s", strings.Join(pkgs, " "))
		return PlanUndetermined, wrapStage("install", o.manager.Install(ctx, true, pkgs...))
	}

	logger.Debug("Simulating install of %s", strings.Join(pkgs, " "))
	sim, err := o.manager.SimulateInstall(ctx, pkgs...)
	if err != nil {
		return PlanUndetermined, wrapStage("install simulation", err)
	}

	plan, summary, err := Classify(sim)
	if err != nil {
		return plan, wrapStage("install simulation", err)
	}

	switch plan {
	case PlanNoneAvailable:
		logger.Info("Nothing to install: %s already at the newest version", strings.Join(pkgs, " "))
		return plan, nil
	case PlanSafe:
		logger.Info("Install safe (%d upgraded, %d newly installed). Installing", summary.Upgraded, summary.NewlyInstalled)
		return plan, wrapStage("install", o.manager.Install(ctx, false, pkgs...))
	default:
		logger.Warn("Install would remove %d package(s). Requiring human confirmation", summary.ToRemove)
		return plan, wrapStage("install", o.manager.Install(ctx, true, pkgs...))
	}
}

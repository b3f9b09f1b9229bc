package upgrade

import (
	"context"
	"strings"

	"github.com/obentoo/kpm/internal/common/logger"
)

const (
	markerMissingKey = "NO_PUBKEY"
	markerExpiredKey = "EXPKEYSIG"
)

// ScanKeys collects signing key IDs from apt-get update output in the order
// they appear. A NO_PUBKEY line contributes its last token, an EXPKEYSIG line
// the token that follows the marker. Duplicates are kept. Lines of any
// length are scanned.
func ScanKeys(output string) []string {
	var ids []string

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		for i, f := range fields {
			if f == markerExpiredKey && i+1 < len(fields) {
				ids = append(ids, fields[i+1])
			}
		}

		if containsField(fields, markerMissingKey) {
			last := fields[len(fields)-1]
			if last != markerMissingKey {
				ids = append(ids, last)
			}
		}
	}

	return ids
}

func containsField(fields []string, want string) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}

// importKeys runs the key import cycle for ids and re-runs the update once.
// Failures are logged and swallowed; only an interrupt is returned.
func (o *Orchestrator) importKeys(ctx context.Context, state *RunState) error {
	ids := state.PendingKeyIDs
	if len(ids) == 0 {
		return nil
	}

	logger.Warn("Detected %d unimported key(s): %s", len(ids), strings.Join(ids, " "))
	ok, err := o.prompter.Confirm("Detected unimported keys. Import?", true)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn("Continuing without importing keys")
		return nil
	}

	if !o.manager.HasDirmngr() {
		logger.Warn("dirmngr is not installed. It is required for importing keys")
		install, err := o.prompter.Confirm("Install dirmngr now?", false)
		if err != nil {
			return err
		}
		if !install {
			logger.Warn("dirmngr not available. Continuing without importing keys")
			return nil
		}
		if err := o.manager.Install(ctx, false, "dirmngr"); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Installing dirmngr failed: %v", err)
			logger.Warn("dirmngr not available. Continuing without importing keys")
			return nil
		}
		logger.Info("dirmngr installed")
	}

	if err := o.manager.ImportKeys(ctx, o.opts.Keyserver, ids...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error("Importing keys from %s failed: %v", o.opts.Keyserver, err)
		logger.Warn("Continuing without the missing keys")
		return nil
	}
	logger.Info("Imported %d key(s)", len(ids))

	// One more update so the newly trusted sources are indexed
	logger.Info("Updating APT cache again")
	out, err := o.manager.Update(ctx)
	if err != nil {
		return wrapStage("cache update after key import", err)
	}
	state.PendingKeyIDs = ScanKeys(out)
	return nil
}

package selfupdate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/obentoo/kpm/internal/common/logger"
	"github.com/obentoo/kpm/internal/common/version"
)

// Updater checks for and applies new releases
type Updater struct {
	Client  *Client
	Asset   string
	Current string

	// Progress is where the download bar is drawn; nil disables it
	Progress io.Writer
}

// NewUpdater creates an Updater for the running version
func NewUpdater(client *Client, asset string) *Updater {
	return &Updater{Client: client, Asset: asset, Current: version.Version}
}

// Check returns the latest release and whether it is newer than Current
func (u *Updater) Check(ctx context.Context) (*Release, bool, error) {
	release, err := u.Client.Latest(ctx)
	if err != nil {
		return nil, false, err
	}
	newer := version.IsNewer(u.Current, release.TagName)
	logger.Debug("Local version %s, latest release %s", u.Current, release.TagName)
	return release, newer, nil
}

// Apply downloads the release asset next to target and renames it over
// target. On any failure target is left unchanged.
func (u *Updater) Apply(ctx context.Context, release *Release, target string) error {
	url, err := release.AssetURL(u.Asset)
	if err != nil {
		return err
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", target, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".update-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	logger.Info("Downloading %s %s", u.Asset, release.TagName)
	if err := u.download(ctx, url, tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set mode on update: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	committed = true

	logger.Info("Updated %s to %s", target, release.TagName)
	return nil
}

func (u *Updater) download(ctx context.Context, url string, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownload, err)
	}
	req.Header.Set("User-Agent", u.Client.UserAgent)

	resp, err := u.Client.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %s", ErrDownload, resp.Status)
	}

	w := dst
	if u.Progress != nil {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(u.Progress),
			progressbar.OptionSetDescription("Downloading "+u.Asset),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		w = io.MultiWriter(dst, bar)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return fmt.Errorf("%w: got %d of %d bytes", ErrDownload, n, resp.ContentLength)
	}
	if n == 0 {
		return fmt.Errorf("%w: empty response", ErrDownload)
	}
	return nil
}

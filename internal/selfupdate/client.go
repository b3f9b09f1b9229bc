// Package selfupdate looks up the latest kpm release and replaces the
// running executable with it.
package selfupdate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/obentoo/kpm/internal/common/config"
	"github.com/obentoo/kpm/internal/common/version"
)

var (
	// ErrAPIError indicates the release API could not be queried
	ErrAPIError = errors.New("release API error")
	// ErrNoAsset indicates the release has no asset with the wanted name
	ErrNoAsset = errors.New("release has no matching asset")
	// ErrDownload indicates the new executable could not be downloaded
	ErrDownload = errors.New("downloading update failed")
)

// Asset is a downloadable file attached to a release
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
}

// Release is the subset of the release descriptor kpm uses
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// AssetURL returns the download URL of the asset called name
func (r *Release) AssetURL(name string) (string, error) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a.DownloadURL, nil
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrNoAsset, name, r.TagName)
}

// Client queries the release API
type Client struct {
	BaseURL    string
	Repository string
	UserAgent  string
	HTTPClient *http.Client
}

// NewClient creates a release API client
func NewClient() *Client {
	return &Client{
		BaseURL:    "https://api.github.com",
		Repository: "K4YT3X/KPM",
		UserAgent:  "kpm/" + version.Version,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientFromConfig creates a client with settings from cfg
func NewClientFromConfig(cfg config.SelfUpdateConfig) *Client {
	client := NewClient()
	if cfg.APIURL != "" {
		client.BaseURL = cfg.APIURL
	}
	if cfg.Repository != "" {
		client.Repository = cfg.Repository
	}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	return client
}

// Latest fetches the latest release descriptor
func (c *Client) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.BaseURL, c.Repository)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAPIError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, string(body))
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("%w: failed to parse release: %v", ErrAPIError, err)
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("%w: release has no tag", ErrAPIError)
	}
	return &release, nil
}

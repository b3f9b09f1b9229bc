// Package netcheck probes internet connectivity before the upgrade touches
// the network.
package netcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/obentoo/kpm/internal/common/config"
	"github.com/obentoo/kpm/internal/common/logger"
)

// ErrNotConnected indicates the connectivity probe failed
var ErrNotConnected = errors.New("internet connectivity check failed")

const (
	StrategyHTTP   = "http"
	StrategySocket = "socket"

	defaultTimeout = 5 * time.Second
	// bodies larger than this cannot be the marker
	maxBodySize = 4096
)

// Checker reports whether the host can reach the internet
type Checker interface {
	Check(ctx context.Context) error
}

// HTTPProbe fetches a marker URL and compares the body with Expected
type HTTPProbe struct {
	URL      string
	Expected string
	Timeout  time.Duration
	Client   *http.Client
}

// Check performs one GET. Connected only on status 200 with an exact body match.
func (p *HTTPProbe) Check(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	logger.Debug("Probing %s", p.URL)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrNotConnected, p.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrNotConnected, err)
	}
	if string(body) != p.Expected {
		return fmt.Errorf("%w: unexpected response from %s (captive portal?)", ErrNotConnected, p.URL)
	}
	return nil
}

// SocketProbe dials a well-known address and resolves a well-known host.
// The host is offline only when both fail.
type SocketProbe struct {
	Address string
	Host    string
	Timeout time.Duration

	Dialer   *net.Dialer
	Resolver *net.Resolver
}

// Check dials Address and resolves Host
func (p *SocketProbe) Check(ctx context.Context) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialer := p.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: timeout}
	}
	resolver := p.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, dialErr := dialer.DialContext(dialCtx, "tcp", p.Address)
	if dialErr == nil {
		conn.Close()
		return nil
	}
	logger.Debug("Dial %s failed: %v", p.Address, dialErr)

	lookupCtx, cancelLookup := context.WithTimeout(ctx, timeout)
	defer cancelLookup()
	if _, err := resolver.LookupHost(lookupCtx, p.Host); err != nil {
		logger.Debug("Resolving %s failed: %v", p.Host, err)
		return fmt.Errorf("%w: %w", ErrNotConnected, errors.Join(dialErr, err))
	}
	return nil
}

// FromConfig builds the probe selected by cfg.Strategy
func FromConfig(cfg config.ConnectivityConfig) (Checker, error) {
	switch cfg.Strategy {
	case StrategyHTTP, "":
		return &HTTPProbe{
			URL:      cfg.URL,
			Expected: cfg.Expected,
			Timeout:  cfg.Timeout,
			Client:   &http.Client{Timeout: cfg.Timeout},
		}, nil
	case StrategySocket:
		return &SocketProbe{Address: cfg.Address, Host: cfg.Host, Timeout: cfg.Timeout}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidStrategy, cfg.Strategy)
	}
}

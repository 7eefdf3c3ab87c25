// Package connectivity answers "is the remote round store reachable right now".
package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// NetworkMonitor is polled before every optional remote attempt.
type NetworkMonitor interface {
	IsNetworkAvailable(ctx context.Context) bool
}

// Static reports a fixed availability. Flip it with Set.
type Static struct {
	up atomic.Bool
}

func NewStatic(up bool) *Static {
	s := &Static{}
	s.up.Store(up)
	return s
}

func (s *Static) Set(up bool)                             { s.up.Store(up) }
func (s *Static) IsNetworkAvailable(context.Context) bool { return s.up.Load() }

// Dialer opens a connection. net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Probe checks reachability with a TCP dial to the remote host and caches the
// answer for ttl so bursts of score entry do not dial on every keystroke.
type Probe struct {
	address string
	timeout time.Duration
	ttl     time.Duration
	dialer  Dialer
	now     func() time.Time
	logger  *slog.Logger

	mu        sync.Mutex
	checkedAt time.Time
	available bool
	onChange  func(available bool)
}

// NewProbe builds a probe for the host of baseURL.
func NewProbe(baseURL string, timeout, ttl time.Duration, logger *slog.Logger) (*Probe, error) {
	addr, err := HostPort(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Probe{
		address: addr,
		timeout: timeout,
		ttl:     ttl,
		dialer:  &net.Dialer{},
		now:     time.Now,
		logger:  logger,
	}, nil
}

// OnChange registers a callback fired when availability flips.
func (p *Probe) OnChange(fn func(available bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

func (p *Probe) IsNetworkAvailable(ctx context.Context) bool {
	p.mu.Lock()
	if !p.checkedAt.IsZero() && p.now().Sub(p.checkedAt) < p.ttl {
		up := p.available
		p.mu.Unlock()
		return up
	}
	p.mu.Unlock()

	dctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	conn, err := p.dialer.DialContext(dctx, "tcp", p.address)
	up := err == nil
	if conn != nil {
		_ = conn.Close()
	}

	p.mu.Lock()
	changed := !p.checkedAt.IsZero() && p.available != up
	p.available = up
	p.checkedAt = p.now()
	onChange := p.onChange
	p.mu.Unlock()

	if err != nil {
		p.logger.DebugContext(ctx, "Remote host unreachable", slog.String("address", p.address), slog.String("error", err.Error()))
	}
	if changed && onChange != nil {
		onChange(up)
	}
	return up
}

// Watch re-probes every interval until ctx ends, so OnChange fires without callers polling.
func (p *Probe) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.IsNetworkAvailable(ctx)
		}
	}
}

// HostPort extracts host:port from a URL, defaulting the port from the scheme.
func HostPort(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

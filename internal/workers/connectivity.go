package workers

import (
	"context"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Connectivity is the process-wide online/offline signal.
type Connectivity struct {
	online   atomic.Bool
	mu       sync.Mutex
	watchers []chan struct{}
}

func NewConnectivity(online bool) *Connectivity {
	c := &Connectivity{}
	c.online.Store(online)
	return c
}

func (c *Connectivity) Online() bool { return c.online.Load() }

// Set records the current state and reports whether it changed. Watchers
// are notified on offline→online only.
func (c *Connectivity) Set(online bool) bool {
	if c.online.Swap(online) == online {
		return false
	}
	if online {
		c.mu.Lock()
		for _, ch := range c.watchers {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
		c.mu.Unlock()
	}
	return true
}

// Watch returns a channel that receives after each offline→online transition.
func (c *Connectivity) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	c.watchers = append(c.watchers, ch)
	c.mu.Unlock()
	return ch
}

// Probe runs check every interval and feeds the result into Set until ctx
// is done.
func (c *Connectivity) Probe(ctx context.Context, interval time.Duration, check func(context.Context) error, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		err := check(ctx)
		if c.Set(err == nil) {
			if err != nil {
				log.Warn("sync target unreachable, going offline", zap.Error(err))
			} else {
				log.Info("sync target reachable, back online")
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// DialCheck returns a probe that opens and closes a TCP connection to addr.
func DialCheck(addr string, timeout time.Duration) func(context.Context) error {
	return func(ctx context.Context) error {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

// ProbeAddr derives host:port from an http(s) URL. It returns "" when raw
// has no host.
func ProbeAddr(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	if p := u.Port(); p != "" {
		return net.JoinHostPort(u.Hostname(), p)
	}
	port := "443"
	if u.Scheme == "http" {
		port = "80"
	}
	return net.JoinHostPort(u.Hostname(), port)
}

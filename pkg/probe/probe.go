// Package probe triggers link-layer address resolution for candidate hosts.
// Probes are fire-and-forget: a short UDP dial (and, where a raw socket is
// permitted, an ICMP echo) makes the OS issue an ARP request, and the
// neighbor table afterwards holds whatever resolved. No probe result is
// awaited for correctness; the sweep only waits out a bounded settle window.
package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/projectdiscovery/gologger"
	syncutil "github.com/projectdiscovery/utils/sync"
)

const (
	// DefaultTimeout bounds one probe so a single unreachable host cannot
	// stall the sweep.
	DefaultTimeout = 150 * time.Millisecond
	// DefaultSettleWindow caps total sweep wall clock regardless of the
	// address-space size; outstanding probes past it are abandoned.
	DefaultSettleWindow = 2 * time.Second
	// DefaultParallelism bounds concurrent in-flight probes.
	DefaultParallelism = 64
	// DefaultPort is an arbitrary unlikely-to-answer UDP port; the dial
	// exists only for its ARP side effect.
	DefaultPort = 12345
)

// Options tunes a Dispatcher. Zero values fall back to the defaults above.
type Options struct {
	// Self is excluded from sweeps; probing the local address is pointless.
	Self net.IP
	// Timeout bounds a single probe.
	Timeout time.Duration
	// SettleWindow bounds the whole sweep after dispatch starts.
	SettleWindow time.Duration
	// Parallelism bounds concurrent probes.
	Parallelism int
	// Port is the UDP port dialed to trigger resolution.
	Port int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.SettleWindow <= 0 {
		o.SettleWindow = DefaultSettleWindow
	}
	if o.Parallelism <= 0 {
		o.Parallelism = DefaultParallelism
	}
	if o.Port <= 0 {
		o.Port = DefaultPort
	}
	return o
}

// Dispatcher issues bounded concurrent resolution probes.
type Dispatcher struct {
	opts Options
}

// NewDispatcher returns a Dispatcher with the given options.
func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{opts: opts.withDefaults()}
}

// candidates drops the caller's own address from the target list.
func candidates(ips []net.IP, self net.IP) []net.IP {
	if self == nil {
		return ips
	}
	out := make([]net.IP, 0, len(ips))
	for _, ip := range ips {
		if ip.Equal(self) {
			continue
		}
		out = append(out, ip)
	}
	return out
}

// Sweep fires one probe per candidate address. It returns once every probe
// finished or the settle window elapsed, whichever comes first; it never
// returns a probe failure as an error. The only error is ctx cancellation.
func (d *Dispatcher) Sweep(ctx context.Context, ips []net.IP) error {
	targets := candidates(ips, d.opts.Self)
	if len(targets) == 0 {
		return nil
	}

	awg, err := syncutil.New(syncutil.WithSize(d.opts.Parallelism))
	if err != nil {
		return fmt.Errorf("failed to create adaptive waitgroup: %w", err)
	}

	pinger := newPinger()
	if pinger != nil {
		defer pinger.Close()
	}

	gologger.Verbose().Msgf("probing %d candidates (parallelism %d, per-probe timeout %s)",
		len(targets), d.opts.Parallelism, d.opts.Timeout)

	for seq, ip := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		awg.Add()
		go func(target net.IP, seq int) {
			defer awg.Done()
			d.trigger(target, seq, pinger)
		}(ip, seq)
	}

	// Wait for the pool to drain, but never past the settle deadline: the
	// neighbor table read that follows collects whatever resolved by then.
	done := make(chan struct{})
	go func() {
		awg.Wait()
		close(done)
	}()

	settle := time.NewTimer(d.opts.SettleWindow)
	defer settle.Stop()
	select {
	case <-done:
	case <-settle.C:
		gologger.Verbose().Msgf("settle window %s elapsed, abandoning outstanding probes", d.opts.SettleWindow)
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// One triggers a single resolution attempt for ip, bounded by timeout.
// The returned error is informational; callers treat no-reply as routine.
func (d *Dispatcher) One(ctx context.Context, ip net.IP, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = d.opts.Timeout
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	pinger := newPinger()
	if pinger != nil {
		defer pinger.Close()
		_ = pinger.Echo(ip, 1)
	}

	conn, err := net.DialTimeout("udp", net.JoinHostPort(ip.String(), fmt.Sprintf("%d", d.opts.Port)), timeout)
	if err != nil {
		return err
	}
	// A UDP dial rarely fails, but writing forces the stack to resolve now.
	_, _ = conn.Write([]byte{0})
	return conn.Close()
}

// trigger makes the OS resolve target. The UDP dial path needs no
// privileges; the ICMP echo rides along when a raw socket was available.
func (d *Dispatcher) trigger(target net.IP, seq int, pinger *pinger) {
	if pinger != nil {
		_ = pinger.Echo(target, seq)
	}

	conn, err := net.DialTimeout("udp", net.JoinHostPort(target.String(), fmt.Sprintf("%d", d.opts.Port)), d.opts.Timeout)
	if err != nil {
		// No reply or no path is the expected common case.
		return
	}
	_, _ = conn.Write([]byte{0})
	_ = conn.Close()
}

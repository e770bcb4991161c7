// Package monitor polls one specific host for link-layer presence. Each
// tick evicts the cached neighbor entry, fires a fresh probe, reads the
// entry back and maps its resolution state to an ONLINE/OFFLINE verdict.
package monitor

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/rs/xid"

	"github.com/lanscout/lanscout/pkg/neigh"
)

// DefaultInterval is the poll cadence when none is configured.
const DefaultInterval = 5 * time.Second

// Verdict is the observed presence state of the target.
type Verdict int

const (
	Offline Verdict = iota
	Online
)

func (v Verdict) String() string {
	if v == Online {
		return "ONLINE"
	}
	return "OFFLINE"
}

// Prober triggers one resolution attempt for a target.
type Prober interface {
	One(ctx context.Context, ip net.IP, timeout time.Duration) error
}

// Table is the neighbor table surface the monitor needs: a narrow read plus
// single-entry eviction.
type Table interface {
	Lookup(ip net.IP) (*neigh.Record, error)
	Evict(ip net.IP) error
}

// Options configures a Monitor.
type Options struct {
	// Target is the host whose presence is tracked.
	Target net.IP
	// Interval is the poll cadence; defaults to DefaultInterval.
	Interval time.Duration
	// ProbeTimeout bounds the per-tick probe; defaults to 500ms.
	ProbeTimeout time.Duration
	// OnVerdict, when set, receives the verdict of every completed tick
	// together with the neighbor record that produced it (nil when absent).
	OnVerdict func(v Verdict, rec *neigh.Record)
}

// Monitor is a single-target presence poll loop. Create with New, drive
// with Run; not safe for concurrent Run calls.
type Monitor struct {
	opts    Options
	prober  Prober
	table   Table
	id      string
	verdict Verdict
	started bool
}

// New validates the target and returns a Monitor. The initial verdict is
// OFFLINE: no prior information.
func New(prober Prober, table Table, opts Options) (*Monitor, error) {
	if opts.Target == nil || opts.Target.To4() == nil {
		return nil, fmt.Errorf("monitor target must be an IPv4 address, got %v", opts.Target)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 500 * time.Millisecond
	}
	return &Monitor{
		opts:    opts,
		prober:  prober,
		table:   table,
		id:      xid.New().String(),
		verdict: Offline,
	}, nil
}

// Verdict returns the verdict of the most recent completed tick.
func (m *Monitor) Verdict() Verdict {
	return m.verdict
}

// Run polls until ctx is cancelled. The first tick runs immediately, then
// one per interval. A tick that fails is logged as transient and the loop
// carries on; the next tick is the retry.
func (m *Monitor) Run(ctx context.Context) error {
	gologger.Info().Msgf("monitoring %s every %s (monitor %s)", m.opts.Target, m.opts.Interval, m.id)

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			gologger.Info().Msgf("monitor %s stopped", m.id)
			return ctx.Err()
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick runs one evict/probe/read cycle and reports the resulting verdict.
func (m *Monitor) tick(ctx context.Context) {
	target := m.opts.Target

	if err := m.table.Evict(target); err != nil {
		// The read still works against the existing entry, just staler.
		gologger.Verbose().Msgf("could not evict %s: %s", target, err)
	}

	// Probe failure is not evidence of absence: ICMP may be filtered while
	// resolution still succeeds at the link layer.
	if err := m.prober.One(ctx, target, m.opts.ProbeTimeout); err != nil {
		gologger.Verbose().Msgf("probe to %s: %s", target, err)
	}

	rec, err := m.table.Lookup(target)
	if err != nil {
		gologger.Warning().Msgf("transient neighbor query failure for %s: %s", target, err)
		return
	}

	verdict := Offline
	if rec != nil && rec.State.Live() {
		verdict = Online
	}

	if !m.started || verdict != m.verdict {
		gologger.Info().Msgf("%s is %s", target, verdict)
	} else {
		gologger.Verbose().Msgf("%s still %s", target, verdict)
	}
	m.started = true
	m.verdict = verdict

	if m.opts.OnVerdict != nil {
		m.opts.OnVerdict(verdict, rec)
	}
}

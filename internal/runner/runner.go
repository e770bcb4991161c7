package runner

import (
	"context"
	"encoding/json"
	"net"
	"sort"
	"time"

	"github.com/projectdiscovery/gcache"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/mapcidr"
	errorutil "github.com/projectdiscovery/utils/errors"
	sliceutil "github.com/projectdiscovery/utils/slice"
	"github.com/rs/xid"

	"github.com/lanscout/lanscout/pkg/classify"
	"github.com/lanscout/lanscout/pkg/monitor"
	"github.com/lanscout/lanscout/pkg/neigh"
	"github.com/lanscout/lanscout/pkg/netif"
	"github.com/lanscout/lanscout/pkg/probe"
	"github.com/lanscout/lanscout/pkg/subnet"
)

// Runner contains the internal logic of the program
type Runner struct {
	options *Options
	table   neigh.Table
}

// NewRunner instance
func NewRunner(options *Options) (*Runner, error) {
	if options.Monitor != "" && options.Watch {
		return nil, errorutil.New("-monitor and -watch are mutually exclusive")
	}
	if options.Monitor != "" {
		if ip := net.ParseIP(options.Monitor); ip == nil || ip.To4() == nil {
			return nil, errorutil.New("invalid monitor target: %s", options.Monitor)
		}
	}
	if options.Self != "" {
		if ip := net.ParseIP(options.Self); ip == nil || ip.To4() == nil {
			return nil, errorutil.New("invalid self address: %s", options.Self)
		}
	}
	return &Runner{options: options, table: neigh.Table{}}, nil
}

// Run the instance
func (r *Runner) Run(ctx context.Context) error {
	if r.options.Monitor != "" {
		return r.runMonitor(ctx)
	}
	if r.options.Watch {
		return r.runWatch(ctx)
	}
	_, err := r.runScan(ctx)
	return err
}

// targets resolves the candidate address list and the caller's own address.
// Explicit CIDRs win over interface auto-detection.
func (r *Runner) targets() ([]net.IP, net.IP, error) {
	self := net.ParseIP(r.options.Self)

	if len(r.options.Cidrs) > 0 {
		var ips []net.IP
		for _, cidr := range sliceutil.Dedupe([]string(r.options.Cidrs)) {
			_, ipNet, err := net.ParseCIDR(cidr)
			if err != nil {
				return nil, nil, errorutil.NewWithErr(err).Msgf("invalid target %s", cidr)
			}
			ones, bits := ipNet.Mask.Size()
			if bits != 32 {
				return nil, nil, errorutil.New("target %s is not IPv4", cidr)
			}
			rng, err := subnet.ComputeIP(ipNet.IP, ones)
			if err != nil {
				return nil, nil, errorutil.NewWithErr(err).Msgf("invalid target %s", cidr)
			}
			expanded, err := mapcidr.IPAddresses(cidr)
			if err != nil {
				return nil, nil, errorutil.NewWithErr(err).Msgf("failed to expand %s", cidr)
			}
			for _, s := range expanded {
				if ip := net.ParseIP(s); ip != nil && rng.Contains(ip) {
					ips = append(ips, ip.To4())
				}
			}
		}
		return ips, self, nil
	}

	var iface *netif.Interface
	var err error
	if r.options.Interface != "" {
		iface, err = netif.ByName(r.options.Interface)
	} else {
		iface, err = netif.Active()
	}
	if err != nil {
		return nil, nil, errorutil.NewWithErr(err).Msgf("could not determine scan interface")
	}

	rng, err := subnet.ComputeIP(iface.IP, iface.Prefix)
	if err != nil {
		return nil, nil, err
	}
	if rng.Empty() {
		return nil, nil, errorutil.New("%s has no usable hosts", rng)
	}
	gologger.Info().Msgf("scanning %s via %s", rng, iface)

	if self == nil {
		self = iface.IP
	}
	return rng.Hosts(), self, nil
}

func (r *Runner) dispatcher(self net.IP) *probe.Dispatcher {
	return probe.NewDispatcher(probe.Options{
		Self:         self,
		Timeout:      time.Duration(r.options.ProbeTimeoutMs) * time.Millisecond,
		SettleWindow: time.Duration(r.options.SettleMs) * time.Millisecond,
		Parallelism:  r.options.Parallelism,
	})
}

// runScan performs one sweep-read-classify pass and reports the result.
func (r *Runner) runScan(ctx context.Context) (classify.Result, error) {
	scanID := xid.New().String()

	ips, self, err := r.targets()
	if err != nil {
		return classify.Result{}, err
	}

	if err := r.dispatcher(self).Sweep(ctx, ips); err != nil {
		return classify.Result{}, err
	}

	records, err := r.table.List()
	if err != nil {
		return classify.Result{}, errorutil.NewWithErr(err).Msgf("could not read neighbor table")
	}

	// The neighbor table covers every segment the host touches; scope the
	// result to the addresses this scan actually swept.
	swept := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		swept[ip.String()] = struct{}{}
	}
	var scoped []neigh.Record
	for _, rec := range records {
		if _, ok := swept[rec.IP.String()]; ok {
			scoped = append(scoped, rec)
		}
	}

	result := classify.Partition(scoped)
	r.report(scanID, result)
	return result, nil
}

type resultRow struct {
	Timestamp string `json:"timestamp"`
	ScanID    string `json:"scan_id"`
	IP        string `json:"ip"`
	MAC       string `json:"mac"`
	State     string `json:"state"`
	Class     string `json:"class"`
}

func (r *Runner) report(scanID string, result classify.Result) {
	gologger.Info().Msgf("scan %s: %d hosts discovered (%d vendor-assigned, %d locally-administered)",
		scanID, result.Total(), len(result.VendorAssigned), len(result.LocallyAdministered))

	emit := func(records []neigh.Record, class string, colored string) {
		for _, rec := range records {
			if r.options.JSON {
				row := resultRow{
					Timestamp: time.Now().Format(time.RFC3339),
					ScanID:    scanID,
					IP:        rec.IP.String(),
					MAC:       rec.MAC.String(),
					State:     rec.State.String(),
					Class:     class,
				}
				if data, err := json.Marshal(row); err == nil {
					gologger.Silent().Msgf("%s", data)
				}
				continue
			}
			gologger.Silent().Msgf("%-15s  %s  %-9s  %s", rec.IP, rec.MAC, rec.State, colored)
		}
	}

	emit(result.VendorAssigned, "vendor-assigned", au.Green("vendor-assigned").String())
	emit(result.LocallyAdministered, "locally-administered", au.Yellow("locally-administered").String())
}

// runWatch repeats the scan on a cadence and reports joined/left hosts
// across consecutive passes. A failed pass is transient: logged, skipped,
// retried on the next tick.
func (r *Runner) runWatch(ctx context.Context) error {
	cadence := time.Duration(r.options.RescanSeconds) * time.Second
	lastSeen := gcache.New[string, string](4096).
		LRU().
		Build()

	gologger.Info().Msgf("watching the segment, rescanning every %s", cadence)

	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	for {
		result, err := r.runScan(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			gologger.Warning().Msgf("scan pass failed, will retry: %s", err)
		default:
			r.diff(result, lastSeen)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// diff compares the current pass against the previously seen hosts.
func (r *Runner) diff(result classify.Result, lastSeen gcache.Cache[string, string]) {
	current := make(map[string]string, result.Total())
	for _, rec := range append(result.VendorAssigned, result.LocallyAdministered...) {
		current[rec.IP.String()] = rec.MAC.String()
	}

	joined := make([]string, 0)
	for ip := range current {
		if !lastSeen.Has(ip) {
			joined = append(joined, ip)
		}
	}
	sort.Strings(joined)
	for _, ip := range joined {
		gologger.Info().Msgf("host joined: %s (%s)", au.Green(ip), current[ip])
	}

	left := make([]string, 0)
	for _, ip := range lastSeen.Keys(true) {
		if _, ok := current[ip]; !ok {
			left = append(left, ip)
		}
	}
	sort.Strings(left)
	for _, ip := range left {
		gologger.Info().Msgf("host left: %s", au.Red(ip))
		lastSeen.Remove(ip)
	}

	for ip, mac := range current {
		_ = lastSeen.Set(ip, mac)
	}
}

// runMonitor polls one target and prints a timestamped verdict per tick.
func (r *Runner) runMonitor(ctx context.Context) error {
	target := net.ParseIP(r.options.Monitor).To4()

	mon, err := monitor.New(r.dispatcher(nil), r.table, monitor.Options{
		Target:   target,
		Interval: time.Duration(r.options.IntervalSeconds) * time.Second,
		OnVerdict: func(v monitor.Verdict, rec *neigh.Record) {
			ts := time.Now().Format(time.RFC3339)
			if r.options.JSON {
				row := map[string]string{
					"timestamp": ts,
					"target":    target.String(),
					"verdict":   v.String(),
				}
				if rec != nil {
					row["state"] = rec.State.String()
				}
				if data, err := json.Marshal(row); err == nil {
					gologger.Silent().Msgf("%s", data)
				}
				return
			}
			colored := au.Red(v.String())
			if v == monitor.Online {
				colored = au.Green(v.String())
			}
			gologger.Silent().Msgf("%s %s %s", ts, target, colored)
		},
	})
	if err != nil {
		return err
	}
	return mon.Run(ctx)
}

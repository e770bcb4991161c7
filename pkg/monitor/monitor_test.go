package monitor

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/lanscout/lanscout/pkg/neigh"
)

type fakeProber struct {
	mu     sync.Mutex
	probes int
}

func (f *fakeProber) One(ctx context.Context, ip net.IP, timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return nil
}

type fakeTable struct {
	mu     sync.Mutex
	rec    *neigh.Record
	err    error
	evicts int
}

func (f *fakeTable) Lookup(ip net.IP) (*neigh.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rec, f.err
}

func (f *fakeTable) Evict(ip net.IP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evicts++
	return nil
}

func (f *fakeTable) set(rec *neigh.Record, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rec = rec
	f.err = err
}

func TestNewValidatesTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  net.IP
		wantErr bool
	}{
		{"valid ipv4", net.ParseIP("192.168.1.50"), false},
		{"nil target", nil, true},
		{"ipv6 target", net.ParseIP("fe80::1"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&fakeProber{}, &fakeTable{}, Options{Target: tt.target})
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerdictMapping(t *testing.T) {
	target := net.ParseIP("192.168.1.50").To4()
	mac, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")

	tests := []struct {
		name string
		rec  *neigh.Record
		want Verdict
	}{
		{"absent entry", nil, Offline},
		{"incomplete", &neigh.Record{IP: target, State: neigh.StateIncomplete}, Offline},
		{"failed", &neigh.Record{IP: target, State: neigh.StateFailed}, Offline},
		{"reachable", &neigh.Record{IP: target, MAC: mac, State: neigh.StateReachable}, Online},
		{"stale", &neigh.Record{IP: target, MAC: mac, State: neigh.StateStale}, Online},
		{"delay", &neigh.Record{IP: target, MAC: mac, State: neigh.StateDelay}, Online},
		{"probe", &neigh.Record{IP: target, MAC: mac, State: neigh.StateProbe}, Online},
		{"permanent", &neigh.Record{IP: target, MAC: mac, State: neigh.StatePermanent}, Online},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &fakeTable{rec: tt.rec}
			m, err := New(&fakeProber{}, table, Options{Target: target})
			if err != nil {
				t.Fatal(err)
			}
			m.tick(context.Background())
			if m.Verdict() != tt.want {
				t.Errorf("verdict = %s, want %s", m.Verdict(), tt.want)
			}
		})
	}
}

// A target with no neighbor entry reports OFFLINE; as soon as a reachable
// record appears, the very next tick reports ONLINE.
func TestOfflineToOnlineTransition(t *testing.T) {
	target := net.ParseIP("192.168.1.50").To4()
	mac, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")

	table := &fakeTable{}
	prober := &fakeProber{}

	verdicts := make(chan Verdict, 16)
	m, err := New(prober, table, Options{
		Target:   target,
		Interval: 20 * time.Millisecond,
		OnVerdict: func(v Verdict, rec *neigh.Record) {
			verdicts <- v
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = m.Run(ctx)
	}()

	waitVerdict := func(want Verdict) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case v := <-verdicts:
				if v == want {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %s", want)
			}
		}
	}

	waitVerdict(Offline)

	table.set(&neigh.Record{IP: target, MAC: mac, State: neigh.StateReachable}, nil)
	waitVerdict(Online)

	table.set(nil, nil)
	waitVerdict(Offline)
}

// A failing neighbor query must not kill the loop or flip the verdict.
func TestTransientQueryFailure(t *testing.T) {
	target := net.ParseIP("192.168.1.50").To4()
	mac, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")

	table := &fakeTable{rec: &neigh.Record{IP: target, MAC: mac, State: neigh.StateReachable}}
	m, err := New(&fakeProber{}, table, Options{Target: target})
	if err != nil {
		t.Fatal(err)
	}

	m.tick(context.Background())
	if m.Verdict() != Online {
		t.Fatalf("setup tick: verdict = %s, want ONLINE", m.Verdict())
	}

	reported := 0
	m.opts.OnVerdict = func(v Verdict, rec *neigh.Record) { reported++ }

	table.set(nil, errors.New("operation not permitted"))
	m.tick(context.Background())
	if m.Verdict() != Online {
		t.Errorf("failed tick changed the verdict to %s", m.Verdict())
	}
	if reported != 0 {
		t.Errorf("failed tick reported a verdict")
	}

	table.set(nil, nil)
	m.tick(context.Background())
	if m.Verdict() != Offline {
		t.Errorf("loop did not recover after transient failure: %s", m.Verdict())
	}
}

func TestEvictionPrecedesEveryLookup(t *testing.T) {
	target := net.ParseIP("192.168.1.50").To4()
	table := &fakeTable{}
	m, err := New(&fakeProber{}, table, Options{Target: target})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		m.tick(context.Background())
	}
	if table.evicts != 3 {
		t.Errorf("evicts = %d, want one per tick", table.evicts)
	}
}

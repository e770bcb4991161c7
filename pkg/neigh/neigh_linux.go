//go:build linux

package neigh

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// stateFromNUD maps a kernel NUD state bitmask to a State. NOARP entries
// never age out, so they are treated like permanent ones.
func stateFromNUD(nud int) State {
	switch {
	case nud&netlink.NUD_PERMANENT != 0 || nud&netlink.NUD_NOARP != 0:
		return StatePermanent
	case nud&netlink.NUD_REACHABLE != 0:
		return StateReachable
	case nud&netlink.NUD_STALE != 0:
		return StateStale
	case nud&netlink.NUD_DELAY != 0:
		return StateDelay
	case nud&netlink.NUD_PROBE != 0:
		return StateProbe
	case nud&netlink.NUD_INCOMPLETE != 0:
		return StateIncomplete
	case nud&netlink.NUD_FAILED != 0:
		return StateFailed
	}
	return StateUnknown
}

func netlinkRecords() ([]Record, error) {
	neighs, err := netlink.NeighList(0, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("netlink neighbor dump failed: %w", err)
	}
	var records []Record
	for _, n := range neighs {
		ip := n.IP.To4()
		if ip == nil {
			continue
		}
		rec := Record{IP: ip, State: stateFromNUD(n.State)}
		if len(n.HardwareAddr) == 6 && !zeroMAC(n.HardwareAddr) {
			rec.MAC = n.HardwareAddr
		}
		records = append(records, rec)
	}
	return records, nil
}

// execRecords is the fallback when the netlink socket is unavailable
// (restricted containers): structured JSON first, then plain text, then the
// procfs table.
func execRecords() ([]Record, error) {
	if out, err := exec.Command("ip", "-json", "neigh", "show").Output(); err == nil {
		if records := ParseIPNeighJSON(out); records != nil {
			return records, nil
		}
	}
	if out, err := exec.Command("ip", "neigh", "show").Output(); err == nil {
		return ParseIPNeighOutput(bytes.NewReader(out)), nil
	}
	f, err := os.Open("/proc/net/arp")
	if err != nil {
		return nil, fmt.Errorf("no neighbor table source available: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ParseProcNetARP(f), nil
}

func listAll() ([]Record, error) {
	records, err := netlinkRecords()
	if err != nil {
		return execRecords()
	}
	return records, nil
}

// List returns all resolved IPv4 neighbor entries with noise filtered out.
func List() ([]Record, error) {
	records, err := listAll()
	if err != nil {
		return nil, err
	}
	return filterNoise(records), nil
}

// Lookup returns the neighbor entry for ip, unfiltered so callers can see
// incomplete and failed states. Returns nil when the table has no entry.
func Lookup(ip net.IP) (*Record, error) {
	records, err := listAll()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].IP.Equal(ip) {
			return &records[i], nil
		}
	}
	return nil, nil
}

// Evict removes the neighbor entry for ip so the next probe triggers a
// fresh resolution. A missing entry is not an error.
func Evict(ip net.IP) error {
	neighs, err := netlink.NeighList(0, netlink.FAMILY_V4)
	if err != nil {
		// No netlink socket; `ip neigh flush` does not need a device argument.
		return exec.Command("ip", "neigh", "flush", "to", ip.String()).Run()
	}
	for i := range neighs {
		if !neighs[i].IP.Equal(ip) {
			continue
		}
		if err := netlink.NeighDel(&neighs[i]); err != nil && !errors.Is(err, unix.ENOENT) {
			return fmt.Errorf("could not evict %s: %w", ip, err)
		}
		return nil
	}
	return nil
}

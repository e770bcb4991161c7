//go:build !linux && !windows

package neigh

import (
	"bytes"
	"fmt"
	"net"
	"os/exec"
)

func listAll() ([]Record, error) {
	out, err := exec.Command("arp", "-an").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute arp -an: %w", err)
	}
	return ParseARPOutput(bytes.NewReader(out)), nil
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
// incomplete entries. Returns nil when the table has no entry.
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

// Evict removes the neighbor entry for ip. arp -d needs privileges on most
// systems; a failed delete only means the next read may serve a stale entry,
// so the error is surfaced for the caller to log and carry on.
func Evict(ip net.IP) error {
	if err := exec.Command("arp", "-d", ip.String()).Run(); err != nil {
		return fmt.Errorf("could not evict %s: %w", ip, err)
	}
	return nil
}

//go:build windows

package neigh

import (
	"bytes"
	"fmt"
	"net"
	"os/exec"
)

func listAll() ([]Record, error) {
	out, err := exec.Command("arp", "-a").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute arp -a: %w", err)
	}
	return ParseWindowsARPOutput(bytes.NewReader(out)), nil
}

// List returns all resolved IPv4 neighbor entries with noise filtered out.
func List() ([]Record, error) {
	records, err := listAll()
	if err != nil {
		return nil, err
	}
	return filterNoise(records), nil
}

// Lookup returns the neighbor entry for ip. Returns nil when the table has
// no entry.
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
// fresh resolution.
func Evict(ip net.IP) error {
	if err := exec.Command("arp", "-d", ip.String()).Run(); err != nil {
		return fmt.Errorf("could not evict %s: %w", ip, err)
	}
	return nil
}

// Package neigh reads the operating system's address resolution cache and
// exposes it as structured (IP, MAC, state) records. On Linux the kernel
// neighbor table is read over netlink; elsewhere the output of the platform
// arp tooling is parsed. A single-entry eviction operation forces the next
// lookup to reflect a fresh resolution attempt.
package neigh

import (
	"fmt"
	"net"
)

// State is the resolution state of a neighbor entry, mirroring the kernel
// NUD states. Text sources that carry no state map to StateReachable when a
// hardware address is present and StateIncomplete otherwise.
type State int

const (
	StateUnknown State = iota
	StateIncomplete
	StateReachable
	StateStale
	StateDelay
	StateProbe
	StatePermanent
	StateFailed
)

var stateNames = map[State]string{
	StateUnknown:    "UNKNOWN",
	StateIncomplete: "INCOMPLETE",
	StateReachable:  "REACHABLE",
	StateStale:      "STALE",
	StateDelay:      "DELAY",
	StateProbe:      "PROBE",
	StatePermanent:  "PERMANENT",
	StateFailed:     "FAILED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Live reports whether the state carries a resolved, still-usable hardware
// address. This is the same set the kernel considers valid (NUD_VALID minus
// NOARP), and the set that counts as "online" for presence monitoring.
func (s State) Live() bool {
	switch s {
	case StateReachable, StateStale, StateDelay, StateProbe, StatePermanent:
		return true
	}
	return false
}

// ParseState maps a state word from tool output to a State. Unrecognized
// words map to StateUnknown rather than failing the line.
func ParseState(word string) State {
	for s, name := range stateNames {
		if name == word {
			return s
		}
	}
	return StateUnknown
}

// Record is one neighbor table entry. MAC is nil for entries that never
// resolved (incomplete/failed); State still carries the kernel's view.
type Record struct {
	IP    net.IP
	MAC   net.HardwareAddr
	State State
}

func (r Record) String() string {
	mac := "(incomplete)"
	if r.MAC != nil {
		mac = r.MAC.String()
	}
	return fmt.Sprintf("%s %s %s", r.IP, mac, r.State)
}

// Table adapts the package-level functions to the injection points used by
// consumers that take a neighbor table as an interface.
type Table struct{}

func (Table) List() ([]Record, error)           { return List() }
func (Table) Lookup(ip net.IP) (*Record, error) { return Lookup(ip) }
func (Table) Evict(ip net.IP) error             { return Evict(ip) }

// Package subnet provides IPv4 subnet arithmetic on 32-bit unsigned values:
// network/broadcast derivation and usable host range enumeration from an
// address and prefix length. All functions are pure and side-effect free.
package subnet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

// ErrInvalidInput is returned when the address is not IPv4 or the prefix
// length is outside 0..32.
var ErrInvalidInput = errors.New("invalid address or prefix length")

// Range describes an IPv4 subnet as 32-bit unsigned boundary values.
// First and Last bound the usable host range; both are zero when the
// range is empty (prefix length >= 31 leaves no usable hosts).
type Range struct {
	Network   uint32
	Broadcast uint32
	First     uint32
	Last      uint32
	Prefix    int
}

// Mask returns the netmask for a prefix length as a uint32.
// A shift count equal to the full width is well defined in Go and yields 0,
// so prefix 0 produces an all-zero mask without special casing.
func Mask(prefix int) uint32 {
	return ^uint32(0) << (32 - uint(prefix))
}

// Compute derives the Range for a dotted-quad address and prefix length.
func Compute(addr string, prefix int) (Range, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidInput, addr)
	}
	return ComputeIP(ip, prefix)
}

// ComputeIP derives the Range for a net.IP and prefix length.
func ComputeIP(ip net.IP, prefix int) (Range, error) {
	if prefix < 0 || prefix > 32 {
		return Range{}, fmt.Errorf("%w: prefix length %d", ErrInvalidInput, prefix)
	}
	v, err := FromIP(ip)
	if err != nil {
		return Range{}, err
	}

	mask := Mask(prefix)
	network := v & mask
	broadcast := network | ^mask

	r := Range{
		Network:   network,
		Broadcast: broadcast,
		Prefix:    prefix,
	}
	// /31 and /32 have no room for hosts between network and broadcast.
	if prefix <= 30 {
		r.First = network + 1
		r.Last = broadcast - 1
	}
	return r, nil
}

// FromIP converts an IPv4 address to its 32-bit unsigned representation.
func FromIP(ip net.IP) (uint32, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0, fmt.Errorf("%w: %s is not IPv4", ErrInvalidInput, ip)
	}
	return binary.BigEndian.Uint32(ip4), nil
}

// ToIP converts a 32-bit unsigned value back to a net.IP.
func ToIP(v uint32) net.IP {
	ip := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(ip, v)
	return ip
}

// Empty reports whether the range has no usable hosts.
func (r Range) Empty() bool {
	return r.First == 0 && r.Last == 0
}

// Count returns the number of usable host addresses.
func (r Range) Count() uint32 {
	if r.Empty() {
		return 0
	}
	return r.Last - r.First + 1
}

// Total returns the total number of addresses covered by the prefix,
// including network and broadcast.
func (r Range) Total() uint64 {
	return uint64(1) << (32 - uint(r.Prefix))
}

// Contains reports whether ip falls inside the usable host range.
func (r Range) Contains(ip net.IP) bool {
	v, err := FromIP(ip)
	if err != nil || r.Empty() {
		return false
	}
	return v >= r.First && v <= r.Last
}

// Hosts materializes the usable host addresses in ascending order.
func (r Range) Hosts() []net.IP {
	if r.Empty() {
		return nil
	}
	hosts := make([]net.IP, 0, r.Count())
	for v := r.First; ; v++ {
		hosts = append(hosts, ToIP(v))
		if v == r.Last {
			break
		}
	}
	return hosts
}

func (r Range) String() string {
	if r.Empty() {
		return fmt.Sprintf("%s/%d (no usable hosts)", ToIP(r.Network), r.Prefix)
	}
	return fmt.Sprintf("%s-%s (%s/%d)", ToIP(r.First), ToIP(r.Last), ToIP(r.Network), r.Prefix)
}

// Package netif discovers the local interface whose subnet a scan should
// cover: the active, non-loopback interface holding a private IPv4 address.
package netif

import (
	"fmt"
	"net"

	psnet "github.com/shirou/gopsutil/v3/net"
)

// Interface is the scan-relevant view of a local network interface.
type Interface struct {
	Name   string
	IP     net.IP
	Prefix int
	MAC    net.HardwareAddr
}

func (i *Interface) String() string {
	return fmt.Sprintf("%s (%s/%d)", i.Name, i.IP, i.Prefix)
}

// Active returns the first up, non-loopback interface carrying a private
// IPv4 address - on a typical LAN host, the one holding the default route.
func Active() (*Interface, error) {
	return find("")
}

// ByName returns the named interface, provided it carries an IPv4 address.
func ByName(name string) (*Interface, error) {
	return find(name)
}

func find(name string) (*Interface, error) {
	interfaces, err := psnet.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate interfaces: %w", err)
	}

	for _, iface := range interfaces {
		if name != "" && iface.Name != name {
			continue
		}
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}

		for _, addr := range iface.Addrs {
			ip, ipNet, err := net.ParseCIDR(addr.Addr)
			if err != nil {
				continue
			}
			ip4 := ip.To4()
			if ip4 == nil {
				continue
			}
			// Without an explicit interface name, only private ranges are
			// sensible sweep candidates.
			if name == "" && !ip4.IsPrivate() {
				continue
			}
			prefix, _ := ipNet.Mask.Size()
			result := &Interface{
				Name:   iface.Name,
				IP:     ip4,
				Prefix: prefix,
			}
			if mac, err := net.ParseMAC(iface.HardwareAddr); err == nil {
				result.MAC = mac
			}
			return result, nil
		}
	}

	if name != "" {
		return nil, fmt.Errorf("interface %q not found or has no IPv4 address", name)
	}
	return nil, fmt.Errorf("no active interface with a private IPv4 address")
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

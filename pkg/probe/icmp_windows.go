//go:build windows

package probe

import "net"

// pinger is unavailable on Windows without elevated privileges; the UDP
// dial path is the sole trigger there.
type pinger struct{}

func newPinger() *pinger { return nil }

func (p *pinger) Echo(ip net.IP, seq int) error { return nil }

func (p *pinger) Close() {}

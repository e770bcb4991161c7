//go:build !windows

package probe

import (
	"net"
	"os"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// pinger wraps a shared raw ICMP socket. Replies are never read: the echo
// request exists for its resolution side effect, and reachability is judged
// from the neighbor table, not from ICMP (which many hosts filter).
type pinger struct {
	conn *icmp.PacketConn
}

// newPinger returns nil when a raw socket is not permitted; the UDP dial
// path covers that case.
func newPinger() *pinger {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil
	}
	return &pinger{conn: conn}
}

func (p *pinger) Echo(ip net.IP, seq int) error {
	msg := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  seq,
			Data: []byte("HELLO-R-U-THERE"),
		},
	}
	msgBytes, err := msg.Marshal(nil)
	if err != nil {
		return err
	}
	_, err = p.conn.WriteTo(msgBytes, &net.IPAddr{IP: ip})
	return err
}

func (p *pinger) Close() {
	_ = p.conn.Close()
}

package neigh

import (
	"bufio"
	"io"
	"net"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// macOS/BSD: ? (192.168.1.1) at 0:11:22:33:44:55 on en0 ifscope [ethernet]
	bsdARPRegex = regexp.MustCompile(`\((\d+\.\d+\.\d+\.\d+)\) at ([0-9a-fA-F:-]+|\(incomplete\))`)
)

// NormalizeMAC parses hardware address text in colon or hyphen delimited
// form, tolerating the single-digit octets BSD arp prints, and returns the
// canonical lowercase colon form. Returns false for anything that is not a
// 6-octet address.
func NormalizeMAC(s string) (net.HardwareAddr, bool) {
	s = strings.TrimSpace(s)
	sep := ":"
	if strings.Count(s, "-") == 5 {
		sep = "-"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 6 {
		return nil, false
	}
	for i, p := range parts {
		if len(p) == 1 {
			parts[i] = "0" + p
		}
	}
	mac, err := net.ParseMAC(strings.ToLower(strings.Join(parts, ":")))
	if err != nil {
		return nil, false
	}
	return mac, true
}

// zeroMAC reports an all-zero hardware address, the placeholder some tables
// print for unresolved entries.
func zeroMAC(mac net.HardwareAddr) bool {
	for _, b := range mac {
		if b != 0 {
			return false
		}
	}
	return len(mac) > 0
}

// parseIPv4 returns a 4-byte IP or nil.
func parseIPv4(s string) net.IP {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return nil
	}
	return ip.To4()
}

// ParseIPNeighLine parses one line of `ip neigh show` output, e.g.
//
//	192.168.1.7 dev wlan0 lladdr aa:bb:cc:dd:ee:ff REACHABLE
//	192.168.1.9 dev wlan0 FAILED
//
// Lines that do not carry a leading IPv4 address are rejected.
func ParseIPNeighLine(line string) (Record, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Record{}, false
	}
	ip := parseIPv4(fields[0])
	if ip == nil {
		return Record{}, false
	}

	rec := Record{IP: ip, State: StateIncomplete}
	for i := 1; i < len(fields); i++ {
		if fields[i] == "lladdr" && i+1 < len(fields) {
			if mac, ok := NormalizeMAC(fields[i+1]); ok && !zeroMAC(mac) {
				rec.MAC = mac
			}
			i++
			continue
		}
		if s := ParseState(fields[i]); s != StateUnknown {
			rec.State = s
		}
	}
	if rec.MAC != nil && rec.State == StateIncomplete {
		rec.State = StateReachable
	}
	return rec, true
}

// ParseIPNeighOutput parses multi-line `ip neigh show` output, silently
// skipping lines that do not match the expected shape.
func ParseIPNeighOutput(r io.Reader) []Record {
	var records []Record
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if rec, ok := ParseIPNeighLine(scanner.Text()); ok {
			records = append(records, rec)
		}
	}
	return records
}

// ParseIPNeighJSON parses `ip -json neigh show` output. Entries without a
// valid IPv4 destination are skipped; entries without an lladdr keep their
// state with a nil MAC.
func ParseIPNeighJSON(data []byte) []Record {
	var records []Record
	gjson.ParseBytes(data).ForEach(func(_, entry gjson.Result) bool {
		ip := parseIPv4(entry.Get("dst").String())
		if ip == nil {
			return true
		}
		rec := Record{IP: ip, State: StateIncomplete}
		if mac, ok := NormalizeMAC(entry.Get("lladdr").String()); ok && !zeroMAC(mac) {
			rec.MAC = mac
		}
		entry.Get("state").ForEach(func(_, word gjson.Result) bool {
			if s := ParseState(word.String()); s != StateUnknown {
				rec.State = s
			}
			return true
		})
		if rec.MAC != nil && rec.State == StateIncomplete {
			rec.State = StateReachable
		}
		records = append(records, rec)
		return true
	})
	return records
}

// ParseProcNetARP parses /proc/net/arp content. The flags column is the
// only state information available there: 0x0 means unresolved, anything
// else a completed entry.
func ParseProcNetARP(r io.Reader) []Record {
	var records []Record
	scanner := bufio.NewScanner(r)

	// skip header
	if !scanner.Scan() {
		return records
	}

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 {
			continue
		}
		// IP address, HW type, Flags, HW address, Mask, Device
		ip := parseIPv4(fields[0])
		if ip == nil {
			continue
		}
		rec := Record{IP: ip, State: StateIncomplete}
		if fields[2] != "0x0" {
			if mac, ok := NormalizeMAC(fields[3]); ok && !zeroMAC(mac) {
				rec.MAC = mac
				rec.State = StateReachable
			}
		}
		records = append(records, rec)
	}
	return records
}

// ParseARPOutput parses BSD-style `arp -an` output. The tool reports no
// resolution state beyond complete/incomplete/permanent.
func ParseARPOutput(r io.Reader) []Record {
	var records []Record
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		matches := bsdARPRegex.FindStringSubmatch(line)
		if len(matches) != 3 {
			continue
		}
		ip := parseIPv4(matches[1])
		if ip == nil {
			continue
		}
		rec := Record{IP: ip, State: StateIncomplete}
		if mac, ok := NormalizeMAC(matches[2]); ok && !zeroMAC(mac) {
			rec.MAC = mac
			rec.State = StateReachable
			if strings.Contains(line, "permanent") {
				rec.State = StatePermanent
			}
		}
		records = append(records, rec)
	}
	return records
}

// ParseWindowsARPOutput parses Windows `arp -a` output, which is split into
// per-interface sections with a column header.
func ParseWindowsARPOutput(r io.Reader) []Record {
	var records []Record
	scanner := bufio.NewScanner(r)

	inTable := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "Interface:") {
			inTable = false
			continue
		}
		if strings.Contains(line, "Internet Address") && strings.Contains(line, "Physical Address") {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		ip := parseIPv4(fields[0])
		if ip == nil {
			continue
		}
		mac, ok := NormalizeMAC(fields[1])
		if !ok || zeroMAC(mac) {
			continue
		}
		rec := Record{IP: ip, MAC: mac, State: StateReachable}
		if fields[2] == "static" {
			rec.State = StatePermanent
		}
		records = append(records, rec)
	}
	return records
}

// filterNoise drops entries that can never be genuine host identities:
// unresolved entries, the broadcast address, multicast hardware addresses
// and multicast/limited-broadcast IPs.
func filterNoise(records []Record) []Record {
	var out []Record
	for _, rec := range records {
		if rec.MAC == nil {
			continue
		}
		// broadcast or multicast MAC (I/G bit)
		if rec.MAC[0]&0x01 != 0 {
			continue
		}
		if rec.IP[0] >= 224 {
			continue
		}
		out = append(out, rec)
	}
	return out
}

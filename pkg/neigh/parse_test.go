package neigh

import (
	"strings"
	"testing"
)

func TestParseIPNeighLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantOK    bool
		wantIP    string
		wantMAC   string
		wantState State
	}{
		{
			name:      "resolved entry",
			line:      "192.168.1.7 dev wlan0 lladdr aa:bb:cc:dd:ee:ff REACHABLE",
			wantOK:    true,
			wantIP:    "192.168.1.7",
			wantMAC:   "aa:bb:cc:dd:ee:ff",
			wantState: StateReachable,
		},
		{
			name:      "stale entry",
			line:      "192.168.1.20 dev eth0 lladdr 02:11:22:33:44:55 STALE",
			wantOK:    true,
			wantIP:    "192.168.1.20",
			wantMAC:   "02:11:22:33:44:55",
			wantState: StateStale,
		},
		{
			name:      "failed entry without lladdr",
			line:      "192.168.1.9 dev wlan0 FAILED",
			wantOK:    true,
			wantIP:    "192.168.1.9",
			wantState: StateFailed,
		},
		{
			name:      "incomplete entry",
			line:      "192.168.1.10 dev wlan0 INCOMPLETE",
			wantOK:    true,
			wantIP:    "192.168.1.10",
			wantState: StateIncomplete,
		},
		{
			name:      "uppercase MAC is normalized",
			line:      "10.0.0.5 dev eth0 lladdr AA:BB:CC:00:11:22 DELAY",
			wantOK:    true,
			wantIP:    "10.0.0.5",
			wantMAC:   "aa:bb:cc:00:11:22",
			wantState: StateDelay,
		},
		{
			name:   "ipv6 entry rejected",
			line:   "fe80::1 dev wlan0 lladdr aa:bb:cc:dd:ee:ff router REACHABLE",
			wantOK: false,
		},
		{
			name:   "garbage line rejected",
			line:   "not an address at all",
			wantOK: false,
		},
		{
			name:   "empty line rejected",
			line:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := ParseIPNeighLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ParseIPNeighLine(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if rec.IP.String() != tt.wantIP {
				t.Errorf("ip = %s, want %s", rec.IP, tt.wantIP)
			}
			if tt.wantMAC == "" {
				if rec.MAC != nil {
					t.Errorf("expected nil MAC, got %s", rec.MAC)
				}
			} else if rec.MAC.String() != tt.wantMAC {
				t.Errorf("mac = %s, want %s", rec.MAC, tt.wantMAC)
			}
			if rec.State != tt.wantState {
				t.Errorf("state = %s, want %s", rec.State, tt.wantState)
			}
		})
	}
}

// A malformed line must not poison parsing of the well-formed lines around it.
func TestParseIPNeighOutputSkipsMalformed(t *testing.T) {
	output := strings.Join([]string{
		"192.168.1.1 dev wlan0 lladdr 00:11:22:33:44:55 REACHABLE",
		"this line is broken",
		"192.168.1.2 dev wlan0 lladdr",
		"192.168.1.3 dev wlan0 lladdr 66:77:88:99:aa:bb STALE",
	}, "\n")

	records := ParseIPNeighOutput(strings.NewReader(output))
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d: %v", len(records), records)
	}
	if records[0].MAC.String() != "00:11:22:33:44:55" {
		t.Errorf("first record mac = %s", records[0].MAC)
	}
	// truncated lladdr keeps the entry, just without an address
	if records[1].MAC != nil {
		t.Errorf("truncated lladdr should yield nil MAC, got %s", records[1].MAC)
	}
	if records[2].State != StateStale {
		t.Errorf("last record state = %s, want STALE", records[2].State)
	}
}

func TestParseIPNeighJSON(t *testing.T) {
	data := []byte(`[
		{"dst":"192.168.1.1","dev":"wlan0","lladdr":"aa:bb:cc:dd:ee:ff","state":["REACHABLE"]},
		{"dst":"192.168.1.9","dev":"wlan0","state":["FAILED"]},
		{"dst":"fe80::1","dev":"wlan0","lladdr":"aa:bb:cc:dd:ee:01","state":["STALE"]},
		{"dev":"wlan0","state":["STALE"]}
	]`)

	records := ParseIPNeighJSON(data)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(records), records)
	}
	if records[0].IP.String() != "192.168.1.1" || records[0].State != StateReachable {
		t.Errorf("unexpected first record: %v", records[0])
	}
	if records[1].MAC != nil || records[1].State != StateFailed {
		t.Errorf("unexpected second record: %v", records[1])
	}
}

func TestParseIPNeighJSONMalformed(t *testing.T) {
	if records := ParseIPNeighJSON([]byte("not json at all")); records != nil {
		t.Errorf("expected no records from malformed JSON, got %v", records)
	}
}

func TestParseProcNetARP(t *testing.T) {
	content := `IP address       HW type     Flags       HW address            Mask     Device
192.168.1.1      0x1         0x2         a4:91:b1:11:22:33     *        wlan0
192.168.1.50     0x1         0x0         00:00:00:00:00:00     *        wlan0
broken line
192.168.1.60     0x1         0x2         02:aa:bb:cc:dd:ee     *        wlan0
`
	records := ParseProcNetARP(strings.NewReader(content))
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d: %v", len(records), records)
	}
	if records[0].MAC.String() != "a4:91:b1:11:22:33" || records[0].State != StateReachable {
		t.Errorf("unexpected first record: %v", records[0])
	}
	if records[1].MAC != nil || records[1].State != StateIncomplete {
		t.Errorf("flags 0x0 entry should be incomplete: %v", records[1])
	}
}

func TestParseARPOutput(t *testing.T) {
	content := `? (192.168.1.1) at 0:50:56:c0:0:8 on en0 ifscope [ethernet]
? (192.168.1.77) at (incomplete) on en0 ifscope [ethernet]
? (192.168.1.255) at ff:ff:ff:ff:ff:ff on en0 ifscope [ethernet]
? (192.168.1.2) at aa:bb:cc:dd:ee:ff on en0 permanent [ethernet]
junk that matches nothing
`
	records := ParseARPOutput(strings.NewReader(content))
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d: %v", len(records), records)
	}
	// single-digit octets padded to canonical form
	if records[0].MAC.String() != "00:50:56:c0:00:08" {
		t.Errorf("mac = %s, want 00:50:56:c0:00:08", records[0].MAC)
	}
	if records[1].MAC != nil || records[1].State != StateIncomplete {
		t.Errorf("incomplete entry mishandled: %v", records[1])
	}
	if records[3].State != StatePermanent {
		t.Errorf("permanent entry state = %s", records[3].State)
	}
}

func TestParseWindowsARPOutput(t *testing.T) {
	content := `
Interface: 192.168.1.100 --- 0xa
  Internet Address      Physical Address      Type
  192.168.1.1           a4-91-b1-11-22-33     dynamic
  192.168.1.255         ff-ff-ff-ff-ff-ff     static
  224.0.0.22            01-00-5e-00-00-16     static
  192.168.1.2           aa-bb-cc-dd-ee-ff     static
`
	records := ParseWindowsARPOutput(strings.NewReader(content))
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d: %v", len(records), records)
	}
	if records[0].MAC.String() != "a4:91:b1:11:22:33" || records[0].State != StateReachable {
		t.Errorf("unexpected first record: %v", records[0])
	}
	if records[3].State != StatePermanent {
		t.Errorf("static entry state = %s", records[3].State)
	}

	filtered := filterNoise(records)
	if len(filtered) != 2 {
		t.Fatalf("filterNoise: expected 2 records, got %d: %v", len(filtered), filtered)
	}
	for _, rec := range filtered {
		if rec.MAC[0]&0x01 != 0 {
			t.Errorf("broadcast/multicast MAC survived filtering: %v", rec)
		}
		if rec.IP[0] >= 224 {
			t.Errorf("multicast IP survived filtering: %v", rec)
		}
	}
}

func TestStateLive(t *testing.T) {
	live := []State{StateReachable, StateStale, StateDelay, StateProbe, StatePermanent}
	dead := []State{StateUnknown, StateIncomplete, StateFailed}
	for _, s := range live {
		if !s.Live() {
			t.Errorf("%s should be live", s)
		}
	}
	for _, s := range dead {
		if s.Live() {
			t.Errorf("%s should not be live", s)
		}
	}
}

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"aa:bb:cc:dd:ee:ff", "aa:bb:cc:dd:ee:ff", true},
		{"AA-BB-CC-DD-EE-FF", "aa:bb:cc:dd:ee:ff", true},
		{"0:1:2:3:4:5", "00:01:02:03:04:05", true},
		{"(incomplete)", "", false},
		{"aa:bb:cc:dd:ee", "", false},
		{"zz:bb:cc:dd:ee:ff", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		mac, ok := NormalizeMAC(tt.in)
		if ok != tt.wantOK {
			t.Errorf("NormalizeMAC(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && mac.String() != tt.want {
			t.Errorf("NormalizeMAC(%q) = %s, want %s", tt.in, mac, tt.want)
		}
	}
}

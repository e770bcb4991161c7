// Package classify partitions neighbor records by the IEEE 802
// locally-administered bit: hardware addresses with bit 0x02 of the first
// octet set were assigned by software (privacy randomization on modern
// mobile devices), all others carry a vendor OUI.
package classify

import (
	"bytes"
	"net"
	"sort"

	"github.com/lanscout/lanscout/pkg/neigh"
)

// Result is the partition of a record set. Both slices are ordered by IP
// ascending so that consecutive scans diff cleanly.
type Result struct {
	VendorAssigned      []neigh.Record
	LocallyAdministered []neigh.Record
}

// Total returns the number of classified records.
func (r Result) Total() int {
	return len(r.VendorAssigned) + len(r.LocallyAdministered)
}

// IsLocallyAdministered reports whether the hardware address has the
// locally-administered bit set.
func IsLocallyAdministered(mac net.HardwareAddr) bool {
	return len(mac) > 0 && mac[0]&0x02 != 0
}

// excluded reports identities that can never belong to a real host: the
// broadcast address, multicast hardware addresses (I/G bit) and addresses
// associated with multicast/reserved IPs (224.0.0.0/4, 255.255.255.255).
func excluded(rec neigh.Record) bool {
	if len(rec.MAC) == 0 {
		return true
	}
	if rec.MAC[0]&0x01 != 0 {
		return true
	}
	ip4 := rec.IP.To4()
	if ip4 == nil || ip4[0] >= 224 {
		return true
	}
	return false
}

// Partition splits records into vendor-assigned and locally-administered
// sets, excluding broadcast/multicast identities first. Pure function:
// classifying the same input twice yields identical partitions.
func Partition(records []neigh.Record) Result {
	var result Result
	for _, rec := range records {
		if excluded(rec) {
			continue
		}
		if IsLocallyAdministered(rec.MAC) {
			result.LocallyAdministered = append(result.LocallyAdministered, rec)
		} else {
			result.VendorAssigned = append(result.VendorAssigned, rec)
		}
	}
	sortByIP(result.VendorAssigned)
	sortByIP(result.LocallyAdministered)
	return result
}

func sortByIP(records []neigh.Record) {
	sort.Slice(records, func(i, j int) bool {
		return bytes.Compare(records[i].IP.To4(), records[j].IP.To4()) < 0
	})
}

package parsers

import (
	"regexp"
	"strings"
)

// Interface is one network interface and its hardware address.
type Interface struct {
	Name string
	MAC  string
}

var (
	linkHeader = regexp.MustCompile(`^\d+:\s+([^:@\s]+)(?:@\S+)?:`)
	linkEther  = regexp.MustCompile(`link/ether\s+([0-9a-fA-F:]{17})`)
)

const zeroMAC = "00:00:00:00:00:00"

// ParseIPLink parses `ip link show`, skipping loopback and interfaces
// without a usable MAC.
func ParseIPLink(out string) []Interface {
	var ifaces []Interface
	current := ""
	for _, line := range strings.Split(out, "\n") {
		if m := linkHeader.FindStringSubmatch(line); m != nil {
			current = m[1]
			continue
		}
		m := linkEther.FindStringSubmatch(line)
		if m == nil || current == "" || current == "lo" {
			continue
		}
		mac := strings.ToLower(m[1])
		if mac == zeroMAC {
			continue
		}
		ifaces = append(ifaces, Interface{Name: current, MAC: mac})
		current = ""
	}
	return ifaces
}

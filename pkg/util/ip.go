package util

import (
	"fmt"
	"net/netip"
)

// ParseIPWithMask parses an IP address with CIDR notation (e.g. "192.168.10.1/24").
// Returns the address, prefix length, and any error.
func ParseIPWithMask(cidr string) (netip.Addr, int, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return netip.Addr{}, 0, fmt.Errorf("invalid CIDR notation: %s", cidr)
	}
	return prefix.Addr(), prefix.Bits(), nil
}

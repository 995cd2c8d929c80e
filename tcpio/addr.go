package tcpio

import (
	"net/netip"
	"strings"
)

// addr2peer parses host as an IPv4 or IPv6 literal plus port. Hostnames
// are rejected here: resolving them is dnsresolver's job (spec.md §4.7),
// not this layer's.
func addr2peer(host string, port uint16) (netip.AddrPort, error) {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.AddrPort{}, ErrInvalidAddr
	}
	return netip.AddrPortFrom(addr, port), nil
}

// rewriteMappedIPv4 turns an IPv4-mapped IPv6 address (::ffff:a.b.c.d)
// into its plain IPv4 form, matching the accept-path rewrite in spec.md
// §4.6 so an accepted peer from a dual-stack listener is tagged IPv4
// rather than IPv6 when it actually is one.
func rewriteMappedIPv4(addr netip.Addr) netip.Addr {
	if addr.Is4In6() {
		return addr.Unmap()
	}
	return addr
}

func wildcardFor(family int, bindIP string) (netip.Addr, error) {
	if bindIP != "" {
		return netip.ParseAddr(bindIP)
	}
	if family == familyIPv6 {
		return netip.IPv6Unspecified(), nil
	}
	return netip.IPv4Unspecified(), nil
}

// familyOf reports which socket family an address literal implies; empty
// bindIP with an explicit requested family still goes through this for
// the wildcard case.
func familyOf(bindIP string) int {
	if bindIP == "" {
		return familyIPv4
	}
	if strings.Contains(bindIP, ":") {
		return familyIPv6
	}
	return familyIPv4
}

const (
	familyIPv4 = iota
	familyIPv6
)

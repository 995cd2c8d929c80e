package dnsresolver

import "golang.org/x/net/idna"

// encodeHostname converts host to its ASCII form, Punycode-encoding
// (xn-- prefixed) only the labels that aren't already pure ASCII, per
// spec §4.7 step 3. idna.Lookup is the IDNA2008 lookup profile, which
// already implements this label-by-label behavior rather than encoding
// the whole name as one label.
func encodeHostname(host string) (string, error) {
	return idna.Lookup.ToASCII(host)
}

// Package dnsresolver implements the async DNS resolver (C9): background
// A/AAAA lookups over UDP with a TCP fallback on truncation, a TTL-aged
// query cache, IDNA/Punycode hostname encoding, and the Happy-Eyeballs
// outcome cache consulted by the happyeyeballs connector.
//
// Queries run on their own goroutine rather than through the event loop's
// poller — miekg/dns's Client.Exchange owns its own UDP/TCP socket
// lifecycle — and report back to the caller's loop via Loop.QueueTask, so
// a Resolve callback always runs on the loop's single dispatcher goroutine
// like every other event this runtime delivers.
package dnsresolver

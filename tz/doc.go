// Package tz implements an IANA/POSIX timezone engine independent of the
// host's time/tzdata: POSIX-TZ strings, Olson tzfiles (TZif v1/v2), and a
// custom INI-style zone format all parse into a Zone that converts between
// UTC and local wall-clock time, correctly disambiguating the DST
// fall-back and spring-forward windows.
//
// The standard library's time.LoadLocation already does most of this, but
// only against the host's installed zoneinfo database and without a way to
// construct a zone from a POSIX-TZ string, a raw tzfile byte stream, or the
// INI grammar below — which is why this package parses the formats itself
// rather than delegating to time.LoadLocation.
package tz

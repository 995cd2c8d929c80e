// Package ioerr defines the I/O error taxonomy shared by evloop, iolayer,
// tcpio, dnsresolver, and happyeyeballs, per spec §7.
//
// A single enum (IOErr) is shared across every I/O layer so that a caller
// can inspect io_get_error() without caring which layer produced it. Each
// value wraps a sentinel so classification composes with errors.Is.
package ioerr

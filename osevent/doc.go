// Package osevent implements a user-attachable software-event layer
// (C11): a Signal method usable from any goroutine that writes to a
// self-pipe registered with the owning loop, whose Read readiness the
// layer rewrites into an Other event. It is the kind of primitive evloop's
// own internal wakeup mechanism uses to interrupt a blocked poller
// (eventfd on Linux, a self-pipe on Darwin), generalized here into something a caller
// can attach to a Stack and Signal directly instead of it being
// loop-internal plumbing. Grounded on the source's M_io_osevent_pipe.c,
// which wraps the same OS primitive as a standalone IO object for
// exactly this purpose.
package osevent

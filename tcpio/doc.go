// Package tcpio implements a non-blocking TCP connect/listen/accept/
// read/write layer on top of iolayer.Layer, wired to an evloop.Loop
// through the same LayerContext seam every other layer uses.
//
// Unlike net.Dial/net.Listen, on Linux and Darwin every socket here is
// created non-blocking up front and driven entirely by the owning loop's
// poller: Connect success is detected via write-readiness plus SO_ERROR
// rather than a blocking syscall, and Accept is a non-blocking accept
// (accept4 on Linux) triggered by the listener's own read-readiness. The
// Windows build leaves its sockets blocking and makes connect and accept
// synchronous calls.
package tcpio

// Package evloop implements the event loop and I/O layering runtime: a
// scheduler owning a set of OS wait handles, a soft-event queue, a timer
// wheel, and the dispatcher that walks an iolayer.Stack bottom-up
// delivering events, plus a pool that load-balances IO objects across one
// loop per CPU core.
//
// # Platform support
//
// I/O readiness is observed using the platform-native edge-triggered
// primitive: epoll (Linux), kqueue (Darwin/BSD), IOCP (Windows). The
// soft-event queue is what converts edge-triggered kernel notifications
// into the level-triggered, re-armed semantics user callbacks expect.
//
// # Usage
//
//	loop, err := evloop.New(evloop.WithExitOnEmpty())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer loop.Close()
//
//	loop.Add(stack, func(ev iolayer.EventType, err error) {
//		// user callback
//	})
//
//	result, err := loop.Run(-1)
package evloop

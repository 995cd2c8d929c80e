// Package iolayer implements the C5 I/O layer stack from spec §3/§4.2: an
// IO object is an ordered stack of composable Layer implementations (index
// 0 is the bottom, the OS primitive; the highest index is the user layer).
// Each layer intercepts events bottom-up and may rewrite or consume them
// before the user callback fires.
//
// Rather than a vtable of nullable function pointers, layers implement the
// Layer interface; BaseLayer supplies transparent pass-through defaults for
// every method, so a concrete layer only needs to override what it cares
// about (spec §9, "tagged variants over vtables").
package iolayer

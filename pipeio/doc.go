// Package pipeio implements a one-directional OS pipe as a pair of
// iolayer.Layer halves (C11), grounded on the teacher's POSIX pipe
// implementation: an anonymous, non-blocking pipe() pair wrapped as a
// reader Stack and a writer Stack so each end attaches to a Loop like
// any other fd-backed layer.
package pipeio

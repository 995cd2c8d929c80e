// Package happyeyeballs implements the racing TCP connector (C10): given
// a resolved (or resolvable) set of candidate addresses, it starts a
// connection attempt against the first, arms a staggered failover timer,
// and starts the next candidate if the first hasn't connected by the time
// the timer fires. The first attempt to reach Connected wins; every other
// in-flight attempt is destroyed and its address's outcome recorded in
// the shared dnsresolver.OutcomeCache so the next lookup for this host can
// rank candidates by observed behavior.
//
// Connector is not itself an iolayer.Layer: it is a higher-level
// orchestrator holding a tcpio Stack per in-flight attempt, driving them
// directly through evloop.Loop's Add/Remove/ScheduleTimer rather than
// through the layer-dispatch chain, since there's no single fd a
// "connector layer" could itself register.
package happyeyeballs

package evloop

import "github.com/google/uuid"

// NewSpanID returns a UUIDv7 identifying one span: a connect attempt, a
// DNS exchange, a single accept-to-disconnect IO lifetime. Borrowed from
// the nop package's NewSpanID, which uses span the way OpenTelemetry does.
// Exported so dnsresolver/happyeyeballs can tag queries and connector
// attempts with the same span-id convention this package uses for its own
// per-IO log lines (see handletable.go's ioEntry.spanID).
func NewSpanID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Only fails if the system CSPRNG is broken; fall back to a
		// random (v4) id rather than propagating an error through every
		// logging call site.
		return uuid.New().String()
	}
	return id.String()
}

package happyeyeballs

import (
	"time"

	"github.com/Monetra/mstdlib-sub003/tcpio"
)

// Settings tunes the connector, constructed via NewSettings the way
// tcpio.Settings is built via tcpio.NewSettings.
type Settings struct {
	// FailoverInterval is how long the connector waits for the current
	// attempt to connect before starting the next candidate.
	FailoverInterval time.Duration

	// Conn is forwarded to every per-address tcpio.Dial attempt.
	Conn *tcpio.Settings
}

// NewSettings returns Settings defaults: a 100ms failover interval (a
// conservative middle ground between the 250ms RFC 8305 suggests and the
// tighter intervals production dual-stack stacks commonly use), and
// tcpio's own connect/disconnect timeout defaults.
func NewSettings() *Settings {
	return &Settings{
		FailoverInterval: 100 * time.Millisecond,
		Conn:             tcpio.NewSettings(),
	}
}

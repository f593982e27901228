// Package timing provides the scoped timers protocol steps report
// themselves with.
package timing

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Metrics accumulates elapsed time per named scope for one session.
type Metrics struct {
	mtx     sync.Mutex
	elapsed map[string]time.Duration
}

// NewMetrics creates an empty metrics store.
func NewMetrics() *Metrics {
	return &Metrics{elapsed: make(map[string]time.Duration)}
}

// Elapsed returns the total time recorded under name.
func (m *Metrics) Elapsed(name string) time.Duration {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.elapsed[name]
}

func (m *Metrics) record(name string, d time.Duration) {
	m.mtx.Lock()
	m.elapsed[name] += d
	m.mtx.Unlock()
}

// Scope starts a timer for name and returns the stop function; stopping
// records the elapsed time into m (when non-nil) and logs it.
func Scope(log zerolog.Logger, m *Metrics, name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		if m != nil {
			m.record(name, d)
		}
		log.Debug().Str("scope", name).Int64("us", d.Microseconds()).Msg("timing")
	}
}

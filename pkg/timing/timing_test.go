package timing

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestScopeRecords(t *testing.T) {
	m := NewMetrics()
	stop := Scope(zerolog.Nop(), m, "step")
	time.Sleep(time.Millisecond)
	stop()

	require.Greater(t, m.Elapsed("step"), time.Duration(0))
	require.Equal(t, time.Duration(0), m.Elapsed("other"))
}

func TestScopeAccumulates(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 3; i++ {
		stop := Scope(zerolog.Nop(), m, "loop")
		time.Sleep(time.Millisecond)
		stop()
	}
	require.GreaterOrEqual(t, m.Elapsed("loop"), 3*time.Millisecond)
}

func TestScopeWithoutMetrics(t *testing.T) {
	require.NotPanics(t, func() { Scope(zerolog.Nop(), nil, "free")() })
}

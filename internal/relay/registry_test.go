package relay

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTicketRegistryRecordAndLookup(t *testing.T) {
	t.Parallel()

	registry := NewTicketRegistry(0)
	registry.Record(42, "jane#1234")
	registry.Record(0, "ignored")

	requester, ok := registry.Lookup(42)
	require.True(t, ok)
	require.Equal(t, "jane#1234", requester)
	_, ok = registry.Lookup(7)
	require.False(t, ok)
	require.Equal(t, 1, registry.Len())
}

func TestTicketRegistryIsBounded(t *testing.T) {
	t.Parallel()

	registry := NewTicketRegistry(3)
	for id := int64(1); id <= 10; id++ {
		registry.Record(id, "user")
	}
	require.Equal(t, 3, registry.Len())
	_, ok := registry.Lookup(10)
	require.True(t, ok)
}

func TestTicketRegistryConcurrentWriters(t *testing.T) {
	t.Parallel()

	registry := NewTicketRegistry(64)
	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for i := int64(1); i <= 100; i++ {
				registry.Record(base*1000+i, "user")
			}
		}(int64(worker + 1))
	}
	wg.Wait()
	require.LessOrEqual(t, registry.Len(), 64+8)
}

func TestNilTicketRegistry(t *testing.T) {
	t.Parallel()

	var registry *TicketRegistry
	registry.Record(1, "x")
	_, ok := registry.Lookup(1)
	require.False(t, ok)
	require.Zero(t, registry.Len())
}

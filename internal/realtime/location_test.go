package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kirana/internal/domain"
)

func TestLocationStore_LastWriteWins(t *testing.T) {
	store := NewLocationStore()

	store.Set(domain.PartnerLocation{PartnerID: 30, Lat: 12.97, Lng: 77.59, CapturedAt: time.Now()})
	store.Set(domain.PartnerLocation{PartnerID: 30, Lat: 12.98, Lng: 77.60, CapturedAt: time.Now()})

	loc, ok := store.Get(30)
	require.True(t, ok)
	assert.Equal(t, 12.98, loc.Lat)
	assert.Equal(t, 77.60, loc.Lng)
}

func TestLocationStore_UnknownPartner(t *testing.T) {
	store := NewLocationStore()

	_, ok := store.Get(99)
	assert.False(t, ok)
}

func TestLocationStore_ConcurrentWrites(t *testing.T) {
	store := NewLocationStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.Set(domain.PartnerLocation{PartnerID: 30, Lat: float64(n), Lng: float64(n)})
		}(i)
	}
	wg.Wait()

	loc, ok := store.Get(30)
	require.True(t, ok)
	assert.Equal(t, loc.Lat, loc.Lng, "a stored location is never a torn mix of two writes")
}

package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannel_TrySend(t *testing.T) {
	ch := NewChannel("c1", 2)

	assert.True(t, ch.TrySend(Outbound{Type: TypeOrderUpdate}))
	assert.True(t, ch.TrySend(Outbound{Type: TypeOrderUpdate}))
	assert.False(t, ch.TrySend(Outbound{Type: TypeOrderUpdate}), "full buffer drops")

	<-ch.Out
	assert.True(t, ch.TrySend(Outbound{Type: TypeOrderUpdate}), "drained buffer accepts again")
}

func TestChannel_TrySendAfterClose(t *testing.T) {
	ch := NewChannel("c1", 2)
	ch.Close()

	assert.False(t, ch.TrySend(Outbound{Type: TypeOrderUpdate}))
}

func TestChannel_CloseIdempotent(t *testing.T) {
	ch := NewChannel("c1", 2)
	ch.Close()
	assert.NotPanics(t, func() { ch.Close() })
}

func TestChannel_DefaultBufferSize(t *testing.T) {
	ch := NewChannel("c1", 0)
	assert.Equal(t, 32, cap(ch.Out))
}

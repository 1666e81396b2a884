package sample

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_KeepsLast512InPushOrder(t *testing.T) {
	t.Parallel()

	b := NewBuffer(DefaultCapacity)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 600; i++ {
		b.Push(Sample{Value: float32(i), Timestamp: start.Add(time.Duration(i) * time.Second / 30)})
		require.LessOrEqual(t, b.Len(), DefaultCapacity)
	}

	snap := b.Snapshot()
	require.Len(t, snap, DefaultCapacity)
	for i, s := range snap {
		assert.Equal(t, float32(600-DefaultCapacity+i), s.Value)
	}

	values := b.Values()
	assert.Equal(t, float32(88), values[0])
	assert.Equal(t, float32(599), values[len(values)-1])
}

func TestBuffer_SnapshotIsIndependent(t *testing.T) {
	t.Parallel()

	b := NewBuffer(4)
	b.Push(Sample{Value: 1})
	snap := b.Snapshot()
	snap[0].Value = 42

	assert.Equal(t, []float32{1}, b.Values())
}

func TestBuffer_Reset(t *testing.T) {
	t.Parallel()

	b := NewBuffer(0)
	assert.Equal(t, DefaultCapacity, b.Cap())
	b.Push(Sample{Value: 3})
	b.Reset()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Values())
}

func TestBuffer_ConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	t.Parallel()

	b := NewBuffer(64)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			b.Push(Sample{Value: float32(i)})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			values := b.Values()
			for j := 1; j < len(values); j++ {
				if values[j] != values[j-1]+1 {
					t.Errorf("snapshot not contiguous at %d: %v then %v", j, values[j-1], values[j])
					return
				}
			}
		}
	}()

	wg.Wait()
}

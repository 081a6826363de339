package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDebouncer(t *testing.T) {
	t.Run("only last call fires", func(t *testing.T) {
		d := New(20 * time.Millisecond)
		var last, calls atomic.Int32

		for i := int32(1); i <= 5; i++ {
			v := i
			d.Trigger(func() {
				calls.Add(1)
				last.Store(v)
			})
		}

		assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, int32(5), last.Load())
		assert.False(t, d.Pending())
	})

	t.Run("flush runs pending call immediately", func(t *testing.T) {
		d := New(time.Hour)
		var calls atomic.Int32
		d.Trigger(func() { calls.Add(1) })

		assert.True(t, d.Pending())
		assert.True(t, d.Flush())
		assert.Equal(t, int32(1), calls.Load())
		assert.False(t, d.Flush())
	})

	t.Run("stop drops pending and later triggers", func(t *testing.T) {
		d := New(10 * time.Millisecond)
		var calls atomic.Int32
		d.Trigger(func() { calls.Add(1) })
		d.Stop()
		d.Trigger(func() { calls.Add(1) })

		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, int32(0), calls.Load())
		assert.False(t, d.Pending())
	})
}

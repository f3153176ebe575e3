package ratelimit

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestAllowIsPerKey(t *testing.T) {
    l := New(0.001, 2)

    assert.True(t, l.Allow("a"))
    assert.True(t, l.Allow("a"))
    assert.False(t, l.Allow("a"))
    assert.True(t, l.Allow("b"))
}

func TestUnlimitedWhenRateIsZero(t *testing.T) {
    l := New(0, 1)
    for i := 0; i < 100; i++ {
        require.True(t, l.Allow("k"))
    }
}

func TestWaitHonoursContext(t *testing.T) {
    l := PerMinute(1, 1)
    require.NoError(t, l.Wait(context.Background(), "k"))

    ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
    defer cancel()
    assert.Error(t, l.Wait(ctx, "k"))
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLimiter(rate.Every(time.Hour), 2)

	assert.True(t, l.Allow("Ivanov Ivan Ivanovich"))
	assert.True(t, l.Allow("ivanov ivan ivanovich "))
	assert.False(t, l.Allow("IVANOV IVAN IVANOVICH"))

	assert.True(t, l.Allow("Petrov Petr Petrovich"))
}

func TestLimiter_PruneKeepsExhaustedBuckets(t *testing.T) {
	l := NewLimiter(rate.Every(time.Hour), 1)
	l.maxKeys = 2

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	l.buckets["idle"] = rate.NewLimiter(l.limit, l.burst)

	// The map is full: refilled buckets go, throttled ones stay.
	assert.True(t, l.Allow("c"))
	assert.NotContains(t, l.buckets, "idle")
	assert.Contains(t, l.buckets, "a")
	assert.Contains(t, l.buckets, "b")

	assert.False(t, l.Allow("a"))
}

package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_GrowsToCap(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, time.Second)

	// With ±20% jitter each delay stays inside a known window.
	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, want := range expected {
		got := b.Next()
		lo := time.Duration(float64(want) * 0.8)
		hi := time.Duration(float64(want) * 1.2)
		assert.GreaterOrEqual(t, got, lo, "attempt %d", i)
		assert.LessOrEqual(t, got, hi, "attempt %d", i)
	}
}

func TestBackoff_Reset(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, time.Second)
	for i := 0; i < 5; i++ {
		b.Next()
	}

	b.Reset()
	got := b.Next()
	assert.GreaterOrEqual(t, got, 80*time.Millisecond)
	assert.LessOrEqual(t, got, 120*time.Millisecond)
}

func TestBackoff_Defaults(t *testing.T) {
	b := NewBackoff(0, 0)
	got := b.Next()
	assert.Greater(t, got, time.Duration(0))
	assert.LessOrEqual(t, got, 600*time.Millisecond)
}

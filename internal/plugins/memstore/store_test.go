package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_PublishAndGet(t *testing.T) {
	s := New()

	s.Publish("reaction:1", 5)
	s.Publish("reaction:1", 6)

	v, ok := s.Get("reaction:1")
	assert.True(t, ok)
	assert.Equal(t, 6, v)

	_, ok = s.Get("reaction:2")
	assert.False(t, ok)
}

func TestStore_DropsWritesAfterClose(t *testing.T) {
	s := New()
	s.Publish("reaction:1", 5)
	s.Close()

	// A racing rollback after teardown must not resurrect state.
	s.Publish("reaction:1", 99)

	v, ok := s.Get("reaction:1")
	assert.True(t, ok)
	assert.Equal(t, 5, v)
}

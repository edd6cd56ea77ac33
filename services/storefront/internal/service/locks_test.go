package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_TryLock(t *testing.T) {
	k := newKeyedMutex()

	unlock, ok := k.TryLock("a")
	assert.True(t, ok)

	_, ok = k.TryLock("a")
	assert.False(t, ok)

	other, ok := k.TryLock("b")
	assert.True(t, ok)
	other()

	unlock()
	again, ok := k.TryLock("a")
	assert.True(t, ok)
	again()
	assert.Zero(t, k.size())
}

func TestKeyedMutex_LockReleasesEntry(t *testing.T) {
	k := newKeyedMutex()

	unlock := k.Lock("a")
	assert.Equal(t, 1, k.size())
	unlock()

	assert.Zero(t, k.size())
}

package acmemgr

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeSetPutLookup(t *testing.T) {
	set := NewChallengeSet()

	_, ok := set.Lookup("missing")
	assert.False(t, ok)

	set.Put("token-a", "token-a.keyauth")
	keyAuth, ok := set.Lookup("token-a")
	require.True(t, ok)
	assert.Equal(t, "token-a.keyauth", keyAuth)
	assert.Equal(t, 1, set.Len())
}

func TestChallengeSetClear(t *testing.T) {
	set := NewChallengeSet()
	set.Put("token-a", "auth-a")
	set.Put("token-b", "auth-b")
	require.Equal(t, 2, set.Len())

	set.Clear()

	assert.Equal(t, 0, set.Len())
	_, ok := set.Lookup("token-a")
	assert.False(t, ok)
}

func TestChallengeSetConcurrent(t *testing.T) {
	set := NewChallengeSet()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("token-%d", i)
			set.Put(token, token+".auth")
			_, _ = set.Lookup(token)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 32, set.Len())
}

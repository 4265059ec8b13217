package mem

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsumedTokens_SingleUse(t *testing.T) {
	s := NewConsumedTokens()
	exp := time.Now().Add(time.Hour)

	assert.True(t, s.Consume("jti-1", exp))
	assert.False(t, s.Consume("jti-1", exp))
	assert.True(t, s.Seen("jti-1"))
	assert.False(t, s.Seen("jti-2"))
}

func TestConsumedTokens_ExpiredEntriesAreForgotten(t *testing.T) {
	s := NewConsumedTokens()
	now := time.Now()
	s.now = func() time.Time { return now }

	assert.True(t, s.Consume("old", now.Add(time.Minute)))
	assert.True(t, s.Consume("older", now.Add(-time.Minute)))

	assert.Equal(t, 1, s.Purge())
	assert.True(t, s.Seen("old"))

	now = now.Add(2 * time.Minute)
	assert.False(t, s.Seen("old"))
	assert.True(t, s.Consume("old", now.Add(time.Minute)))
}

func TestConsumedTokens_ConcurrentConsumeHasOneWinner(t *testing.T) {
	s := NewConsumedTokens()
	exp := time.Now().Add(time.Hour)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Consume("shared", exp) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins.Load())
}

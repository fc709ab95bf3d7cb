package brokerlock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesSameBroker(t *testing.T) {
	set := NewSet()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := set.Lock("zerodha")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestDifferentBrokersDoNotBlock(t *testing.T) {
	set := NewSet()

	unlockA := set.Lock("zerodha")
	defer unlockA()

	// A different broker's lock must be acquirable while zerodha is held.
	done := make(chan struct{})
	go func() {
		unlockB := set.Lock("upstox")
		unlockB()
		close(done)
	}()
	<-done
}

func TestLockReleases(t *testing.T) {
	set := NewSet()

	unlock := set.Lock("zerodha")
	unlock()

	again := set.Lock("zerodha")
	again()
}

package countries

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor_AdvancesAndWraps(t *testing.T) {
	c := NewCursor(3)
	assert.Equal(t, 0, c.Position())

	got := []int{c.Next(), c.Next(), c.Next(), c.Next(), c.Next()}
	assert.Equal(t, []int{0, 1, 2, 0, 1}, got)
	assert.Equal(t, 2, c.Position())
}

func TestCursor_SingleElement(t *testing.T) {
	c := NewCursor(1)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0, c.Next())
	}
}

func TestCursor_ConcurrentNext(t *testing.T) {
	c := NewCursor(7)
	var wg sync.WaitGroup
	for i := 0; i < 70; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, c.Position())
}

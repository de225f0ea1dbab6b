package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindow_SeenTwice(t *testing.T) {
	w := NewWindow(100)
	assert.False(t, w.Seen("1700000000.000100"), "first delivery is new")
	assert.True(t, w.Seen("1700000000.000100"), "redelivery is a duplicate")
}

func TestWindow_PrunesToNewest(t *testing.T) {
	w := NewWindow(3)
	for i := 0; i < 5; i++ {
		w.Seen(fmt.Sprintf("id-%d", i))
	}

	assert.Equal(t, 3, w.Len())
	assert.False(t, w.Seen("id-0"), "oldest ids are pruned and look new again")
	assert.True(t, w.Seen("id-4"), "newest ids survive pruning")
}

func TestWindow_DefaultSize(t *testing.T) {
	w := NewWindow(0)
	for i := 0; i < DefaultSize+10; i++ {
		w.Seen(fmt.Sprintf("id-%d", i))
	}
	assert.Equal(t, DefaultSize, w.Len())
}

func TestWindow_InjectableClock(t *testing.T) {
	now := time.Unix(1700000000, 0)
	w := NewWindowWithClock(10, func() time.Time { return now })
	assert.False(t, w.Seen("a"))
	assert.True(t, w.Seen("a"))
}

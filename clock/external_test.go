package clock

import (
	"context"
	"testing"
	"time"

	tdd "github.com/stretchr/testify/assert"
)

func TestExternalFiresInDeadlineOrder(t *testing.T) {
	assert := tdd.New(t)
	start := time.Unix(0, 0)
	c := NewExternal(start)

	var fired []string
	c.CallAt(start.Add(3*time.Second), func() { fired = append(fired, "c") })
	c.CallAt(start.Add(1*time.Second), func() { fired = append(fired, "a") })
	c.CallAt(start.Add(2*time.Second), func() { fired = append(fired, "b") })

	assert.Nil(c.SetTime(start.Add(2500 * time.Millisecond)))
	assert.Equal([]string{"a", "b"}, fired)

	assert.Nil(c.SetTime(start.Add(5 * time.Second)))
	assert.Equal([]string{"a", "b", "c"}, fired)
}

func TestExternalSetTimeRejectsNonMonotonic(t *testing.T) {
	assert := tdd.New(t)
	c := NewExternal(time.Unix(0, 0))
	assert.Nil(c.SetTime(time.Unix(10, 0)))
	assert.NotNil(c.SetTime(time.Unix(10, 0)))
	assert.NotNil(c.SetTime(time.Unix(5, 0)))
}

func TestExternalCancelPreventsFire(t *testing.T) {
	assert := tdd.New(t)
	start := time.Unix(0, 0)
	c := NewExternal(start)

	fired := false
	timer := c.CallAt(start.Add(time.Second), func() { fired = true })
	assert.True(timer.Cancel())
	assert.Nil(c.SetTime(start.Add(2 * time.Second)))
	assert.False(fired)
}

func TestExternalSleepUntil(t *testing.T) {
	assert := tdd.New(t)
	start := time.Unix(0, 0)
	c := NewExternal(start)

	done := make(chan error, 1)
	go func() {
		done <- c.SleepUntil(context.Background(), start.Add(time.Second))
	}()

	time.Sleep(10 * time.Millisecond) // let the goroutine register its timer
	assert.Nil(c.SetTime(start.Add(2 * time.Second)))
	assert.Nil(<-done)
}

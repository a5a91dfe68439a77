package trace

import (
	"testing"
	"time"

	tdd "github.com/stretchr/testify/assert"
)

func TestStoreEvictsOldest(t *testing.T) {
	assert := tdd.New(t)
	s := NewStore(2)
	s.Insert(Event{Type: "a"})
	s.Insert(Event{Type: "b"})
	s.Insert(Event{Type: "c"})

	all := s.All(0)
	assert.Len(all, 2)
	assert.Equal("b", all[0].Type)
	assert.Equal("c", all[1].Type)
}

func TestStoreFilterOldestFirstWithinLimit(t *testing.T) {
	assert := tdd.New(t)
	s := NewStore(10)
	for i := 0; i < 5; i++ {
		s.Insert(Event{Category: "x", Type: string(rune('a' + i))})
	}
	s.Insert(Event{Category: "y", Type: "other"})

	got := s.Filter(2, "", "x")
	assert.Len(got, 2)
	assert.Equal("d", got[0].Type)
	assert.Equal("e", got[1].Type)
}

func TestStoreFilterByAppID(t *testing.T) {
	assert := tdd.New(t)
	s := NewStore(10)
	s.Insert(Event{AppID: "agent-alpha", Category: "PingControl", Type: "p1"})
	s.Insert(Event{AppID: "agent-beta", Category: "PingControl", Type: "p2"})

	got := s.Filter(0, "agent-beta", "")
	assert.Len(got, 1)
	assert.Equal("p2", got[0].Type)

	got = s.Filter(0, "", "PingControl")
	assert.Len(got, 2)

	got = s.Filter(0, "agent-alpha", "PingControl")
	assert.Len(got, 1)
	assert.Equal("p1", got[0].Type)
}

func TestStoreReceivedExcludesSent(t *testing.T) {
	assert := tdd.New(t)
	s := NewStore(10)
	s.Insert(Event{Type: "out", Sent: true})
	s.Insert(Event{Type: "in", Sent: false})

	got := s.Received(0)
	assert.Len(got, 1)
	assert.Equal("in", got[0].Type)
}

func TestStoreLatest(t *testing.T) {
	assert := tdd.New(t)
	s := NewStore(10)
	_, ok := s.Latest()
	assert.False(ok)

	s.Insert(Event{Type: "a", Timestamp: time.Unix(1, 0)})
	s.Insert(Event{Type: "b", Timestamp: time.Unix(2, 0)})
	latest, ok := s.Latest()
	assert.True(ok)
	assert.Equal("b", latest.Type)
}

package service

import (
	"context"
	"testing"
	"time"

	tdd "github.com/stretchr/testify/assert"
)

type fakeService struct {
	name    string
	order   *[]string
	failure error
}

func (f *fakeService) Start(context.Context) error {
	*f.order = append(*f.order, "start:"+f.name)
	return nil
}

func (f *fakeService) Stop(context.Context) error {
	*f.order = append(*f.order, "stop:"+f.name)
	return f.failure
}

func TestSupervisorStopsChildrenInReverseOrder(t *testing.T) {
	assert := tdd.New(t)
	var order []string
	stopped := false

	sup := NewSupervisor(func(context.Context) error {
		stopped = true
		order = append(order, "onStop")
		return nil
	})
	sup.Add(&fakeService{name: "a", order: &order})
	sup.Add(&fakeService{name: "b", order: &order})

	assert.Nil(sup.Start(context.Background()))
	assert.Equal(StateRunning, sup.State())

	assert.Nil(sup.Stop(context.Background(), time.Second))
	assert.True(stopped)
	assert.Equal([]string{"start:a", "start:b", "stop:b", "stop:a", "onStop"}, order)
	assert.Equal(StateShutdown, sup.State())
}

func TestSupervisorStopIsIdempotent(t *testing.T) {
	assert := tdd.New(t)
	var order []string
	sup := NewSupervisor(nil)
	sup.Add(&fakeService{name: "a", order: &order})
	assert.Nil(sup.Start(context.Background()))
	assert.Nil(sup.Stop(context.Background(), time.Second))
	assert.Nil(sup.Stop(context.Background(), time.Second))
	assert.Equal([]string{"start:a", "stop:a"}, order)
}

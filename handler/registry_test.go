package handler

import (
	"context"
	"testing"

	"github.com/sysid/agentmesh/broker"
	tdd "github.com/stretchr/testify/assert"
)

func TestRegistryDispatchesRegisteredHandler(t *testing.T) {
	assert := tdd.New(t)

	called := false
	r := NewRegistry(nil)
	r.Register("Demo", HandlerFunc(func(_ context.Context, _ any, _ broker.Delivery) error {
		called = true
		return nil
	}))

	ok, err := r.Dispatch(context.Background(), nil, broker.Delivery{Type: "Demo"})
	assert.Nil(err)
	assert.True(ok)
	assert.True(called)
}

func TestRegistryFallsBackWhenUnregistered(t *testing.T) {
	assert := tdd.New(t)

	fallbackCalled := false
	r := NewRegistry(HandlerFunc(func(_ context.Context, _ any, _ broker.Delivery) error {
		fallbackCalled = true
		return nil
	}))

	ok, err := r.Dispatch(context.Background(), nil, broker.Delivery{Type: "Unknown"})
	assert.Nil(err)
	assert.True(ok)
	assert.True(fallbackCalled)
}

func TestRegistryNoHandlerNoFallback(t *testing.T) {
	assert := tdd.New(t)
	r := NewRegistry(nil)
	ok, err := r.Dispatch(context.Background(), nil, broker.Delivery{Type: "Unknown"})
	assert.Nil(err)
	assert.False(ok)
}

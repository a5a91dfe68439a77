package behaviour

import (
	"context"
	"testing"
	"time"

	"github.com/sysid/agentmesh/broker"
	xlog "github.com/sysid/agentmesh/log"
	tdd "github.com/stretchr/testify/assert"
)

type noopSender struct{}

func (noopSender) DirectSend(context.Context, string, string, []byte) error { return nil }
func (noopSender) FanoutSend(context.Context, string, []byte) error         { return nil }
func (noopSender) Publish(context.Context, string, string, []byte) error    { return nil }
func (noopSender) Call(context.Context, string, string, []byte) ([]byte, error) {
	return nil, nil
}
func (noopSender) ExposeRPC(string, RPCFunc) {}
func (noopSender) WithdrawRPC(string)        {}

func TestBaseReceiveBlocksUntilEnqueue(t *testing.T) {
	assert := tdd.New(t)
	b := New("test.Echo", noopSender{}, nil, xlog.Discard(), RunnerFunc(func(context.Context, *Base) error { return nil }), Options{})

	result := make(chan broker.Delivery, 1)
	go func() {
		msg, ok := b.Receive(context.Background())
		assert.True(ok)
		result <- msg
	}()

	time.Sleep(10 * time.Millisecond)
	b.Enqueue(broker.Delivery{Type: "Hello"})

	select {
	case msg := <-result:
		assert.Equal("Hello", msg.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for receive")
	}
}

func TestBaseReceiveUnblocksOnContextCancel(t *testing.T) {
	assert := tdd.New(t)
	b := New("test.Echo", noopSender{}, nil, xlog.Discard(), RunnerFunc(func(context.Context, *Base) error { return nil }), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan bool, 1)
	go func() {
		_, ok := b.Receive(ctx)
		result <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case ok := <-result:
		assert.False(ok)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cancellation")
	}
}

func TestBaseStartStopRunsSetupAndTeardown(t *testing.T) {
	assert := tdd.New(t)
	var setupCalled, teardownCalled bool

	runner := &lifecycleRunner{
		onSetup:    func() { setupCalled = true },
		onTeardown: func() { teardownCalled = true },
	}
	b := New("test.Lifecycle", noopSender{}, nil, xlog.Discard(), runner, Options{})

	assert.Nil(b.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	assert.Nil(b.Stop(context.Background()))

	assert.True(setupCalled)
	assert.True(teardownCalled)
}

func TestBaseStateTransitions(t *testing.T) {
	assert := tdd.New(t)
	runner := &lifecycleRunner{onSetup: func() {}, onTeardown: func() {}}
	b := New("test.Lifecycle", noopSender{}, nil, xlog.Discard(), runner, Options{})

	assert.Equal(StateStopped, b.State())
	assert.Nil(b.Start(context.Background()))
	assert.Equal(StateRunning, b.State())
	assert.Nil(b.Stop(context.Background()))
	assert.Equal(StateStopped, b.State())
}

type lifecycleRunner struct {
	onSetup    func()
	onTeardown func()
}

func (r *lifecycleRunner) Setup(context.Context) error    { r.onSetup(); return nil }
func (r *lifecycleRunner) Teardown(context.Context) error { r.onTeardown(); return nil }
func (r *lifecycleRunner) Run(ctx context.Context, b *Base) error {
	<-ctx.Done()
	return nil
}

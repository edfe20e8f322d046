package astisense

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseRunnable(t *testing.T) {
	started := make(chan bool)
	r := NewBaseRunnable(BaseRunnableOptions{
		Metadata: Metadata{Name: "test"},
		OnMessage: func(m *Message) error {
			if m.Name == "fail" {
				return errors.New("failed")
			}
			return nil
		},
		OnStart: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		},
	})
	assert.Equal(t, "test", r.Metadata().Name)
	assert.Equal(t, StoppedStatus, r.Status())
	assert.NoError(t, r.OnMessage(&Message{Name: "ok"}))
	assert.Error(t, r.OnMessage(&Message{Name: "fail"}))

	// Dispatch
	var ms []*Message
	r.Dispatch(&Message{})
	r.SetDispatchFunc(func(m *Message) { ms = append(ms, m) })
	r.Dispatch(&Message{Name: "a"})
	assert.Len(t, ms, 1)

	// Start and stop
	done := make(chan error)
	go func() { done <- r.Start(context.Background()) }()
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("runnable didn't start")
	}
	assert.Equal(t, RunningStatus, r.Status())
	r.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runnable didn't stop")
	}
	assert.Equal(t, StoppedStatus, r.Status())
}

func TestBaseRunnableContext(t *testing.T) {
	r := NewBaseRunnable(BaseRunnableOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, r.Start(ctx))
}

package worker

import (
	"context"
	"sync"

	"github.com/asticode/go-astilog"
	"github.com/asticode/go-astisense"
	astiworker "github.com/asticode/go-astitools/worker"
	"github.com/pkg/errors"
)

type Worker struct {
	d    *astisense.Dispatcher
	mr   *sync.Mutex // Locks rs
	name string
	rs   map[string]astisense.Runnable
	w    *astiworker.Worker
}

// New creates a new worker
func New(name string) *Worker {
	return &Worker{
		d:    astisense.NewDispatcher(),
		mr:   &sync.Mutex{},
		name: name,
		rs:   make(map[string]astisense.Runnable),
		w:    astiworker.NewWorker(),
	}
}

// Context returns the worker's context
func (w *Worker) Context() context.Context {
	return w.w.Context()
}

// Dispatch dispatches a message to runnables and listenables
func (w *Worker) Dispatch(m *astisense.Message) {
	w.d.Dispatch(m)
}

// Exec executes a blocking function in a task. The worker is stopped if it fails.
func (w *Worker) Exec(name string, fn func(ctx context.Context) error) {
	// Create task
	t := w.w.NewTask()

	// Execute the rest in a goroutine
	go func() {
		// Task is done
		defer t.Done()

		// Execute
		if err := fn(w.w.Context()); err != nil && w.w.Context().Err() == nil {
			astilog.Error(errors.Wrapf(err, "worker: executing %s failed", name))
			w.Stop()
		}
	}()
}

// HandleSignals handles signals
func (w *Worker) HandleSignals() {
	w.w.HandleSignals()
}

// Stop stops the worker
func (w *Worker) Stop() {
	astilog.Infof("worker: stopping %s", w.name)
	w.w.Stop()
}

// Wait waits for the worker to be stopped
func (w *Worker) Wait() {
	w.w.Wait()
}

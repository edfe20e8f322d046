package worker

import (
	"fmt"

	"github.com/asticode/go-astilog"
	"github.com/asticode/go-astisense"
	"github.com/pkg/errors"
)

type Runnable struct {
	AutoStart bool
	Runnable  astisense.Runnable
}

func (w *Worker) RegisterRunnables(rs ...Runnable) {
	// Loop through runnables
	for _, r := range rs {
		// Add to pool
		w.mr.Lock()
		w.rs[r.Runnable.Metadata().Name] = r.Runnable
		w.mr.Unlock()

		// Set dispatch func
		r.Runnable.SetDispatchFunc(w.d.Dispatch)

		// Add dispatch handlers
		ns := make(map[string]bool)
		for _, n := range r.Runnable.Metadata().MessageNames {
			ns[n] = true
		}
		w.d.On(astisense.DispatchConditions{Names: ns}, r.Runnable.OnMessage)

		// Log
		astilog.Infof("worker: registered runnable %s", r.Runnable.Metadata().Name)

		// Auto start
		if r.AutoStart {
			// Start runnable
			if err := w.StartRunnable(r.Runnable.Metadata().Name); err != nil {
				astilog.Error(errors.Wrapf(err, "worker: starting runnable %s failed", r.Runnable.Metadata().Name))
			}
		}
	}
}

func (w *Worker) StartRunnable(name string) (err error) {
	// Fetch runnable
	w.mr.Lock()
	r, ok := w.rs[name]
	w.mr.Unlock()

	// No runnable
	if !ok {
		err = fmt.Errorf("worker: no %s runnable", name)
		return
	}

	// Check status
	if r.Status() == astisense.RunningStatus {
		err = fmt.Errorf("worker: runnable %s is already running", name)
		return
	}

	// Log
	astilog.Infof("worker: starting runnable %s", name)

	// Create new task
	t := w.w.NewTask()

	// Execute the rest in a goroutine
	go func() {
		// Make sure to let the worker know when the task is done
		defer t.Done()

		// Start the runnable
		if err := r.Start(w.w.Context()); err != nil && w.w.Context().Err() == nil {
			astilog.Error(errors.Wrapf(err, "worker: runnable %s has crashed", name))
			return
		}
		astilog.Infof("worker: runnable %s has stopped", name)
	}()
	return
}

func (w *Worker) StopRunnable(name string) (err error) {
	// Fetch runnable
	w.mr.Lock()
	r, ok := w.rs[name]
	w.mr.Unlock()

	// No runnable
	if !ok {
		err = fmt.Errorf("worker: no %s runnable", name)
		return
	}

	// Check status
	if r.Status() == astisense.StoppedStatus {
		err = fmt.Errorf("worker: runnable %s is already stopped", name)
		return
	}

	// Log
	astilog.Infof("worker: stopping runnable %s", name)

	// Stop runnable
	r.Stop()
	return
}

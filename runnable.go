package astisense

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Statuses
const (
	RunningStatus = "running"
	StoppedStatus = "stopped"
)

type Runnable interface {
	Metadata() Metadata
	OnMessage(m *Message) error
	SetDispatchFunc(f DispatchFunc)
	Start(ctx context.Context) error
	Status() string
	Stop()
}

type Metadata struct {
	Description  string   `json:"description"`
	MessageNames []string `json:"message_names,omitempty"`
	Name         string   `json:"name"`
}

type DispatchFunc func(m *Message)

type BaseRunnableOptions struct {
	Metadata  Metadata
	OnMessage func(m *Message) error
	OnStart   func(ctx context.Context) error
}

type BaseRunnable struct {
	dispatchFunc DispatchFunc
	m            *sync.Mutex // Locks oStart, oStop, startCancel and status
	o            BaseRunnableOptions
	oStart       *sync.Once
	oStop        *sync.Once
	startCancel  context.CancelFunc
	status       string
}

func NewBaseRunnable(o BaseRunnableOptions) *BaseRunnable {
	return &BaseRunnable{
		m:      &sync.Mutex{},
		o:      o,
		oStart: &sync.Once{},
		oStop:  &sync.Once{},
		status: StoppedStatus,
	}
}

func (r *BaseRunnable) Dispatch(m *Message) {
	if r.dispatchFunc != nil {
		r.dispatchFunc(m)
	}
}

func (r *BaseRunnable) Metadata() Metadata { return r.o.Metadata }

func (r *BaseRunnable) OnMessage(m *Message) (err error) {
	// Custom
	if r.o.OnMessage != nil {
		if err = r.o.OnMessage(m); err != nil {
			err = errors.Wrap(err, "astisense: custom message handling failed")
			return
		}
	}
	return
}

func (r *BaseRunnable) SetDispatchFunc(f DispatchFunc) { r.dispatchFunc = f }

func (r *BaseRunnable) Status() string {
	r.m.Lock()
	defer r.m.Unlock()
	return r.status
}

func (r *BaseRunnable) setStatus(s string) {
	r.m.Lock()
	defer r.m.Unlock()
	r.status = s
}

// Start blocks until the runnable is stopped or the context is done
func (r *BaseRunnable) Start(ctx context.Context) (err error) {
	// Get once
	r.m.Lock()
	o := r.oStart
	r.m.Unlock()

	// Make sure it's started only once
	o.Do(func() {
		// Create context
		var startCtx context.Context
		r.m.Lock()
		startCtx, r.startCancel = context.WithCancel(ctx)

		// Reset once
		r.oStop = &sync.Once{}

		// Update status
		r.status = RunningStatus
		r.m.Unlock()

		// Start
		if r.o.OnStart != nil {
			if err = r.o.OnStart(startCtx); err != nil {
				err = errors.Wrap(err, "astisense: OnStart failed")
			}
		} else {
			<-startCtx.Done()
		}

		// Check context
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}

		// Update status
		r.setStatus(StoppedStatus)
	})
	return
}

func (r *BaseRunnable) Stop() {
	// Get once
	r.m.Lock()
	o := r.oStop
	r.m.Unlock()

	// Make sure it's stopped only once
	o.Do(func() {
		r.m.Lock()
		defer r.m.Unlock()

		// Cancel context
		if r.startCancel != nil {
			r.startCancel()
		}

		// Reset once
		r.oStart = &sync.Once{}
	})
}

package astiabbreviation

import (
	"context"
	"sync"

	"github.com/asticode/go-astilog"
	"github.com/asticode/go-astisense"
	astisync "github.com/asticode/go-astitools/sync"
	"github.com/pkg/errors"
)

// Runnable summarizes batches received through messages and dispatches one lines
// message per batch. It keeps one summarizer per stream.
type Runnable struct {
	*astisense.BaseRunnable
	c  *astisync.Chan
	ms *sync.Mutex // Locks ss
	o  Options
	ss map[string]*Summarizer // Indexed by stream id
}

// NewRunnable creates a new runnable
func NewRunnable(name string, o Options) (r *Runnable, err error) {
	// Validate options now rather than on the first batch
	if err = o.validate(); err != nil {
		err = errors.Wrap(err, "astiabbreviation: validating options failed")
		return
	}

	// Create runnable
	r = &Runnable{
		c:  astisync.NewChan(astisync.ChanOptions{}),
		ms: &sync.Mutex{},
		o:  o,
		ss: make(map[string]*Summarizer),
	}

	// Set base runnable
	r.BaseRunnable = astisense.NewBaseRunnable(astisense.BaseRunnableOptions{
		Metadata: astisense.Metadata{
			Description:  "Merges consecutive tag detections into intervals",
			MessageNames: []string{astisense.BatchMessage},
			Name:         name,
		},
		OnMessage: r.onMessage,
		OnStart:   r.onStart,
	})
	return
}

func (r *Runnable) onStart(ctx context.Context) (err error) {
	// Start chan
	r.c.Start(ctx)

	// Stop chan
	r.c.Stop()
	return
}

func (r *Runnable) onMessage(m *astisense.Message) (err error) {
	switch m.Name {
	case astisense.BatchMessage:
		if err = r.onBatch(m); err != nil {
			err = errors.Wrap(err, "astiabbreviation: on batch failed")
			return
		}
	}
	return
}

func (r *Runnable) onBatch(m *astisense.Message) (err error) {
	// Parse payload
	var b astisense.Batch
	if b, err = astisense.ParseBatchPayload(m); err != nil {
		err = errors.Wrap(err, "astiabbreviation: parsing payload failed")
		return
	}

	// Make sure batch processing is non blocking but still executed in FIFO order
	r.c.Add(r.batchFunc(b))
	return
}

func (r *Runnable) summarizer(streamID string) (s *Summarizer, err error) {
	// Lock
	r.ms.Lock()
	defer r.ms.Unlock()

	// Get summarizer
	var ok bool
	if s, ok = r.ss[streamID]; ok {
		return
	}

	// Create summarizer
	if s, err = New(r.o); err != nil {
		err = errors.Wrap(err, "astiabbreviation: creating summarizer failed")
		return
	}
	r.ss[streamID] = s
	return
}

func (r *Runnable) delSummarizer(streamID string) {
	r.ms.Lock()
	defer r.ms.Unlock()
	delete(r.ss, streamID)
}

func (r *Runnable) batchFunc(b astisense.Batch) func() {
	return func() {
		// Get summarizer
		s, err := r.summarizer(b.StreamID)
		if err != nil {
			astilog.Error(errors.Wrapf(err, "astiabbreviation: getting summarizer for stream %s failed", b.StreamID))
			return
		}

		// Process
		text := s.ProcessBatch(b.Events, b.EndOfStream)

		// Stream has ended
		if b.EndOfStream {
			astilog.Debugf("astiabbreviation: stream %s has ended", b.StreamID)
			r.delSummarizer(b.StreamID)
		}

		// Create message
		m, err := astisense.NewLinesMessage(astisense.Lines{
			EndOfStream: b.EndOfStream,
			StreamID:    b.StreamID,
			Text:        text,
		})
		if err != nil {
			astilog.Error(errors.Wrap(err, "astiabbreviation: creating lines message failed"))
			return
		}

		// Dispatch
		r.Dispatch(m)
	}
}

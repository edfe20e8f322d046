package astiabbreviation

import (
	"testing"

	"github.com/asticode/go-astisense"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnable(t *testing.T) {
	_, err := NewRunnable("abbreviation", Options{})
	assert.Error(t, err)

	r, err := NewRunnable("abbreviation", Options{Enabled: true, DefaultMargin: 1, StepSize: 0.5})
	require.NoError(t, err)
	assert.Equal(t, astisense.StoppedStatus, r.Status())
	assert.Equal(t, []string{astisense.BatchMessage}, r.Metadata().MessageNames)

	// Capture dispatched lines
	var ls []astisense.Lines
	r.SetDispatchFunc(func(m *astisense.Message) {
		l, err := astisense.ParseLinesPayload(m)
		require.NoError(t, err)
		ls = append(ls, l)
	})

	// Streams are summarized independently
	r.batchFunc(astisense.Batch{StreamID: "1", Events: []astisense.DetectionEvent{event(0, 0.5, "Dog")}})()
	r.batchFunc(astisense.Batch{StreamID: "2", Events: []astisense.DetectionEvent{event(0, 0.5, "Cat")}})()
	r.batchFunc(astisense.Batch{StreamID: "1", Events: []astisense.DetectionEvent{event(0.5, 1, "Dog")}})()
	assert.Equal(t, []astisense.Lines{{StreamID: "1"}, {StreamID: "2"}, {StreamID: "1"}}, ls)
	assert.Len(t, r.ss, 2)

	ls = nil
	r.batchFunc(astisense.Batch{StreamID: "2", Events: []astisense.DetectionEvent{event(0.5, 1), event(1, 1.5), event(1.5, 2)}})()
	assert.Equal(t, []astisense.Lines{{StreamID: "2", Text: "At 0.0-0.5s, [Cat] was detected"}}, ls)

	r.batchFunc(astisense.Batch{StreamID: "1", EndOfStream: true})()
	r.batchFunc(astisense.Batch{StreamID: "2", EndOfStream: true})()
	assert.Equal(t, []astisense.Lines{
		{StreamID: "2", Text: "At 0.0-0.5s, [Cat] was detected"},
		{EndOfStream: true, StreamID: "1", Text: "At 0.0-1.0s, [Dog] was detected"},
		{EndOfStream: true, StreamID: "2"},
	}, ls)
	assert.Empty(t, r.ss)
}

func TestListenable(t *testing.T) {
	var ls []astisense.Lines
	l := NewListenable(ListenableOptions{OnLines: func(l astisense.Lines) error {
		ls = append(ls, l)
		return nil
	}})
	assert.Equal(t, []string{astisense.LinesMessage}, l.MessageNames())
	assert.Empty(t, NewListenable(ListenableOptions{}).MessageNames())

	m, err := astisense.NewLinesMessage(astisense.Lines{StreamID: "1", Text: "a"})
	require.NoError(t, err)
	require.NoError(t, l.OnMessage(m))
	assert.Equal(t, []astisense.Lines{{StreamID: "1", Text: "a"}}, ls)

	// Wrong payload
	assert.Error(t, l.OnMessage(&astisense.Message{Name: astisense.LinesMessage, Payload: []byte("[")}))
}

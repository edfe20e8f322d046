package astipoller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/asticode/go-astisense"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	endOfStream bool
	events      []astisense.DetectionEvent
}

func poll(t *testing.T, r PageReader, o Options) (ps []page) {
	require.NoError(t, New(r, o).Poll(context.Background(), func(es []astisense.DetectionEvent, endOfStream bool) error {
		ps = append(ps, page{endOfStream: endOfStream, events: es})
		return nil
	}))
	return
}

func TestHTTPReader(t *testing.T) {
	var tokens []string
	var apiKeys []string
	s := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.URL.Query().Get("next_token"))
		apiKeys = append(apiKeys, r.Header.Get("X-Api-Key"))
		switch r.URL.Query().Get("next_token") {
		case "":
			rw.Write([]byte(`{"inference":{"results":[{"start_time":0,"end_time":1,"tags":[{"name":"Dog","probability":0.9}]}],"page":{"next_token":"a"}}}`))
		case "a":
			rw.Write([]byte(`{"inference":{"results":[{"start_time":0.5,"end_time":1.5,"tags":[]}],"page":{}}}`))
		default:
			rw.WriteHeader(http.StatusNotFound)
		}
	}))
	defer s.Close()

	r, err := NewHTTPReader(HTTPOptions{
		Headers: map[string]string{"X-Api-Key": "key"},
		Timeout: time.Second,
		URL:     s.URL + "/sessions/1/status",
	})
	require.NoError(t, err)
	ps := poll(t, r, Options{Interval: time.Millisecond})
	assert.Equal(t, []page{
		{events: []astisense.DetectionEvent{{StartTime: 0, EndTime: 1, Tags: []astisense.Tag{{Name: "Dog", Probability: 0.9}}}}},
		{endOfStream: true, events: []astisense.DetectionEvent{{StartTime: 0.5, EndTime: 1.5, Tags: []astisense.Tag{}}}},
	}, ps)
	assert.Equal(t, []string{"", "a"}, tokens)
	assert.Equal(t, []string{"key", "key"}, apiKeys)

	// Status code
	_, err = r.ReadPage(context.Background(), "b")
	assert.Equal(t, ErrUnexpectedStatusCode, pkgerrors.Cause(err))
}

func TestFileReader(t *testing.T) {
	dir := t.TempDir()

	// Single document
	p := filepath.Join(dir, "single.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"inference":{"results":[{"start_time":0,"end_time":1,"tags":[{"name":"Dog"}]}]}}`), 0644))
	r, err := NewFileReader(p)
	require.NoError(t, err)
	assert.Equal(t, []page{{endOfStream: true, events: []astisense.DetectionEvent{{StartTime: 0, EndTime: 1, Tags: []astisense.Tag{{Name: "Dog"}}}}}}, poll(t, r, Options{}))

	// Multiple documents
	p = filepath.Join(dir, "multiple.json")
	require.NoError(t, os.WriteFile(p, []byte(` [{"inference":{"results":[{"start_time":0,"end_time":1,"tags":[]}]}},{"inference":{"results":[]}}]`), 0644))
	r, err = NewFileReader(p)
	require.NoError(t, err)
	assert.Equal(t, []page{
		{events: []astisense.DetectionEvent{{StartTime: 0, EndTime: 1, Tags: []astisense.Tag{}}}},
		{endOfStream: true, events: []astisense.DetectionEvent{}},
	}, poll(t, r, Options{}))

	// Invalid
	_, err = r.ReadPage(context.Background(), "2")
	assert.Error(t, err)
	_, err = r.ReadPage(context.Background(), "x")
	assert.Error(t, err)
	require.NoError(t, os.WriteFile(p, []byte(`{`), 0644))
	_, err = NewFileReader(p)
	assert.Error(t, err)
	_, err = NewFileReader(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

type infiniteReader struct{ n int }

func (r *infiniteReader) ReadPage(ctx context.Context, token string) (Page, error) {
	r.n++
	return Page{NextToken: "next"}, nil
}

func TestPollerStops(t *testing.T) {
	// Callback error
	r := &infiniteReader{}
	errFn := errors.New("fn")
	err := New(r, Options{}).Poll(context.Background(), func(es []astisense.DetectionEvent, endOfStream bool) error {
		if r.n == 3 {
			return errFn
		}
		return nil
	})
	assert.Equal(t, errFn, pkgerrors.Cause(err))
	assert.Equal(t, 3, r.n)

	// Context
	ctx, cancel := context.WithCancel(context.Background())
	r = &infiniteReader{}
	err = New(r, Options{Interval: time.Millisecond}).Poll(ctx, func(es []astisense.DetectionEvent, endOfStream bool) error {
		if r.n == 2 {
			cancel()
		}
		return nil
	})
	assert.Error(t, err)
	assert.Equal(t, 2, r.n)
}

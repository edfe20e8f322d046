package astiserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/asticode/go-astisense"
	"github.com/asticode/go-astisense/abbreviation"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

type Stream struct {
	ID      string                             `json:"id"`
	Pending []astiabbreviation.PendingInterval `json:"pending"`
}

type Text struct {
	Text string `json:"text"`
}

func (s *Server) createStream(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	// Create stream
	id, _, err := s.newStream()
	if err != nil {
		astisense.WriteHTTPError(rw, http.StatusInternalServerError, errors.Wrap(err, "astiserver: creating stream failed"))
		return
	}

	// Write
	rw.WriteHeader(http.StatusCreated)
	astisense.WriteHTTPData(rw, Stream{
		ID:      id,
		Pending: []astiabbreviation.PendingInterval{},
	})
}

func (s *Server) stream(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	// Get stream
	st, ok := s.getStream(p.ByName("id"))
	if !ok {
		astisense.WriteHTTPError(rw, http.StatusNotFound, fmt.Errorf("astiserver: unknown stream %s", p.ByName("id")))
		return
	}

	// Get pending intervals
	st.m.Lock()
	is := st.s.Pending()
	st.m.Unlock()

	// Write
	astisense.WriteHTTPData(rw, Stream{
		ID:      p.ByName("id"),
		Pending: is,
	})
}

func (s *Server) addBatch(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	// Get stream
	st, ok := s.getStream(p.ByName("id"))
	if !ok {
		astisense.WriteHTTPError(rw, http.StatusNotFound, fmt.Errorf("astiserver: unknown stream %s", p.ByName("id")))
		return
	}

	// Parse body
	var b astisense.Batch
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		astisense.WriteHTTPError(rw, http.StatusBadRequest, errors.Wrap(err, "astiserver: parsing batch payload failed"))
		return
	}

	// Process
	st.m.Lock()
	text := st.s.ProcessBatch(b.Events, b.EndOfStream)
	st.m.Unlock()

	// Stream has ended
	if b.EndOfStream {
		s.delStream(p.ByName("id"))
	}

	// Write
	astisense.WriteHTTPData(rw, Text{Text: text})
}

func (s *Server) deleteStream(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	// Get stream
	st, ok := s.getStream(p.ByName("id"))
	if !ok {
		astisense.WriteHTTPError(rw, http.StatusNotFound, fmt.Errorf("astiserver: unknown stream %s", p.ByName("id")))
		return
	}

	// Flush
	st.m.Lock()
	text := st.s.Flush()
	st.m.Unlock()

	// Delete
	s.delStream(p.ByName("id"))

	// Write
	astisense.WriteHTTPData(rw, Text{Text: text})
}

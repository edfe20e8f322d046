package astiserver

import (
	"net/http"

	"github.com/asticode/go-astilog"
	"github.com/asticode/go-astisense"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

// handleWebsocket summarizes the batches sent by the client. The connection
// is a stream of its own and is closed once the end of the stream is reached.
func (s *Server) handleWebsocket(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {
	// Upgrade
	c, err := s.u.Upgrade(rw, r, nil)
	if err != nil {
		astilog.Error(errors.Wrap(err, "astiserver: upgrading connection failed"))
		return
	}
	defer c.Close()

	// Create stream
	id, st, err := s.newStream()
	if err != nil {
		astilog.Error(errors.Wrap(err, "astiserver: creating stream failed"))
		return
	}
	defer s.delStream(id)

	// Read
	for {
		// Read batch
		var b astisense.Batch
		if err = c.ReadJSON(&b); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				astilog.Error(errors.Wrapf(err, "astiserver: reading batch of stream %s failed", id))
			}
			return
		}

		// Process
		st.m.Lock()
		text := st.s.ProcessBatch(b.Events, b.EndOfStream)
		st.m.Unlock()

		// Write
		if text != "" {
			if err = c.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				astilog.Error(errors.Wrapf(err, "astiserver: writing text of stream %s failed", id))
				return
			}
		}

		// Stream has ended
		if b.EndOfStream {
			if err = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
				astilog.Error(errors.Wrapf(err, "astiserver: writing close message of stream %s failed", id))
			}
			return
		}
	}
}

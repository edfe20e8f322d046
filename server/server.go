package astiserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/asticode/go-astilog"
	"github.com/asticode/go-astisense/abbreviation"
	astihttp "github.com/asticode/go-astitools/http"
	astiworker "github.com/asticode/go-astitools/worker"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

// Server prefixes
const (
	apiPrefix = "/api"
)

type Options struct {
	Abbreviation astiabbreviation.Options `toml:"abbreviation"`
	Addr         string                   `toml:"addr"`
	Password     string                   `toml:"password"`
	Timeout      time.Duration            `toml:"timeout"`
	Username     string                   `toml:"username"`
}

// Server exposes summarizers over HTTP. Every stream gets its own summarizer.
type Server struct {
	ms *sync.Mutex // Locks ss
	o  Options
	ss map[string]*stream // Indexed by id
	u  websocket.Upgrader
}

type stream struct {
	m *sync.Mutex // Locks s
	s *astiabbreviation.Summarizer
}

// New creates a new server
func New(o Options) (s *Server, err error) {
	// Check abbreviation options
	if _, err = astiabbreviation.New(o.Abbreviation); err != nil {
		err = errors.Wrap(err, "astiserver: checking abbreviation options failed")
		return
	}

	// Create server
	s = &Server{
		ms: &sync.Mutex{},
		o:  o,
		ss: make(map[string]*stream),
		u: websocket.Upgrader{
			HandshakeTimeout: o.Timeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
	}
	return
}

// Handler returns the server's handler
func (s *Server) Handler() http.Handler {
	// Create router
	r := httprouter.New()

	// API
	r.GET(apiPrefix+"/ok", s.ok)
	r.POST(apiPrefix+"/streams", s.createStream)
	r.GET(apiPrefix+"/streams/:id", s.stream)
	r.DELETE(apiPrefix+"/streams/:id", s.deleteStream)
	r.POST(apiPrefix+"/streams/:id/batches", s.addBatch)

	// Websockets
	r.GET("/websocket", s.handleWebsocket)

	// Chain middlewares
	var h http.Handler = r
	if s.o.Username != "" && s.o.Password != "" {
		h = astihttp.ChainMiddlewares(h, astihttp.MiddlewareBasicAuth(s.o.Username, s.o.Password))
	}
	h = astihttp.ChainMiddlewaresWithPrefix(h, []string{apiPrefix + "/"}, astihttp.MiddlewareContentType("application/json"))
	return h
}

// Serve spawns the server in the worker
func (s *Server) Serve(w *astiworker.Worker) {
	astilog.Infof("astiserver: serving on %s", s.o.Addr)
	w.Serve(s.o.Addr, s.Handler())
}

func (s *Server) ok(rw http.ResponseWriter, r *http.Request, p httprouter.Params) {}

func (s *Server) newStream() (id string, st *stream, err error) {
	// Create summarizer
	var sm *astiabbreviation.Summarizer
	if sm, err = astiabbreviation.New(s.o.Abbreviation); err != nil {
		err = errors.Wrap(err, "astiserver: creating summarizer failed")
		return
	}

	// Create stream
	id = uuid.NewString()
	st = &stream{
		m: &sync.Mutex{},
		s: sm,
	}

	// Add stream
	s.ms.Lock()
	s.ss[id] = st
	s.ms.Unlock()
	astilog.Debugf("astiserver: stream %s has been created", id)
	return
}

func (s *Server) getStream(id string) (st *stream, ok bool) {
	s.ms.Lock()
	defer s.ms.Unlock()
	st, ok = s.ss[id]
	return
}

func (s *Server) delStream(id string) {
	s.ms.Lock()
	defer s.ms.Unlock()
	delete(s.ss, id)
	astilog.Debugf("astiserver: stream %s has been deleted", id)
}

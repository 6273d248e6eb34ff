/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cuehttp

import (
	"crypto/tls"
	"net"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrServerClosed is returned by Serve/Listen after a call to Stop or Shutdown.
var ErrServerClosed = errors.New("cuehttp: server closed")

// Option configures a Server at construction time.
type Option func(*Server)

// WithLogger overrides the zerolog.Logger the server and its connections
// log through. The default writes human-readable output to stderr.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithReadTimeout sets a read deadline of d after a connection is accepted.
// The deadline is set once per connection and is not renewed between
// requests. Zero means no limit.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.readTimeout = d }
}

// WithWriteTimeout sets a write deadline of d after a connection is
// accepted. The deadline is set once per connection and is not renewed
// between responses. Zero means no limit.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) { s.writeTimeout = d }
}

// WithTLSConfig enables TLS termination for Listen/Serve using cfg.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(s *Server) { s.tlsConfig = cfg }
}

// WithWebSocket attaches endpoint as the server's single WebSocket route;
// every successful upgrade registers its Conn with it.
func WithWebSocket(endpoint *Endpoint) Option {
	return func(s *Server) { s.ws = endpoint }
}

// Server holds the configuration and bookkeeping shared by every
// Connection it accepts: the middleware chain to run, optional per-phase
// timeouts, TLS settings, and the logger handed down to each connection.
type Server struct {
	handler Middleware
	chain   []Middleware
	logger  zerolog.Logger

	readTimeout  time.Duration
	writeTimeout time.Duration
	tlsConfig    *tls.Config

	ws *Endpoint

	mu       sync.Mutex
	listener net.Listener
	conns    map[*Connection]struct{}
	closing  bool
	doneCh   chan struct{}
}

// New builds a Server that runs chain (composed via Compose) for every
// request. With no middleware the server answers every request with its
// Response zero value (404 Not Found), matching spec.md §3's Response
// default.
func New(opts ...Option) *Server {
	s := &Server{
		handler: Compose(),
		logger:  zerolog.New(os.Stderr).With().Timestamp().Logger(),
		conns:   make(map[*Connection]struct{}),
		doneCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Use appends middleware to the server's chain, recomposing it. Later
// calls add to the end of the existing chain rather than replacing it.
func (s *Server) Use(mw ...Middleware) {
	s.chain = append(s.chain, mw...)
	s.handler = Compose(s.chain...)
}

// WS returns the server's WebSocket endpoint, creating one on first use.
func (s *Server) WS() *Endpoint {
	if s.ws == nil {
		s.ws = NewEndpoint()
	}
	return s.ws
}

// Listen binds addr (":8080"-style) and starts accepting connections. It
// returns once the listener is closed, either by Stop or by a fatal
// Accept error.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "cuehttp: listen")
	}
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	return s.Serve(ln)
}

// Serve accepts connections off ln until Stop is called or Accept fails.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	for {
		nc, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return ErrServerClosed
			}
			return errors.Wrap(err, "cuehttp: accept")
		}
		c := newConnection(nc, s)
		s.trackConn(c, true)
		go func() {
			defer s.trackConn(c, false)
			s.applyDeadlines(nc)
			c.Serve()
		}()
	}
}

func (s *Server) applyDeadlines(nc net.Conn) {
	if s.readTimeout > 0 {
		nc.SetReadDeadline(time.Now().Add(s.readTimeout))
	}
	if s.writeTimeout > 0 {
		nc.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
}

func (s *Server) trackConn(c *Connection, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
		return
	}
	delete(s.conns, c)
	if s.closing && len(s.conns) == 0 {
		close(s.doneCh)
	}
}

// Stop closes the listener and every currently open connection. It does
// not wait for in-flight handlers to finish; callers that need a graceful
// drain should use Shutdown.
func (s *Server) Stop() error {
	s.mu.Lock()
	s.closing = true
	ln := s.listener
	conns := make([]*Connection, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for _, c := range conns {
		c.conn.Close()
	}
	return err
}

// Shutdown closes the listener and returns at once with a channel that is
// closed when every active connection has finished. It does not block; a
// caller that wants a deadline selects on the channel and its own timer.
func (s *Server) Shutdown() <-chan struct{} {
	s.mu.Lock()
	s.closing = true
	ln := s.listener
	empty := len(s.conns) == 0
	s.mu.Unlock()

	if ln != nil {
		ln.Close()
	}
	if empty {
		select {
		case <-s.doneCh:
		default:
			close(s.doneCh)
		}
	}
	return s.doneCh
}

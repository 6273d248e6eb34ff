/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cuehttp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/badu/cuehttp/hdr"
	"github.com/badu/cuehttp/internal/parser"
	"github.com/badu/cuehttp/url"
)

// Connection is the per-socket actor: it owns the parser instance, runs
// the read/parse/dispatch/write loop described in spec.md §4.2, and, once
// upgraded, becomes a WebSocket peer over the same net.Conn.
type Connection struct {
	srv  *Server
	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer
	log  zerolog.Logger

	p *parser.Parser

	req  *Request
	resp *Response
	ctx  *Context

	curField    string
	urlBuf      bytes.Buffer
	messageDone bool

	ws *Conn // non-nil once this connection has upgraded
}

func newConnection(nc net.Conn, srv *Server) *Connection {
	c := &Connection{
		srv:  srv,
		conn: nc,
		br:   bufio.NewReaderSize(nc, 4096),
		bw:   bufio.NewWriterSize(nc, 4096),
		log:  srv.logger.With().Str("remote", nc.RemoteAddr().String()).Logger(),
	}
	c.req = &Request{Header: hdr.NewHeader()}
	c.resp = newResponse(c.req)
	c.ctx = newContext(c.req, c.resp, c)
	c.p = parser.New(parser.KindRequest, false)
	c.wireCallbacks()
	return c
}

// wireCallbacks binds the parser's event table to Connection's in-progress
// Request, the one place parser events and Request fields meet.
func (c *Connection) wireCallbacks() {
	c.p.OnMessageBegin = func() parser.CBResult {
		return parser.CBOK
	}
	c.p.OnURL = func(b []byte) parser.CBResult {
		c.urlBuf.Write(b)
		return parser.CBOK
	}
	c.p.OnHeaderField = func(b []byte) parser.CBResult {
		c.curField = string(b)
		return parser.CBOK
	}
	c.p.OnHeaderValue = func(b []byte) parser.CBResult {
		c.req.Header.Add(c.curField, string(b))
		return parser.CBOK
	}
	c.p.OnHeadersComplete = func() parser.CBResult {
		c.req.Method = c.p.Method()
		c.req.ProtoMajor, c.req.ProtoMinor = c.p.HTTPVersion()
		c.req.RawURL = c.urlBuf.String()
		if u, err := url.ParseRequestURI(c.req.RawURL); err == nil {
			c.req.URL = u
		} else if c.req.Method == "CONNECT" {
			if _, _, ok := url.ConnectTarget(c.req.RawURL); !ok {
				return parser.CBError
			}
		}
		if cl, ok := c.p.ContentLength(); ok {
			c.req.ContentLength = int64(cl)
		}
		c.req.IsWebSocket = isWebSocketUpgrade(c.req.Header)
		c.req.KeepAlive = computeKeepAlive(c.req.ProtoMajor, c.req.ProtoMinor, c.p)
		c.resp.ProtoMajor, c.resp.ProtoMinor = c.req.ProtoMajor, c.req.ProtoMinor
		c.resp.KeepAlive = c.req.KeepAlive
		return parser.CBOK
	}
	c.p.OnBody = func(b []byte) parser.CBResult {
		c.req.Body = append(c.req.Body, b...)
		return parser.CBOK
	}
	c.p.OnMessageComplete = func() parser.CBResult {
		c.messageDone = true
		return parser.CBOK
	}
}

// Serve runs the connection's full lifetime: request/response cycles while
// keep-alive holds, then (if upgraded) the WebSocket frame loop, then close.
func (c *Connection) Serve() {
	defer c.close()
	buf := make([]byte, 4096)
	for {
		n, err := c.br.Read(buf)
		if err != nil {
			if err != io.EOF {
				c.log.Debug().Err(err).Msg(errConnectionClosed.Error())
			}
			c.p.Finish()
			return
		}
		consumed := 0
		for consumed < n {
			k, res, perr := c.p.Execute(buf[consumed:n])
			consumed += k
			if perr != nil {
				c.writeBadRequest(perr)
				return
			}
			if res == parser.ResultPausedUpgrade {
				c.req.Method = c.p.Method()
				if c.dispatchUpgrade() {
					c.ws = c.ctx.ws
					c.serveWebSocket()
				}
				return
			}
			if c.messageDone {
				keepGoing := c.dispatchAndRespond()
				if !keepGoing {
					return
				}
				c.resetForNextRequest()
			}
		}
	}
}

func (c *Connection) dispatchAndRespond() bool {
	func() {
		defer func() { recover() }() // Throw/Assert or a middleware bug never crashes the loop
		Run(c.srv.handler, c.ctx)
	}()
	if err := c.writeResponse(); err != nil {
		return false
	}
	return c.resp.KeepAlive
}

// dispatchUpgrade runs the handler chain exactly like a normal request —
// a route calls ctx.Upgrade() itself to decide whether to accept the
// handshake — then writes whatever response the chain produced. It
// switches the connection into the WebSocket frame loop only if the
// chain left the response at 101 with a Conn actually attached.
func (c *Connection) dispatchUpgrade() bool {
	func() {
		defer func() { recover() }()
		Run(c.srv.handler, c.ctx)
	}()
	if err := c.writeResponse(); err != nil {
		return false
	}
	return c.resp.StatusCode == 101 && c.ctx.ws != nil
}

func (c *Connection) writeResponse() error {
	if c.resp.Committed {
		if c.resp.sink != nil {
			return c.resp.sink.Close()
		}
		return nil
	}
	cookies := c.ctx.Cookies().All()
	if err := c.resp.writeHeader(c.bw, c.resp.KeepAlive, cookies); err != nil {
		return err
	}
	if c.resp.sink == nil {
		if _, err := c.bw.Write(c.resp.Body); err != nil {
			return err
		}
	}
	return c.bw.Flush()
}

func (c *Connection) writeBadRequest(perr *parser.Error) {
	c.log.Debug().Str("kind", perr.Kind.String()).Msg("parse error")
	fmt.Fprintf(c.bw, "HTTP/1.1 400 %s\r\nConnection: close\r\nContent-Length: 0\r\n\r\n", StatusText(400))
	c.bw.Flush()
}

func (c *Connection) resetForNextRequest() {
	c.req.reset()
	c.resp.reset(c.req)
	c.ctx.reset(c.req, c.resp)
	c.urlBuf.Reset()
	c.curField = ""
	c.messageDone = false
	c.p.Reset()
}

func (c *Connection) close() {
	if c.ws != nil {
		c.ws.handleClose()
	}
	c.conn.Close()
}

// openChunkSink builds the chunkSink used once a handler calls ctx.Chunked().
// The header is committed immediately so the chunk stream can start as soon
// as the handler begins flushing.
func (c *Connection) openChunkSink(resp *Response) chunkSink {
	resp.Committed = true
	if err := resp.writeHeader(c.bw, resp.KeepAlive, c.ctx.Cookies().All()); err != nil {
		return &errSink{err: err}
	}
	return &chunkWriter{w: c.bw}
}

type errSink struct{ err error }

func (s *errSink) Write(p []byte) (int, error) { return 0, s.err }
func (s *errSink) Flush() error                { return s.err }
func (s *errSink) Close() error                { return s.err }

// chunkWriter frames each Flush as hex(len) CRLF payload CRLF, per spec.md
// §4.6, buffering writes between flushes.
type chunkWriter struct {
	w   *bufio.Writer
	buf bytes.Buffer
}

func (cw *chunkWriter) Write(p []byte) (int, error) { return cw.buf.Write(p) }

func (cw *chunkWriter) Flush() error {
	if cw.buf.Len() == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(cw.w, "%s\r\n", strconv.FormatInt(int64(cw.buf.Len()), 16)); err != nil {
		return err
	}
	if _, err := cw.w.Write(cw.buf.Bytes()); err != nil {
		return err
	}
	cw.buf.Reset()
	if _, err := cw.w.WriteString("\r\n"); err != nil {
		return err
	}
	return cw.w.Flush()
}

func (cw *chunkWriter) Close() error {
	if err := cw.Flush(); err != nil {
		return err
	}
	if _, err := cw.w.WriteString("0\r\n\r\n"); err != nil {
		return err
	}
	return cw.w.Flush()
}

// isWebSocketUpgrade reports whether the request carries the handshake's
// required Upgrade/Connection tokens (RFC 6455 §4.2.1).
func isWebSocketUpgrade(h hdr.Header) bool {
	return hasToken(h.Get(hdr.UpgradeHeader), "websocket") && hasToken(h.Get(hdr.Connection), "upgrade")
}

// computeKeepAlive applies spec.md §3's rule: HTTP/1.1 unless explicit
// Connection: close; HTTP/1.0 only with explicit Connection: keep-alive.
func computeKeepAlive(major, minor int, p *parser.Parser) bool {
	if p.ConnectionClose() {
		return false
	}
	if major == 1 && minor == 1 {
		return true
	}
	return p.ConnectionKeepAlive()
}

var errConnectionClosed = errors.New("cuehttp: connection closed")

/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cuehttp

import (
	"github.com/badu/cuehttp/cookie"
	"github.com/badu/cuehttp/hdr"
)

// Session is the interface a session collaborator attaches to Context.
// The core never implements it; it only stores and forwards calls.
type Session interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Destroy()
}

// Context aggregates one Request, one Response, and the cookie jar shared
// between them, for the lifetime of a single request (or, after a
// successful upgrade, the lifetime of the WebSocket connection it seeded).
type Context struct {
	Req  *Request
	Resp *Response

	cookies *cookie.Jar

	session Session
	ws      *Conn

	conn *Connection
}

func newContext(req *Request, resp *Response, conn *Connection) *Context {
	return &Context{Req: req, Resp: resp, conn: conn}
}

// NewContext builds a Context with no owning Connection, for middleware
// unit tests that exercise request/response/cookie/session behavior
// without a live socket. Chunked will panic if called on a Context built
// this way, since there is no Connection to open a chunk sink.
func NewContext(req *Request, resp *Response) *Context {
	return newContext(req, resp, nil)
}

func (ctx *Context) reset(req *Request, resp *Response) {
	ctx.Req = req
	ctx.Resp = resp
	ctx.cookies = nil
	ctx.session = nil
	ctx.ws = nil
}

// --- request accessors ---

func (ctx *Context) Method() string        { return ctx.Req.Method }
func (ctx *Context) URLString() string     { return ctx.Req.RawURL }
func (ctx *Context) Path() string          { return ctx.Req.Path() }
func (ctx *Context) QueryString() string   { return ctx.Req.QueryString() }
func (ctx *Context) Host() string          { return ctx.Req.Host() }
func (ctx *Context) Hostname() string      { return ctx.Req.Hostname() }
func (ctx *Context) Get(field string) string { return ctx.Req.Get(field) }
func (ctx *Context) Headers() hdr.Header   { return ctx.Req.Header }

// Origin and Href assume a plaintext listener unless overridden by a
// reverse-proxy-aware middleware that rewrites Req.Header beforehand.
func (ctx *Context) Origin() string { return ctx.Req.Origin("http") }
func (ctx *Context) Href() string   { return ctx.Req.Href("http") }

// --- response mutators ---

func (ctx *Context) Status(code int)          { ctx.Resp.StatusCode = code }
func (ctx *Context) StatusCode() int          { return ctx.Resp.StatusCode }
func (ctx *Context) Set(field, value string)  { ctx.Resp.Set(field, value) }
func (ctx *Context) Remove(field string)      { ctx.Resp.Remove(field) }
func (ctx *Context) Type(contentType string)  { ctx.Resp.Type(contentType) }
func (ctx *Context) Length(n int64)           { ctx.Resp.Length(n) }

// Body sets the buffered response body. Calling it after Chunked has
// committed the response to streaming mode is a programming error; the
// core does not guard against it, matching spec.md's "mutually exclusive"
// invariant being the caller's responsibility to respect.
func (ctx *Context) Body(b []byte) { ctx.Resp.Body = b }

// BodyBytes returns the response's buffered body, for collaborators (gzip)
// that rewrite it after next() returns.
func (ctx *Context) BodyBytes() []byte { return ctx.Resp.dumpBody() }

// Chunked commits the response to streamed mode and returns the sink
// middleware should write flushed blocks to. Calling it twice returns the
// same sink.
func (ctx *Context) Chunked() chunkSink {
	if ctx.Resp.sink == nil {
		ctx.Resp.sink = ctx.conn.openChunkSink(ctx.Resp)
	}
	return ctx.Resp.sink
}

// Redirect sets Location and status (301 if status is 0).
func (ctx *Context) Redirect(location string, status int) {
	if status == 0 {
		status = 301
	}
	ctx.Set(hdr.Location, location)
	ctx.Status(status)
}

// Throw aborts the request with the given status and a plain-text body,
// meant to be paired with a recover-based top-level middleware.
func (ctx *Context) Throw(status int, message string) {
	ctx.Status(status)
	if message == "" {
		message = StatusText(status)
	}
	ctx.Type("text/plain; charset=utf-8")
	ctx.Body([]byte(message))
	panic(&httpError{status: status, message: message})
}

// Assert calls Throw unless cond is true.
func (ctx *Context) Assert(cond bool, status int, message string) {
	if !cond {
		ctx.Throw(status, message)
	}
}

// httpError is the panic value Throw raises; Recover unwraps it.
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string { return e.message }

// Recover is a top-level Middleware that turns a Throw/Assert panic (or
// any other panic) into a response instead of propagating it to Connection.
func Recover(onPanic func(ctx *Context, recovered any)) Middleware {
	return func(ctx *Context, next Next) {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(*httpError); !ok && onPanic != nil {
					onPanic(ctx, r)
				}
			}
		}()
		next()
	}
}

// --- cookies ---

// Cookies returns the jar shared by Request and Response, lazily parsing
// the inbound Cookie header on first access.
func (ctx *Context) Cookies() *cookie.Jar {
	if ctx.cookies == nil {
		ctx.cookies = cookie.NewJar()
		if h := ctx.Req.Header.Get(hdr.CookieHeader); h != "" {
			ctx.cookies.LoadHeader(h)
		}
	}
	return ctx.cookies
}

// SetCookie queues c to be emitted as a Set-Cookie header.
func (ctx *Context) SetCookie(c cookie.Cookie) { ctx.Cookies().Set(c) }

// --- session ---

// Session returns the Session attached by a session middleware, or nil.
func (ctx *Context) Session() Session { return ctx.session }

// SetSession attaches s, called by the session middleware after it
// resolves (or creates) the session for this request.
func (ctx *Context) SetSession(s Session) { ctx.session = s }

// --- websocket ---

// WebSocket returns the Conn established by a prior successful upgrade on
// this connection, or nil if none occurred.
func (ctx *Context) WebSocket() *Conn { return ctx.ws }

// Upgrade validates the current request as a WebSocket handshake and, if
// valid, commits the response to status 101 with the required
// Upgrade/Connection/Sec-WebSocket-Accept headers and attaches a Conn a
// route handler can subscribe to before returning. A handler calls this
// from within its own route (mirroring the original's ctx.websocket()),
// so it alone decides whether a given path accepts upgrades; Connection
// only switches into the WebSocket frame loop if this returned true and
// the response is still at 101 once the handler chain finishes.
func (ctx *Context) Upgrade() (*Conn, bool) {
	if !ctx.Req.IsWebSocket {
		return nil, false
	}
	accept, ok := Accept(ctx.Req.Header)
	if !ok {
		return nil, false
	}
	ctx.Status(101)
	ctx.Set(hdr.UpgradeHeader, "WebSocket")
	ctx.Set(hdr.Connection, "Upgrade")
	ctx.Set(hdr.SecWebSocketAccept, accept)
	ctx.ws = newConn(ctx.conn)
	return ctx.ws, true
}

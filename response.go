/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cuehttp

import (
	"fmt"
	"io"
	"strconv"

	"github.com/badu/cuehttp/cookie"
	"github.com/badu/cuehttp/hdr"
)

// chunkSink is the append-only byte sink a streamed Response writes
// through: each Flush is a chunk boundary, and Close writes the
// terminating zero-length chunk. Connection supplies the concrete
// implementation that frames onto the socket.
type chunkSink interface {
	io.Writer
	Flush() error
	Close() error
}

// Response is the accumulator mutated by middleware and serialised by
// Connection. It starts out 404/"Not Found" per spec, mirroring the
// request's protocol version, and is either buffered (body in Body) or
// streamed (sink non-nil, Transfer-Encoding: chunked).
type Response struct {
	ProtoMajor int
	ProtoMinor int
	StatusCode int
	Header     hdr.Header
	Body       []byte
	KeepAlive  bool
	Committed  bool

	sink chunkSink
}

func newResponse(req *Request) *Response {
	return &Response{
		ProtoMajor: req.ProtoMajor,
		ProtoMinor: req.ProtoMinor,
		StatusCode: 404,
		Header:     hdr.NewHeader(),
		KeepAlive:  req.KeepAlive,
	}
}

// NewResponse builds the default 404 Response for req, for collaborator
// packages' tests that need to pair it with NewContext outside package cuehttp.
func NewResponse(req *Request) *Response { return newResponse(req) }

func (r *Response) reset(req *Request) {
	r.ProtoMajor = req.ProtoMajor
	r.ProtoMinor = req.ProtoMinor
	r.StatusCode = 404
	r.Header = hdr.NewHeader()
	r.Body = nil
	r.KeepAlive = req.KeepAlive
	r.Committed = false
	r.sink = nil
}

// Proto renders the response's declared version, mirrored from Request.
func (r *Response) Proto() string {
	if r.ProtoMajor == 1 && r.ProtoMinor == 0 {
		return "HTTP/1.0"
	}
	return "HTTP/1.1"
}

// Set sets a single header value, replacing any existing ones.
func (r *Response) Set(field, value string) { r.Header.Set(field, value) }

// Add appends a header value without clearing existing ones.
func (r *Response) Add(field, value string) { r.Header.Add(field, value) }

// Remove deletes a header field entirely.
func (r *Response) Remove(field string) { r.Header.Del(field) }

// Type sets Content-Type.
func (r *Response) Type(contentType string) { r.Set(hdr.ContentType, contentType) }

// Length sets Content-Length explicitly (normally computed from Body).
func (r *Response) Length(n int64) { r.Set(hdr.ContentLength, strconv.FormatInt(n, 10)) }

// Streaming reports whether the response has committed to chunked mode.
func (r *Response) Streaming() bool { return r.sink != nil }

// dumpBody returns the buffered body bytes, for collaborators (gzip) that
// need to rewrite a response after the handler chain has already run.
func (r *Response) dumpBody() []byte { return r.Body }

// writeHeader serialises the status line and headers (including every
// accumulated Set-Cookie, Content-Length/Transfer-Encoding, Server, and
// Connection) to w. Callers pass the final keep-alive decision and the
// outbound cookies accumulated on the owning Context.
func (r *Response) writeHeader(w io.Writer, keepAlive bool, outboundCookies []cookie.Cookie) error {
	text := statusText[r.StatusCode]
	if _, err := fmt.Fprintf(w, "%s %03d %s\r\n", r.Proto(), r.StatusCode, text); err != nil {
		return err
	}
	if r.Header.Get(hdr.ServerHeader) == "" {
		r.Header.Set(hdr.ServerHeader, "cuehttp")
	}
	// A 101 response is a protocol switch, not a message with its own
	// framing: Content-Length/Connection belong to the HTTP semantics it
	// is leaving behind, so skip them the way the handshake response in
	// spec.md §4.5 has no use for either.
	if r.StatusCode != 101 {
		if r.sink != nil {
			r.Header.Del(hdr.ContentLength)
			r.Header.Set(hdr.TransferEncoding, "chunked")
		} else if r.Header.Get(hdr.ContentLength) == "" {
			r.Header.Set(hdr.ContentLength, strconv.Itoa(len(r.Body)))
		}
		if keepAlive {
			r.Header.Set(hdr.Connection, "keep-alive")
		} else {
			r.Header.Set(hdr.Connection, "close")
		}
	}
	for _, c := range outboundCookies {
		if c.Valid() {
			r.Header.Add(hdr.SetCookieHeader, c.String())
		}
	}
	if err := r.Header.Write(w); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cuehttp

import (
	"strings"

	"github.com/badu/cuehttp/hdr"
	"github.com/badu/cuehttp/url"
)

// Request is the accumulator object filled by the wire parser and read by
// middleware. It is owned by Connection and reset (not reallocated)
// between requests on a kept-alive socket.
type Request struct {
	Method        string
	RawURL        string
	URL           *url.URL
	ProtoMajor    int
	ProtoMinor    int
	Header        hdr.Header
	ContentLength int64
	KeepAlive     bool
	IsWebSocket   bool
	Body          []byte
}

// reset clears r in place so Connection can reuse it for the next request
// on a keep-alive socket without a fresh allocation.
func (r *Request) reset() {
	r.Method = ""
	r.RawURL = ""
	r.URL = nil
	r.ProtoMajor = 0
	r.ProtoMinor = 0
	r.Header = hdr.NewHeader()
	r.ContentLength = 0
	r.KeepAlive = false
	r.IsWebSocket = false
	r.Body = nil
}

// Proto renders the request's declared version, e.g. "HTTP/1.1".
func (r *Request) Proto() string {
	switch {
	case r.ProtoMajor == 1 && r.ProtoMinor == 0:
		return "HTTP/1.0"
	default:
		return "HTTP/1.1"
	}
}

// Get returns the first value of header field, canonicalizing the key.
func (r *Request) Get(field string) string { return r.Header.Get(field) }

// Host returns the request's Host header, or the URL's host if absent.
func (r *Request) Host() string {
	if h := r.Header.Get(hdr.Host); h != "" {
		return h
	}
	if r.URL != nil {
		return r.URL.Host
	}
	return ""
}

// Hostname returns Host with any trailing ":port" stripped.
func (r *Request) Hostname() string {
	h := r.Host()
	if i := strings.LastIndexByte(h, ':'); i >= 0 && !strings.Contains(h[i:], "]") {
		return h[:i]
	}
	return h
}

// Path returns the request-target's decoded path component.
func (r *Request) Path() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Path
}

// QueryString returns the raw (undecoded) query component.
func (r *Request) QueryString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.RawQuery
}

// Query parses QueryString into a Values map.
func (r *Request) Query() (url.Values, error) {
	if r.URL == nil {
		return url.Values{}, nil
	}
	return url.ParseQuery(r.URL.RawQuery)
}

// Origin returns "<scheme>://<host>" inferred from the request (scheme is
// "http" unless a reverse-proxy header says otherwise; this core never
// terminates TLS itself for plaintext requests, so the caller that knows
// the listener's scheme should override via Context when needed).
func (r *Request) Origin(scheme string) string {
	return scheme + "://" + r.Host()
}

// Href returns Origin+RawURL.
func (r *Request) Href(scheme string) string {
	return r.Origin(scheme) + r.RawURL
}

// Type returns the media type portion of Content-Type, without parameters.
func (r *Request) Type() string {
	ct := r.Header.Get(hdr.ContentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// Charset returns the charset parameter of Content-Type, lowercased.
func (r *Request) Charset() string {
	ct := r.Header.Get(hdr.ContentType)
	const key = "charset="
	if i := strings.Index(strings.ToLower(ct), key); i >= 0 {
		v := ct[i+len(key):]
		if j := strings.IndexByte(v, ';'); j >= 0 {
			v = v[:j]
		}
		return strings.ToLower(strings.TrimSpace(v))
	}
	return ""
}

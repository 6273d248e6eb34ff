/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/badu/cuehttp"
	"github.com/badu/cuehttp/cookie"
)

// CookieName is the default name of the cookie carrying the session id.
const CookieName = "cuehttp.sid"

// handle is the cuehttp.Session implementation attached to Context. It
// lazily loads from the store on first Get and marks itself dirty on Set
// so the middleware only writes back sessions that were actually touched.
type handle struct {
	store   Store
	key     string
	maxAge  time.Duration
	data    map[string]string
	loaded  bool
	dirty   bool
	destroy bool
}

func (h *handle) load() {
	if h.loaded {
		return
	}
	h.loaded = true
	if data, ok := h.store.Get(h.key); ok {
		h.data = data
	} else {
		h.data = make(map[string]string)
	}
}

func (h *handle) Get(key string) (string, bool) {
	h.load()
	v, ok := h.data[key]
	return v, ok
}

func (h *handle) Set(key, value string) {
	h.load()
	h.data[key] = value
	h.dirty = true
}

func (h *handle) Destroy() {
	h.load()
	h.data = make(map[string]string)
	h.destroy = true
}

// Options configures the session middleware.
type Options struct {
	// CookieName defaults to CookieName when empty.
	CookieName string
	// MaxAge is the session cookie and store TTL; zero means no explicit
	// expiry (session cookie, store default retention).
	MaxAge time.Duration
}

// Middleware returns a cuehttp.Middleware that attaches a lazily-loaded
// Session to ctx (via Context.SetSession), reading the session id from a
// cookie (minting one with uuid.NewString if absent) and committing any
// mutation back to store after next() returns.
func Middleware(store Store, opts Options) cuehttp.Middleware {
	cookieName := opts.CookieName
	if cookieName == "" {
		cookieName = CookieName
	}
	return func(ctx *cuehttp.Context, next cuehttp.Next) {
		jar := ctx.Cookies()
		key := jar.Get(cookieName)
		minted := key == ""
		if minted {
			key = uuid.NewString()
		}

		h := &handle{store: store, key: key, maxAge: opts.MaxAge}
		ctx.SetSession(h)

		if minted {
			c := cookie.New(cookieName, key)
			c.HTTPOnly = true
			c.Path = "/"
			if opts.MaxAge > 0 {
				c.MaxAge = int(opts.MaxAge / time.Second)
			}
			ctx.SetCookie(c)
		}

		next()

		switch {
		case h.destroy:
			store.Destroy(key)
		case h.dirty:
			store.Set(key, h.data, opts.MaxAge)
		}
	}
}

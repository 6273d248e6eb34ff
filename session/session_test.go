/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/badu/cuehttp"
	"github.com/badu/cuehttp/hdr"
	"github.com/badu/cuehttp/session"
)

func newTestContext(cookieHeader string) *cuehttp.Context {
	req := &cuehttp.Request{Method: "GET", RawURL: "/", Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1}
	if cookieHeader != "" {
		req.Header.Set(hdr.CookieHeader, cookieHeader)
	}
	resp := cuehttp.NewResponse(req)
	return cuehttp.NewContext(req, resp)
}

func TestLRUStoreGetSetDestroy(t *testing.T) {
	store, err := session.NewLRUStore(8)
	require.NoError(t, err)

	_, ok := store.Get("missing")
	require.False(t, ok)

	require.NoError(t, store.Set("k1", map[string]string{"a": "1"}, 0))
	data, ok := store.Get("k1")
	require.True(t, ok)
	require.Equal(t, "1", data["a"])

	require.NoError(t, store.Destroy("k1"))
	_, ok = store.Get("k1")
	require.False(t, ok)
}

func TestMiddlewareMintsCookieWhenAbsent(t *testing.T) {
	store, err := session.NewLRUStore(8)
	require.NoError(t, err)

	mw := session.Middleware(store, session.Options{})
	ctx := newTestContext("")
	cuehttp.Run(mw, ctx)

	cookies := ctx.Cookies().All()
	require.Len(t, cookies, 1)
	require.Contains(t, cookies[0].String(), session.CookieName+"=")
}

func TestMiddlewareReusesExistingCookie(t *testing.T) {
	store, err := session.NewLRUStore(8)
	require.NoError(t, err)
	require.NoError(t, store.Set("existing-id", map[string]string{"name": "gopher"}, 0))

	mw := session.Middleware(store, session.Options{})
	var got string
	var ok bool
	chain := cuehttp.Compose(mw, func(ctx *cuehttp.Context, next cuehttp.Next) {
		got, ok = ctx.Session().Get("name")
		next()
	})

	ctx := newTestContext(session.CookieName + "=existing-id")
	cuehttp.Run(chain, ctx)

	require.True(t, ok)
	require.Equal(t, "gopher", got)
	require.Empty(t, ctx.Cookies().All(), "no new cookie should be minted for an existing session id")
}

func TestMiddlewareCommitsDirtySessionAfterNext(t *testing.T) {
	store, err := session.NewLRUStore(8)
	require.NoError(t, err)

	mw := session.Middleware(store, session.Options{})
	chain := cuehttp.Compose(mw, func(ctx *cuehttp.Context, next cuehttp.Next) {
		ctx.Session().Set("visits", "1")
		next()
	})

	ctx := newTestContext("")
	cuehttp.Run(chain, ctx)

	cookieVal := ctx.Cookies().All()[0].String()
	sessionID := cookieVal[len(session.CookieName)+1 : len(cookieVal)]
	if i := indexOf(sessionID, ';'); i >= 0 {
		sessionID = sessionID[:i]
	}

	data, ok := store.Get(sessionID)
	require.True(t, ok)
	require.Equal(t, "1", data["visits"])
}

func TestMiddlewareDestroyRemovesFromStore(t *testing.T) {
	store, err := session.NewLRUStore(8)
	require.NoError(t, err)
	require.NoError(t, store.Set("to-destroy", map[string]string{"x": "y"}, 0))

	mw := session.Middleware(store, session.Options{})
	chain := cuehttp.Compose(mw, func(ctx *cuehttp.Context, next cuehttp.Next) {
		ctx.Session().Destroy()
		next()
	})

	ctx := newTestContext(session.CookieName + "=to-destroy")
	cuehttp.Run(chain, ctx)

	_, ok := store.Get("to-destroy")
	require.False(t, ok)
}

func indexOf(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cuehttp

// Next is the continuation passed to a Middleware. Calling it invokes the
// remainder of the chain; it is a no-op once the chain is exhausted. A
// handler may call Next zero times (short-circuit) or once; calling it
// more than once has no further effect beyond the first call's return.
type Next func()

// Middleware is one link in the onion-model chain: it receives the shared
// Context and a continuation, and decides whether (and when) to invoke it.
type Middleware func(ctx *Context, next Next)

// HandlerFunc is a terminal handler shape with no continuation parameter.
// Adapt wraps it into a Middleware that calls next automatically.
type HandlerFunc func(ctx *Context)

// Adapt turns a HandlerFunc into a Middleware that invokes next after the
// handler returns, so terminal handlers compose transparently with
// continuation-taking ones.
func Adapt(h HandlerFunc) Middleware {
	return func(ctx *Context, next Next) {
		h(ctx)
		next()
	}
}

// Compose builds a single Middleware out of an ordered chain, running each
// handler onion-style: code before a handler's next() call runs in chain
// order, code after runs in reverse order as each next() returns.
func Compose(chain ...Middleware) Middleware {
	if len(chain) == 0 {
		return func(ctx *Context, next Next) { next() }
	}
	return func(ctx *Context, next Next) {
		var dispatch func(i int)
		dispatch = func(i int) {
			if i >= len(chain) {
				next()
				return
			}
			called := false
			chain[i](ctx, func() {
				if called {
					return
				}
				called = true
				dispatch(i + 1)
			})
		}
		dispatch(0)
	}
}

// Run executes a composed Middleware chain against ctx with a no-op final
// continuation, the entry point Connection uses to dispatch one request.
func Run(mw Middleware, ctx *Context) {
	mw(ctx, func() {})
}

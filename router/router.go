/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package router implements the exact METHOD+PREFIX+PATH routing table:
// no wildcards, no parameter extraction, a single map lookup per request.
package router

import (
	"github.com/badu/cuehttp"
)

const (
	MethodDelete = "DELETE"
	MethodGet    = "GET"
	MethodHead   = "HEAD"
	MethodPost   = "POST"
	MethodPut    = "PUT"
)

var allMethods = []string{MethodDelete, MethodGet, MethodHead, MethodPost, MethodPut}

// Router builds a hash map keyed by the literal string METHOD+PREFIX+PATH,
// where each key maps to a middleware chain composed at registration time.
// Installed as a middleware, it only claims a request when nothing earlier
// in the chain has (ctx.StatusCode() == 404, the Response's default).
type Router struct {
	prefix string
	routes map[string]cuehttp.Middleware
}

// New returns an empty Router. opts are applied in order, so Prefix should
// normally be the first option passed.
func New(opts ...Option) *Router {
	r := &Router{routes: make(map[string]cuehttp.Middleware)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option configures a Router at construction time.
type Option func(*Router)

// Prefix sets the string prepended to every route's path before it's
// stored in the lookup key, grounded on the original's router.hpp
// `prefix_` member.
func Prefix(p string) Option {
	return func(r *Router) { r.prefix = p }
}

func (r *Router) key(method, path string) string {
	return method + r.prefix + path
}

// register composes handlers and stores the chain under method+prefix+path.
func (r *Router) register(method, path string, handlers ...cuehttp.Middleware) {
	r.routes[r.key(method, path)] = cuehttp.Compose(handlers...)
}

// Del registers handlers for DELETE path.
func (r *Router) Del(path string, handlers ...cuehttp.Middleware) {
	r.register(MethodDelete, path, handlers...)
}

// Get registers handlers for GET path.
func (r *Router) Get(path string, handlers ...cuehttp.Middleware) {
	r.register(MethodGet, path, handlers...)
}

// Head registers handlers for HEAD path.
func (r *Router) Head(path string, handlers ...cuehttp.Middleware) {
	r.register(MethodHead, path, handlers...)
}

// Post registers handlers for POST path.
func (r *Router) Post(path string, handlers ...cuehttp.Middleware) {
	r.register(MethodPost, path, handlers...)
}

// Put registers handlers for PUT path.
func (r *Router) Put(path string, handlers ...cuehttp.Middleware) {
	r.register(MethodPut, path, handlers...)
}

// All registers the same chain under DELETE, GET, HEAD, POST, and PUT.
func (r *Router) All(path string, handlers ...cuehttp.Middleware) {
	for _, m := range allMethods {
		r.register(m, path, handlers...)
	}
}

// Redirect registers an All route that sets Location and status (301 if
// status is 0) for every method.
func (r *Router) Redirect(path, destination string, status int) {
	if status == 0 {
		status = 301
	}
	r.All(path, func(ctx *cuehttp.Context, next cuehttp.Next) {
		ctx.Redirect(destination, status)
		next()
	})
}

// Routes returns the Router as installable Middleware. It runs the
// matching chain on an exact METHOD+PREFIX+PATH hit, and otherwise calls
// next unchanged — it only ever claims a request left at the Response's
// default 404, never one a prior middleware already answered.
func (r *Router) Routes() cuehttp.Middleware {
	return func(ctx *cuehttp.Context, next cuehttp.Next) {
		if ctx.StatusCode() != 404 {
			next()
			return
		}
		chain, ok := r.routes[ctx.Method()+r.prefix+ctx.Path()]
		if !ok {
			next()
			return
		}
		chain(ctx, next)
	}
}

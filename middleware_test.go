/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cuehttp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/badu/cuehttp/hdr"
)

func newTestContext() *Context {
	req := &Request{Method: "GET", RawURL: "/", Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1}
	resp := newResponse(req)
	return NewContext(req, resp)
}

func TestComposeOnionOrder(t *testing.T) {
	var trace []string
	mw := func(name string) Middleware {
		return func(ctx *Context, next Next) {
			trace = append(trace, "before:"+name)
			next()
			trace = append(trace, "after:"+name)
		}
	}
	chain := Compose(mw("a"), mw("b"), mw("c"))
	Run(chain, newTestContext())

	require.Equal(t, []string{
		"before:a", "before:b", "before:c",
		"after:c", "after:b", "after:a",
	}, trace)
}

func TestComposeShortCircuit(t *testing.T) {
	var called bool
	chain := Compose(
		func(ctx *Context, next Next) {}, // never calls next
		func(ctx *Context, next Next) { called = true; next() },
	)
	Run(chain, newTestContext())
	require.False(t, called)
}

func TestComposeDoubleNextIsIdempotent(t *testing.T) {
	count := 0
	chain := Compose(
		func(ctx *Context, next Next) {
			next()
			next() // second call must not re-run downstream
		},
		func(ctx *Context, next Next) { count++; next() },
	)
	Run(chain, newTestContext())
	require.Equal(t, 1, count)
}

func TestAdaptRunsNextAutomatically(t *testing.T) {
	var ran []string
	terminal := Adapt(func(ctx *Context) { ran = append(ran, "terminal") })
	chain := Compose(terminal, func(ctx *Context, next Next) { ran = append(ran, "after") })
	Run(chain, newTestContext())
	require.Equal(t, []string{"terminal", "after"}, ran)
}

func TestEmptyComposeIsNoOp(t *testing.T) {
	require.NotPanics(t, func() { Run(Compose(), newTestContext()) })
}

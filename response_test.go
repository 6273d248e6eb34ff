/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cuehttp

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/badu/cuehttp/cookie"
	"github.com/badu/cuehttp/hdr"
)

func TestNewResponseDefaultsTo404(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1, KeepAlive: true}
	resp := newResponse(req)

	require.Equal(t, 404, resp.StatusCode)
	require.Equal(t, "HTTP/1.1", resp.Proto())
	require.True(t, resp.KeepAlive)
	require.False(t, resp.Streaming())
}

func TestResponseProtoMirrorsHTTP10Request(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 0}
	resp := newResponse(req)

	require.Equal(t, "HTTP/1.0", resp.Proto())
}

func TestWriteHeaderBufferedModeComputesContentLength(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1}
	resp := newResponse(req)
	resp.StatusCode = 200
	resp.Body = []byte("hello")

	var buf bytes.Buffer
	require.NoError(t, resp.writeHeader(&buf, true, nil))

	out := buf.String()
	require.Contains(t, out, "HTTP/1.1 200 OK\r\n")
	require.Contains(t, out, "Content-Length: 5\r\n")
	require.Contains(t, out, "Connection: keep-alive\r\n")
	require.NotContains(t, out, "Transfer-Encoding")
}

func TestWriteHeaderHonorsExplicitContentLength(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1}
	resp := newResponse(req)
	resp.StatusCode = 200
	resp.Length(100)

	var buf bytes.Buffer
	require.NoError(t, resp.writeHeader(&buf, true, nil))

	require.Contains(t, buf.String(), "Content-Length: 100\r\n")
}

func TestWriteHeaderStreamedModeSetsChunkedAndDropsContentLength(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1}
	resp := newResponse(req)
	resp.StatusCode = 200
	resp.Header.Set(hdr.ContentLength, "999")
	resp.sink = &chunkWriter{}

	var buf bytes.Buffer
	require.NoError(t, resp.writeHeader(&buf, true, nil))

	out := buf.String()
	require.Contains(t, out, "Transfer-Encoding: chunked\r\n")
	require.NotContains(t, out, "Content-Length")
}

func TestWriteHeaderNotKeepAliveSetsConnectionClose(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1}
	resp := newResponse(req)
	resp.StatusCode = 200

	var buf bytes.Buffer
	require.NoError(t, resp.writeHeader(&buf, false, nil))

	require.Contains(t, buf.String(), "Connection: close\r\n")
}

func TestWriteHeaderSuppressesFramingHeadersFor101(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1}
	resp := newResponse(req)
	resp.StatusCode = 101
	resp.Header.Set(hdr.UpgradeHeader, "websocket")
	resp.Header.Set(hdr.Connection, "Upgrade")

	var buf bytes.Buffer
	require.NoError(t, resp.writeHeader(&buf, true, nil))

	out := buf.String()
	require.Contains(t, out, "HTTP/1.1 101 Switching Protocols\r\n")
	require.NotContains(t, out, "Content-Length")
	require.NotContains(t, out, "Transfer-Encoding")
	// The handshake's own Connection: Upgrade must survive untouched, since
	// writeHeader must not override it with keep-alive/close semantics.
	require.Contains(t, out, "Connection: Upgrade\r\n")
}

func TestWriteHeaderSetsDefaultServerNameWhenAbsent(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1}
	resp := newResponse(req)
	resp.StatusCode = 200

	var buf bytes.Buffer
	require.NoError(t, resp.writeHeader(&buf, true, nil))

	require.Contains(t, buf.String(), "Server: cuehttp\r\n")
}

func TestWriteHeaderPreservesExplicitServerName(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1}
	resp := newResponse(req)
	resp.StatusCode = 200
	resp.Set(hdr.ServerHeader, "custom")

	var buf bytes.Buffer
	require.NoError(t, resp.writeHeader(&buf, true, nil))

	require.Contains(t, buf.String(), "Server: custom\r\n")
}

func TestWriteHeaderEmitsOneSetCookiePerValidCookie(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1}
	resp := newResponse(req)
	resp.StatusCode = 200

	cookies := []cookie.Cookie{
		{Name: "a", Value: "1"},
		{Name: "", Value: "invalid"},
		{Name: "b", Value: "2"},
	}

	var buf bytes.Buffer
	require.NoError(t, resp.writeHeader(&buf, true, cookies))

	values := resp.Header.Values(hdr.SetCookieHeader)
	require.Len(t, values, 2)
	require.Contains(t, values[0], "a=1")
	require.Contains(t, values[1], "b=2")
}

func TestDumpBodyReturnsBufferedBytes(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1}
	resp := newResponse(req)
	resp.Body = []byte("payload")

	require.Equal(t, []byte("payload"), resp.dumpBody())
}

func TestResetClearsBodyAndHeadersButMirrorsNewRequest(t *testing.T) {
	req := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 1, KeepAlive: true}
	resp := newResponse(req)
	resp.StatusCode = 200
	resp.Body = []byte("first")
	resp.Set(hdr.ContentType, "text/plain")

	nextReq := &Request{Header: hdr.NewHeader(), ProtoMajor: 1, ProtoMinor: 0, KeepAlive: false}
	resp.reset(nextReq)

	require.Equal(t, 404, resp.StatusCode)
	require.Nil(t, resp.Body)
	require.Empty(t, resp.Header.Get(hdr.ContentType))
	require.Equal(t, "HTTP/1.0", resp.Proto())
	require.False(t, resp.KeepAlive)
	require.False(t, resp.Committed)
}

func TestChunkWriterFramesFlushesAsHexLengthBlocks(t *testing.T) {
	var buf bytes.Buffer
	cw := &chunkWriter{w: bufio.NewWriter(&buf)}

	_, err := cw.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, cw.Flush())
	require.NoError(t, cw.Close())

	require.Equal(t, "3\r\nabc\r\n0\r\n\r\n", buf.String())
}

func TestChunkWriterFlushIsNoopOnEmptyBuffer(t *testing.T) {
	var buf bytes.Buffer
	cw := &chunkWriter{w: bufio.NewWriter(&buf)}

	require.NoError(t, cw.Flush())
	require.Empty(t, buf.String())
}

/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cuehttp

import (
	"bufio"
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/badu/cuehttp/hdr"
)

func TestAcceptComputesKnownHandshakeValue(t *testing.T) {
	h := hdr.NewHeader()
	h.Set(hdr.UpgradeHeader, "websocket")
	h.Set(hdr.Connection, "Upgrade")
	h.Set(hdr.SecWebSocketKey, "dGhlIHNhbXBsZSBub25jZQ==")
	h.Set(hdr.SecWebSocketVersion, "13")

	accept, ok := Accept(h)
	require.True(t, ok)
	require.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", accept)
}

func TestAcceptRejectsMissingUpgradeToken(t *testing.T) {
	h := hdr.NewHeader()
	h.Set(hdr.Connection, "Upgrade")
	h.Set(hdr.SecWebSocketKey, "dGhlIHNhbXBsZSBub25jZQ==")
	h.Set(hdr.SecWebSocketVersion, "13")

	_, ok := Accept(h)
	require.False(t, ok)
}

func TestAcceptRejectsMissingKey(t *testing.T) {
	h := hdr.NewHeader()
	h.Set(hdr.UpgradeHeader, "websocket")
	h.Set(hdr.Connection, "Upgrade")
	h.Set(hdr.SecWebSocketVersion, "13")

	_, ok := Accept(h)
	require.False(t, ok)
}

func TestHasTokenIsCaseInsensitiveAmongCommaList(t *testing.T) {
	require.True(t, hasToken("keep-alive, Upgrade", "upgrade"))
	require.False(t, hasToken("keep-alive", "upgrade"))
}

func TestWriteFrameThenReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	frame := outboundFrame{opcode: OpText, fin: true, data: []byte("hello")}
	require.NoError(t, writeFrame(&buf, frame))

	fin, opcode, payload, err := readUnmaskedTestFrame(buf.Bytes())
	require.NoError(t, err)
	require.True(t, fin)
	require.Equal(t, OpText, opcode)
	require.Equal(t, "hello", string(payload))
}

func TestWriteFrameUsesExtended16BitLength(t *testing.T) {
	var buf bytes.Buffer
	data := bytes.Repeat([]byte("x"), 200)
	require.NoError(t, writeFrame(&buf, outboundFrame{opcode: OpBinary, fin: true, data: data}))

	encoded := buf.Bytes()
	require.Equal(t, byte(126), encoded[1])

	fin, opcode, payload, err := readUnmaskedTestFrame(encoded)
	require.NoError(t, err)
	require.True(t, fin)
	require.Equal(t, OpBinary, opcode)
	require.Equal(t, data, payload)
}

// readUnmaskedTestFrame decodes a server-to-client (unmasked) frame, the
// mirror image of readFrame which only ever decodes masked client frames.
func readUnmaskedTestFrame(b []byte) (fin bool, opcode Opcode, payload []byte, err error) {
	fin = b[0]&0x80 != 0
	opcode = Opcode(b[0] & 0x0F)
	length := int(b[1] & 0x7F)
	i := 2
	if length == 126 {
		length = int(b[2])<<8 | int(b[3])
		i = 4
	}
	payload = b[i : i+length]
	return fin, opcode, payload, nil
}

func newTestWSConn() (*Conn, *bytes.Buffer) {
	var buf bytes.Buffer
	c := &Connection{bw: bufio.NewWriter(&buf)}
	w := newConn(c)
	return w, &buf
}

// waitDrained exercises the real waitIdle primitive, wrapped in a timeout
// so a regression that deadlocks it fails the test instead of hanging it.
func waitDrained(t *testing.T, w *Conn) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		w.waitIdle()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Conn to drain its send queue")
	}
}

func TestWaitIdleBlocksUntilQueueDrains(t *testing.T) {
	w, buf := newTestWSConn()
	w.SendText("hi")
	w.waitIdle()

	require.False(t, w.writing)
	require.Empty(t, w.queue)
	fin, opcode, payload, err := readUnmaskedTestFrame(buf.Bytes())
	require.NoError(t, err)
	require.True(t, fin)
	require.Equal(t, OpText, opcode)
	require.Equal(t, "hi", string(payload))
}

func TestSendTextDrainsToUnderlyingWriter(t *testing.T) {
	w, buf := newTestWSConn()
	w.SendText("hi")
	waitDrained(t, w)

	fin, opcode, payload, err := readUnmaskedTestFrame(buf.Bytes())
	require.NoError(t, err)
	require.True(t, fin)
	require.Equal(t, OpText, opcode)
	require.Equal(t, "hi", string(payload))
}

func TestCloseEncodesCodeAndReason(t *testing.T) {
	w, buf := newTestWSConn()
	w.Close(1000, "bye")
	waitDrained(t, w)

	_, opcode, payload, err := readUnmaskedTestFrame(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, OpClose, opcode)
	require.Equal(t, uint16(1000), uint16(payload[0])<<8|uint16(payload[1]))
	require.Equal(t, "bye", string(payload[2:]))
}

func TestEndpointBroadcastSkipsExcept(t *testing.T) {
	e := NewEndpoint()
	a, bufA := newTestWSConn()
	b, bufB := newTestWSConn()
	e.register(a)
	e.register(b)

	e.Broadcast([]byte("hi all"), OpText, BroadcastOptions{Except: a})
	waitDrained(t, a)
	waitDrained(t, b)

	require.Equal(t, 0, bufA.Len(), "Except target must not receive the broadcast")
	require.Greater(t, bufB.Len(), 0, "non-excepted target must receive the broadcast")
}

func TestEndpointRegisterForwardsMessagesWithSender(t *testing.T) {
	e := NewEndpoint()
	w, _ := newTestWSConn()
	e.register(w)

	var gotSender *Conn
	var gotPayload []byte
	e.OnMessage(func(sender *Conn, payload []byte, opcode Opcode) {
		gotSender = sender
		gotPayload = payload
	})
	w.emitMessage([]byte("ping"), OpText)

	require.Equal(t, w, gotSender)
	require.Equal(t, "ping", string(gotPayload))
}

func TestEndpointRemoveFiresOnCloseAndDropsFromClientSet(t *testing.T) {
	e := NewEndpoint()
	w, _ := newTestWSConn()
	e.register(w)

	var closed bool
	e.OnClose(func(*Conn) { closed = true })
	w.handleClose()

	require.True(t, closed)
	_, stillPresent := e.clients[w]
	require.False(t, stillPresent)
}

/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cuehttp

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"io"
	"sync"

	"github.com/gobwas/httphead"

	"github.com/badu/cuehttp/hdr"
)

// websocketGUID is appended to Sec-WebSocket-Key before hashing, per RFC
// 6455 §1.3.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// Accept validates that header carries a well-formed WebSocket handshake
// (Upgrade: websocket, Connection: upgrade, non-empty key and version) and,
// if so, computes the Sec-WebSocket-Accept value the server must return.
// It performs no I/O, so callers can probe upgrade-eligibility without
// committing to the upgrade.
func Accept(header hdr.Header) (string, bool) {
	if !hasToken(header.Get(hdr.UpgradeHeader), "websocket") {
		return "", false
	}
	if !hasToken(header.Get(hdr.Connection), "upgrade") {
		return "", false
	}
	key := header.Get(hdr.SecWebSocketKey)
	if key == "" || header.Get(hdr.SecWebSocketVersion) == "" {
		return "", false
	}
	sum := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:]), true
}

// hasToken reports whether value, a comma-separated RFC 7230 list header
// (Connection or Upgrade), contains tok case-insensitively.
func hasToken(value, tok string) bool {
	found := false
	httphead.ScanTokens([]byte(value), func(t []byte) bool {
		if asciiEqualFold(t, tok) {
			found = true
			return false
		}
		return true
	})
	return found
}

func asciiEqualFold(b []byte, s string) bool {
	if len(b) != len(s) {
		return false
	}
	for i := range b {
		c1, c2 := b[i], s[i]
		if 'A' <= c1 && c1 <= 'Z' {
			c1 += 'a' - 'A'
		}
		if 'A' <= c2 && c2 <= 'Z' {
			c2 += 'a' - 'A'
		}
		if c1 != c2 {
			return false
		}
	}
	return true
}

// Opcode identifies a WebSocket frame's payload interpretation.
type Opcode byte

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

// outboundFrame is one entry in a Conn's single-writer FIFO.
type outboundFrame struct {
	opcode Opcode
	fin    bool
	data   []byte
}

// Conn is a WebSocket peer multiplexed over the socket a Connection
// previously used for HTTP. Its lifetime begins at a successful upgrade
// and ends when the socket closes.
type Conn struct {
	c *Connection

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []outboundFrame
	writing bool
	closed  bool

	reassembly   []byte
	reassembling bool
	reassembleOp Opcode

	endpoint *Endpoint

	onMessage []func(payload []byte, opcode Opcode)
	onClose   []func()
}

func newConn(c *Connection) *Conn {
	w := &Conn{c: c}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// OnMessage registers a subscriber invoked for every complete inbound
// message (after continuation-frame reassembly), in registration order.
func (w *Conn) OnMessage(fn func(payload []byte, opcode Opcode)) {
	w.onMessage = append(w.onMessage, fn)
}

// OnClose registers a subscriber invoked once the connection closes.
func (w *Conn) OnClose(fn func()) {
	w.onClose = append(w.onClose, fn)
}

// Send enqueues an application message. fin=false starts (or continues) a
// fragmented message; the caller is responsible for eventually sending a
// frame with fin=true to terminate it.
func (w *Conn) Send(payload []byte, opcode Opcode, fin bool) {
	w.enqueue(outboundFrame{opcode: opcode, fin: fin, data: payload})
}

// SendText enqueues a single-frame text message.
func (w *Conn) SendText(s string) { w.Send([]byte(s), OpText, true) }

// SendBinary enqueues a single-frame binary message.
func (w *Conn) SendBinary(b []byte) { w.Send(b, OpBinary, true) }

// Close enqueues a close frame carrying code and reason. It does not close
// the underlying socket or mark the Conn closed.
func (w *Conn) Close(code uint16, reason string) {
	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload, code)
	copy(payload[2:], reason)
	w.Send(payload, OpClose, true)
}

// enqueue appends frame to the FIFO; if the queue was empty, it starts the
// single writer goroutine for this connection. Concurrent callers from any
// goroutine serialise through mu, satisfying spec.md §5's ordering rule.
func (w *Conn) enqueue(frame outboundFrame) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.queue = append(w.queue, frame)
	if w.writing {
		w.mu.Unlock()
		return
	}
	w.writing = true
	w.mu.Unlock()
	go w.drain()
}

// drain is the single writer: it dequeues and encodes frames one at a time,
// stopping only when the queue empties (observed under the same mutex that
// enqueue uses, so no second drain can start concurrently). It broadcasts on
// cond whenever it goes idle, waking any waitIdle caller.
func (w *Conn) drain() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.writing = false
			w.cond.Broadcast()
			w.mu.Unlock()
			return
		}
		frame := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		if err := writeFrame(w.c.bw, frame); err != nil {
			w.mu.Lock()
			w.writing = false
			w.closed = true
			w.cond.Broadcast()
			w.mu.Unlock()
			w.c.conn.Close()
			return
		}
		w.c.bw.Flush()
	}
}

// waitIdle blocks until every frame enqueued so far has been written (or
// the connection closed trying). serveWebSocket uses this after sending a
// close echo so Connection.close doesn't tear down the socket out from
// under the still-draining frame.
func (w *Conn) waitIdle() {
	w.mu.Lock()
	for w.writing || len(w.queue) > 0 {
		w.cond.Wait()
	}
	w.mu.Unlock()
}

// writeFrame encodes frame unmasked (server-to-client frames are never
// masked, per RFC 6455 §5.1) with 7/16/64-bit extended length as needed.
func writeFrame(w io.Writer, f outboundFrame) error {
	var head [10]byte
	b0 := byte(f.opcode)
	if f.fin {
		b0 |= 0x80
	}
	head[0] = b0

	n := len(f.data)
	var headerLen int
	switch {
	case n < 126:
		head[1] = byte(n)
		headerLen = 2
	case n <= 0xFFFF:
		head[1] = 126
		binary.BigEndian.PutUint16(head[2:4], uint16(n))
		headerLen = 4
	default:
		head[1] = 127
		binary.BigEndian.PutUint64(head[2:10], uint64(n))
		headerLen = 10
	}
	if _, err := w.Write(head[:headerLen]); err != nil {
		return err
	}
	if n > 0 {
		if _, err := w.Write(f.data); err != nil {
			return err
		}
	}
	return nil
}

// handleClose runs this connection's on_close subscribers and, if it was
// registered with an Endpoint, removes it from that endpoint's client set.
func (w *Conn) handleClose() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	for _, fn := range w.onClose {
		fn()
	}
	if w.endpoint != nil {
		w.endpoint.remove(w)
	}
}

// emitMessage delivers a fully reassembled inbound message to every
// subscriber in registration order.
func (w *Conn) emitMessage(payload []byte, opcode Opcode) {
	for _, fn := range w.onMessage {
		fn(payload, opcode)
	}
}

// serveWebSocket runs the inbound frame loop until the socket errs, a
// close frame arrives, or a protocol violation is detected.
func (c *Connection) serveWebSocket() {
	if c.srv.ws != nil {
		c.srv.ws.register(c.ws)
		c.srv.ws.emitOpen(c.ws)
	}
	for {
		fin, opcode, payload, err := readFrame(c.br)
		if err != nil {
			return
		}
		switch opcode {
		case OpClose:
			c.ws.Send(payload, OpClose, true)
			c.ws.waitIdle()
			return
		case OpPing:
			c.ws.Send(payload, OpPong, true)
			continue
		case OpPong:
			continue
		}

		if !c.ws.reassembling {
			if opcode == OpContinuation {
				return // continuation with no prior frame: protocol error
			}
			if fin {
				c.ws.emitMessage(payload, opcode)
				continue
			}
			c.ws.reassembling = true
			c.ws.reassembleOp = opcode
			c.ws.reassembly = append(c.ws.reassembly[:0], payload...)
			continue
		}

		c.ws.reassembly = append(c.ws.reassembly, payload...)
		if fin {
			c.ws.emitMessage(c.ws.reassembly, c.ws.reassembleOp)
			c.ws.reassembling = false
			c.ws.reassembly = nil
		}
	}
}

// readFrame decodes one client-to-server frame: 2-byte header, 0/2/8 bytes
// of extended length, a 4-byte mask (always present on client frames), and
// the masked payload, which is decoded in place before returning.
func readFrame(r io.Reader) (fin bool, opcode Opcode, payload []byte, err error) {
	var head [2]byte
	if _, err = io.ReadFull(r, head[:]); err != nil {
		return
	}
	fin = head[0]&0x80 != 0
	opcode = Opcode(head[0] & 0x0F)
	masked := head[1]&0x80 != 0
	length := uint64(head[1] & 0x7F)

	switch length {
	case 126:
		var ext [2]byte
		if _, err = io.ReadFull(r, ext[:]); err != nil {
			return
		}
		length = uint64(binary.BigEndian.Uint16(ext[:]))
	case 127:
		var ext [8]byte
		if _, err = io.ReadFull(r, ext[:]); err != nil {
			return
		}
		length = binary.BigEndian.Uint64(ext[:])
	}

	var maskKey [4]byte
	if masked {
		if _, err = io.ReadFull(r, maskKey[:]); err != nil {
			return
		}
	}

	payload = make([]byte, length)
	if _, err = io.ReadFull(r, payload); err != nil {
		return
	}
	if masked {
		for i := range payload {
			payload[i] ^= maskKey[i%4]
		}
	}
	return fin, opcode, payload, nil
}

// BroadcastOptions configures an Endpoint.Broadcast call.
type BroadcastOptions struct {
	// Except, if non-nil, is skipped — the common "echo to everyone but
	// the sender" pattern.
	Except *Conn
}

// Endpoint is a WebSocket route's shared state: the set of currently open
// connections and the subscriber lists invoked for every connection on
// open/close/message. Access to the client set is serialised by a mutex,
// the only cross-connection shared mutable state in the core.
type Endpoint struct {
	mu      sync.Mutex
	clients map[*Conn]struct{}

	onOpen    []func(*Conn)
	onClose   []func(*Conn)
	onMessage []func(*Conn, []byte, Opcode)
}

// NewEndpoint returns an empty Endpoint.
func NewEndpoint() *Endpoint {
	return &Endpoint{clients: make(map[*Conn]struct{})}
}

// OnOpen registers a subscriber invoked when a connection upgrades.
func (e *Endpoint) OnOpen(fn func(*Conn)) { e.onOpen = append(e.onOpen, fn) }

// OnClose registers a subscriber invoked when a connection closes.
func (e *Endpoint) OnClose(fn func(*Conn)) { e.onClose = append(e.onClose, fn) }

// OnMessage registers a subscriber invoked for every inbound message on
// any connection bound to this endpoint.
func (e *Endpoint) OnMessage(fn func(*Conn, []byte, Opcode)) {
	e.onMessage = append(e.onMessage, fn)
}

func (e *Endpoint) register(w *Conn) {
	e.mu.Lock()
	e.clients[w] = struct{}{}
	w.endpoint = e
	e.mu.Unlock()
	w.OnMessage(func(payload []byte, opcode Opcode) {
		for _, fn := range e.onMessage {
			fn(w, payload, opcode)
		}
	})
}

func (e *Endpoint) emitOpen(w *Conn) {
	for _, fn := range e.onOpen {
		fn(w)
	}
}

func (e *Endpoint) remove(w *Conn) {
	e.mu.Lock()
	delete(e.clients, w)
	e.mu.Unlock()
	for _, fn := range e.onClose {
		fn(w)
	}
}

// Broadcast sends payload to every currently registered client, skipping
// opts.Except if set. A client that closed between registration and this
// call simply drops the frame (enqueue on a closed Conn is a no-op).
func (e *Endpoint) Broadcast(payload []byte, opcode Opcode, opts BroadcastOptions) {
	e.mu.Lock()
	targets := make([]*Conn, 0, len(e.clients))
	for w := range e.clients {
		if w == opts.Except {
			continue
		}
		targets = append(targets, w)
	}
	e.mu.Unlock()
	for _, w := range targets {
		w.Send(payload, opcode, true)
	}
}

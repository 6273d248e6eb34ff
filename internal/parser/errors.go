/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package parser implements a byte-consuming, callback-driven HTTP/1.x
// message parser. It is a state machine only: it never reads from a
// socket and never blocks. Connection feeds it bytes as they arrive and
// reacts to the ErrorKind it returns.
package parser

import "fmt"

// ErrorKind enumerates the parse failure kinds surfaced to the caller.
type ErrorKind int

const (
	ErrOK ErrorKind = iota
	ErrInternal
	ErrStrict
	ErrLFExpected
	ErrUnexpectedContentLength
	ErrClosedConnection
	ErrInvalidMethod
	ErrInvalidURL
	ErrInvalidConstant
	ErrInvalidVersion
	ErrInvalidHeaderToken
	ErrInvalidContentLength
	ErrInvalidChunkSize
	ErrInvalidStatus
	ErrInvalidEOFState
	ErrInvalidTransferEncoding
	ErrCBMessageBegin
	ErrCBHeadersComplete
	ErrCBMessageComplete
	ErrCBChunkHeader
	ErrCBChunkComplete
	ErrPaused
	ErrPausedUpgrade
	ErrUser
)

var errorNames = map[ErrorKind]string{
	ErrOK:                      "ok",
	ErrInternal:                "internal",
	ErrStrict:                  "strict",
	ErrLFExpected:              "lf_expected",
	ErrUnexpectedContentLength: "unexpected_content_length",
	ErrClosedConnection:        "closed_connection",
	ErrInvalidMethod:           "invalid_method",
	ErrInvalidURL:              "invalid_url",
	ErrInvalidConstant:         "invalid_constant",
	ErrInvalidVersion:          "invalid_version",
	ErrInvalidHeaderToken:      "invalid_header_token",
	ErrInvalidContentLength:    "invalid_content_length",
	ErrInvalidChunkSize:        "invalid_chunk_size",
	ErrInvalidStatus:           "invalid_status",
	ErrInvalidEOFState:         "invalid_eof_state",
	ErrInvalidTransferEncoding: "invalid_transfer_encoding",
	ErrCBMessageBegin:          "cb_message_begin",
	ErrCBHeadersComplete:       "cb_headers_complete",
	ErrCBMessageComplete:       "cb_message_complete",
	ErrCBChunkHeader:           "cb_chunk_header",
	ErrCBChunkComplete:         "cb_chunk_complete",
	ErrPaused:                  "paused",
	ErrPausedUpgrade:           "paused_upgrade",
	ErrUser:                    "user",
}

func (k ErrorKind) String() string {
	if s, ok := errorNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error reports a parse failure: the kind, a byte offset, and a short
// reason. Position is the offset within the buffer passed to Execute only
// for over-long lines and unexpected parser states; other errors leave it 0.
type Error struct {
	Kind     ErrorKind
	Position int
	Reason   string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("parser: %s at offset %d", e.Kind, e.Position)
	}
	return fmt.Sprintf("parser: %s at offset %d: %s", e.Kind, e.Position, e.Reason)
}

// Fatal reports whether the error kind terminates the connection outright
// (as opposed to pause states, which are resumable).
func (k ErrorKind) Fatal() bool {
	switch k {
	case ErrOK, ErrPaused, ErrPausedUpgrade:
		return false
	}
	return true
}

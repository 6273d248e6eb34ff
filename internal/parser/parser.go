/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package parser

import (
	"bytes"
	"strings"
)

// Kind selects what Execute expects to find at the start of the stream.
type Kind int

const (
	KindRequest Kind = iota
	KindResponse
	KindBoth // auto-detect from the first byte: 'H' -> response, else request.
)

// Result is the outcome of a call to Execute.
type Result int

const (
	ResultOK Result = iota
	ResultPaused
	ResultPausedUpgrade
)

// CBResult is what a callback may return to steer the parser.
type CBResult int

const (
	CBOK CBResult = iota
	CBNoBody
	CBUpgradeNoBody
	CBPaused
	CBError
)

type state int

const (
	stateDead state = iota
	stateStartReq
	stateStartRes
	stateHeaderLine
	stateBodyIdentity
	stateBodyIdentityEOF
	stateChunkSizeLine
	stateChunkData
	stateChunkDataAlmostDone
	stateChunkDataDone
	stateTrailerLine
	stateMessageDone
	statePaused
	statePausedUpgrade
	stateError
)

// flag bits recorded while parsing a single message.
const (
	flagChunked = 1 << iota
	flagContentLengthSeen
	flagTransferEncodingSeen
	flagTransferEncodingChunkedLast
	flagConnectionClose
	flagConnectionKeepAlive
	flagConnectionUpgrade
	flagUpgrade
	flagSkipBody
)

const maxContentLength = 1<<64 - 1

// Callbacks are invoked as the parser recognizes each event described in
// the wire format. Every callback may return CBError to abort the message;
// the resulting ErrorKind depends on the callback (for example
// ErrCBHeadersComplete for OnHeadersComplete, ErrInternal for OnBody).
// OnHeadersComplete may additionally return CBNoBody or CBUpgradeNoBody to
// steer body selection. CBPaused is treated like CBOK; Pause is the way
// to stop the parser from inside a callback.
type Callbacks struct {
	OnMessageBegin     func() CBResult
	OnURL              func(b []byte) CBResult
	OnStatus           func(b []byte) CBResult
	OnHeaderField      func(b []byte) CBResult
	OnHeaderValue      func(b []byte) CBResult
	OnHeadersComplete  func() CBResult
	OnBody             func(b []byte) CBResult
	OnMessageComplete  func() CBResult
	OnChunkHeader      func(size uint64) CBResult
	OnChunkComplete    func() CBResult
}

// Parser is a resumable, non-blocking HTTP/1.x message parser. It consumes
// bytes handed to it by Execute and never performs I/O of its own.
type Parser struct {
	Callbacks

	kind    Kind
	state   state
	lenient bool

	flags uint32

	method       string
	httpMajor    int
	httpMinor    int
	statusCode   int
	contentLen   uint64
	haveCL       bool
	chunkSize    uint64
	bodyRead     uint64

	line           bytes.Buffer // accumulates the current line across Execute calls
	curHeaderField string
	resumeState    state // state to restore to on Resume(), set by Pause()

	lastErr *Error
}

// New returns a Parser configured for kind, ready for Execute.
func New(kind Kind, lenient bool) *Parser {
	p := &Parser{}
	p.Init(kind, lenient)
	return p
}

// Init (re)initializes the parser for a new message.
func (p *Parser) Init(kind Kind, lenient bool) {
	*p = Parser{Callbacks: p.Callbacks, kind: kind, lenient: lenient}
	p.state = p.startState()
}

func (p *Parser) startState() state {
	switch p.kind {
	case KindResponse:
		return stateStartRes
	case KindRequest:
		return stateStartReq
	default:
		return stateDead // resolved lazily on first byte, see Execute
	}
}

// Reset prepares the parser to read the next pipelined message on the same
// connection, preserving kind/lenient but clearing all per-message state.
func (p *Parser) Reset() {
	cb := p.Callbacks
	kind := p.kind
	lenient := p.lenient
	*p = Parser{Callbacks: cb, kind: kind, lenient: lenient}
	p.state = p.startState()
}

// Method returns the parsed request method (request parsing only).
func (p *Parser) Method() string { return p.method }

// HTTPVersion returns the parsed major/minor version digits.
func (p *Parser) HTTPVersion() (int, int) { return p.httpMajor, p.httpMinor }

// StatusCode returns the parsed status code (response parsing only).
func (p *Parser) StatusCode() int { return p.statusCode }

// ContentLength returns the parsed Content-Length, and whether one was seen.
func (p *Parser) ContentLength() (uint64, bool) { return p.contentLen, p.haveCL }

// IsChunked reports whether the body uses chunked transfer-encoding.
func (p *Parser) IsChunked() bool { return p.flags&flagChunked != 0 }

// IsUpgrade reports whether the message requested a protocol upgrade.
func (p *Parser) IsUpgrade() bool { return p.flags&flagUpgrade != 0 }

// ConnectionClose/KeepAlive/Upgrade report which Connection: tokens were seen.
func (p *Parser) ConnectionClose() bool     { return p.flags&flagConnectionClose != 0 }
func (p *Parser) ConnectionKeepAlive() bool { return p.flags&flagConnectionKeepAlive != 0 }
func (p *Parser) ConnectionUpgrade() bool   { return p.flags&flagConnectionUpgrade != 0 }

// Pause cooperatively suspends parsing; the next Execute call returns
// immediately with ResultPaused until Resume is called.
func (p *Parser) Pause() {
	if p.state != stateError && p.state != statePaused {
		p.resumeState = p.state
		p.state = statePaused
	}
}

// Resume undoes a Pause.
func (p *Parser) Resume() {
	if p.state == statePaused {
		p.state = p.resumeState
	}
}

// ResumeAfterUpgrade resumes a parser paused at paused_upgrade, readying it
// to be discarded: no further HTTP bytes are expected on this socket.
func (p *Parser) ResumeAfterUpgrade() {
	if p.state == statePausedUpgrade {
		p.state = stateMessageDone
	}
}

// Execute feeds data to the parser. It returns the number of bytes it
// consumed and the outcome. It consumes len(data) unless an error, a Pause,
// an upgrade pause, or the end of the current message stops it earlier;
// bytes after a completed message are left unconsumed with ResultPaused.
func (p *Parser) Execute(data []byte) (int, Result, *Error) {
	if p.lastErr != nil {
		return 0, ResultOK, p.lastErr
	}
	if p.kind == KindBoth && p.state == stateDead {
		if len(data) == 0 {
			return 0, ResultOK, nil
		}
		if data[0] == 'H' {
			p.kind = KindResponse
		} else {
			p.kind = KindRequest
		}
		p.state = p.startState()
	}

	i := 0
	for i < len(data) {
		switch p.state {
		case statePaused:
			return i, ResultPaused, nil
		case statePausedUpgrade:
			return i, ResultPausedUpgrade, nil
		case stateError:
			return i, ResultOK, p.lastErr
		}

		n, res, err := p.step(data, i)
		if err != nil {
			p.state = stateError
			p.lastErr = err
			return n, ResultOK, err
		}
		i = n
		if res == ResultPaused {
			return i, ResultPaused, nil
		}
		if res == ResultPausedUpgrade {
			return i, ResultPausedUpgrade, nil
		}
	}
	return i, ResultOK, nil
}

// step executes a single logical transition starting at data[i], returning
// the next index to resume scanning from.
func (p *Parser) step(data []byte, i int) (int, Result, *Error) {
	switch p.state {
	case stateStartReq, stateStartRes, stateHeaderLine, stateTrailerLine:
		return p.stepLine(data, i)
	case stateBodyIdentity:
		return p.stepIdentityBody(data, i)
	case stateBodyIdentityEOF:
		return p.stepIdentityEOFBody(data, i)
	case stateChunkSizeLine:
		return p.stepChunkSizeLine(data, i)
	case stateChunkData:
		return p.stepChunkData(data, i)
	case stateChunkDataAlmostDone:
		return p.stepChunkDataAlmostDone(data, i)
	case stateChunkDataDone:
		return p.stepChunkDataDone(data, i)
	case stateMessageDone:
		// Extra bytes after message_complete (pipelining): stop consuming
		// here; Connection resets the parser before feeding the next message.
		return i, ResultPaused, nil
	}
	return i, ResultOK, &Error{Kind: ErrInternal, Position: i, Reason: "unreachable state"}
}

// stepLine accumulates bytes up to the line's terminating CRLF, then
// dispatches the completed line to the relevant sub-parser. It handles
// request-line, status-line and header-line states uniformly.
func (p *Parser) stepLine(data []byte, i int) (int, Result, *Error) {
	for ; i < len(data); i++ {
		b := data[i]
		if b == '\n' {
			line := p.line.Bytes()
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			p.line.Reset()
			res, err := p.dispatchLine(line)
			return i + 1, res, err
		}
		p.line.WriteByte(b)
		if p.line.Len() > maxLineLength {
			return i, ResultOK, &Error{Kind: ErrInvalidConstant, Position: i, Reason: "line too long"}
		}
	}
	return i, ResultOK, nil
}

const maxLineLength = 1 << 16

func (p *Parser) dispatchLine(line []byte) (Result, *Error) {
	switch p.state {
	case stateStartReq:
		return p.parseRequestLine(line)
	case stateStartRes:
		return p.parseStatusLine(line)
	case stateHeaderLine, stateTrailerLine:
		return p.parseHeaderLine(line)
	}
	return ResultOK, &Error{Kind: ErrInternal, Reason: "dispatchLine in unexpected state"}
}

func (p *Parser) parseRequestLine(line []byte) (Result, *Error) {
	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) != 3 {
		return ResultOK, &Error{Kind: ErrInvalidConstant, Reason: "malformed request line"}
	}
	method := string(parts[0])
	if !validMethod(method) {
		return ResultOK, &Error{Kind: ErrInvalidMethod, Reason: method}
	}
	p.method = method

	if p.OnMessageBegin != nil {
		if p.OnMessageBegin() == CBError {
			return ResultOK, &Error{Kind: ErrCBMessageBegin}
		}
	}

	if p.OnURL != nil {
		if p.OnURL(parts[1]) == CBError {
			return ResultOK, &Error{Kind: ErrInvalidURL}
		}
	}

	major, minor, ok := parseHTTPVersion(parts[2])
	if !ok {
		return ResultOK, &Error{Kind: ErrInvalidVersion, Reason: string(parts[2])}
	}
	p.httpMajor, p.httpMinor = major, minor
	p.state = stateHeaderLine
	return ResultOK, nil
}

func (p *Parser) parseStatusLine(line []byte) (Result, *Error) {
	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) < 2 {
		return ResultOK, &Error{Kind: ErrInvalidConstant, Reason: "malformed status line"}
	}
	major, minor, ok := parseHTTPVersion(parts[0])
	if !ok {
		return ResultOK, &Error{Kind: ErrInvalidVersion}
	}
	p.httpMajor, p.httpMinor = major, minor
	code, ok := parseStatusCode(parts[1])
	if !ok {
		return ResultOK, &Error{Kind: ErrInvalidStatus}
	}
	p.statusCode = code

	if p.OnMessageBegin != nil {
		if p.OnMessageBegin() == CBError {
			return ResultOK, &Error{Kind: ErrCBMessageBegin}
		}
	}
	if p.OnStatus != nil && len(parts) == 3 {
		if p.OnStatus(parts[2]) == CBError {
			return ResultOK, &Error{Kind: ErrInvalidStatus}
		}
	}
	p.state = stateHeaderLine
	return ResultOK, nil
}

// parseHeaderLine handles one header (or trailer) line, including an empty
// line signalling headers_complete/trailers-complete.
func (p *Parser) parseHeaderLine(line []byte) (Result, *Error) {
	isTrailer := p.state == stateTrailerLine

	if len(line) == 0 {
		if isTrailer {
			return p.completeMessage()
		}
		return p.onHeadersComplete()
	}

	// obs-fold continuation: leading SP/HTAB means this is a continuation
	// of the previous header's value.
	if line[0] == ' ' || line[0] == '\t' {
		if p.lenient {
			if p.curHeaderField == "" {
				return ResultOK, &Error{Kind: ErrInvalidHeaderToken, Reason: "obs-fold with no preceding header"}
			}
			folded := " " + string(bytes.TrimLeft(line, " \t"))
			if p.OnHeaderValue != nil {
				if p.OnHeaderValue([]byte(folded)) == CBError {
					return ResultOK, &Error{Kind: ErrInvalidHeaderToken}
				}
			}
			return ResultOK, nil
		}
		return ResultOK, &Error{Kind: ErrStrict, Reason: "obs-fold not permitted in strict mode"}
	}

	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return ResultOK, &Error{Kind: ErrInvalidHeaderToken, Reason: "missing ':'"}
	}
	field := line[:colon]
	for _, c := range field {
		if !isTokenChar(c) {
			return ResultOK, &Error{Kind: ErrInvalidHeaderToken, Reason: "invalid field-name byte"}
		}
	}
	value := bytes.TrimLeft(line[colon+1:], " \t")

	p.curHeaderField = strings.ToLower(string(field))

	if !isTrailer {
		if err := p.trackHeader(p.curHeaderField, string(value)); err != nil {
			return ResultOK, err
		}
	}

	if p.OnHeaderField != nil {
		if p.OnHeaderField(field) == CBError {
			return ResultOK, &Error{Kind: ErrInvalidHeaderToken}
		}
	}
	if p.OnHeaderValue != nil {
		if p.OnHeaderValue(value) == CBError {
			return ResultOK, &Error{Kind: ErrInvalidHeaderToken}
		}
	}
	return ResultOK, nil
}

// trackHeader updates the parser's flag bits for headers with wire-level
// significance (Content-Length, Transfer-Encoding, Connection).
func (p *Parser) trackHeader(lowerField, value string) *Error {
	switch lowerField {
	case "content-length":
		n, err := parseContentLength(value)
		if err != nil {
			return &Error{Kind: ErrInvalidContentLength, Reason: err.Error()}
		}
		if p.flags&flagContentLengthSeen != 0 && p.contentLen != n {
			return &Error{Kind: ErrInvalidContentLength, Reason: "duplicate Content-Length values disagree"}
		}
		p.contentLen = n
		p.haveCL = true
		p.flags |= flagContentLengthSeen
	case "transfer-encoding":
		p.flags |= flagTransferEncodingSeen
		p.flags &^= flagTransferEncodingChunkedLast
		toks := splitTokens(value)
		if len(toks) > 0 && strings.EqualFold(toks[len(toks)-1], "chunked") {
			p.flags |= flagChunked
			p.flags |= flagTransferEncodingChunkedLast
		}
	case "connection":
		for _, tok := range splitTokens(value) {
			switch strings.ToLower(tok) {
			case "close":
				p.flags |= flagConnectionClose
			case "keep-alive":
				p.flags |= flagConnectionKeepAlive
			case "upgrade":
				p.flags |= flagConnectionUpgrade
			}
		}
	case "upgrade":
		p.flags |= flagUpgrade
	}
	return nil
}

func splitTokens(v string) []string {
	fields := strings.Split(v, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func (p *Parser) onHeadersComplete() (Result, *Error) {
	if p.flags&flagContentLengthSeen != 0 && p.flags&flagTransferEncodingSeen != 0 && !p.lenient {
		return ResultOK, &Error{Kind: ErrUnexpectedContentLength, Reason: "both Content-Length and Transfer-Encoding present"}
	}

	skipBody := false
	if p.OnHeadersComplete != nil {
		switch p.OnHeadersComplete() {
		case CBError:
			return ResultOK, &Error{Kind: ErrCBHeadersComplete}
		case CBNoBody:
			skipBody = true
		case CBUpgradeNoBody:
			skipBody = true
			p.flags |= flagSkipBody
		}
	}
	if skipBody {
		p.flags |= flagSkipBody
	}

	// Body selection algorithm, spec.md §4.1.
	switch {
	case p.flags&flagUpgrade != 0 && p.flags&flagConnectionUpgrade != 0 &&
		(p.method == "CONNECT" || p.flags&flagSkipBody != 0 || p.bodyIsEmptyByDefault()):
		res, err := p.completeMessage()
		if err != nil {
			return res, err
		}
		p.state = statePausedUpgrade
		return ResultPausedUpgrade, nil
	case p.flags&flagSkipBody != 0:
		return p.completeMessage()
	case p.flags&flagChunked != 0:
		p.state = stateChunkSizeLine
		return ResultOK, nil
	case p.flags&flagTransferEncodingSeen != 0 && p.flags&flagTransferEncodingChunkedLast == 0:
		if p.kind == KindRequest {
			return ResultOK, &Error{Kind: ErrInvalidTransferEncoding, Reason: "non-chunked final coding in request"}
		}
		p.state = stateBodyIdentityEOF
		return ResultOK, nil
	case !p.haveCL && p.flags&flagChunked == 0 && !p.messageNeedsEOF():
		return p.completeMessage()
	case p.haveCL && p.contentLen == 0:
		return p.completeMessage()
	case p.haveCL && p.contentLen > 0:
		p.state = stateBodyIdentity
		return ResultOK, nil
	default:
		p.state = stateBodyIdentityEOF
		return ResultOK, nil
	}
}

// bodyIsEmptyByDefault reports whether, absent any explicit framing, this
// message type carries no body (used by the upgrade short-circuit).
func (p *Parser) bodyIsEmptyByDefault() bool {
	return !p.haveCL && p.flags&flagChunked == 0
}

// messageNeedsEOF mirrors RFC 7230 §3.3.3 case 7: a response with no other
// framing is terminated by connection close; a request never is.
func (p *Parser) messageNeedsEOF() bool {
	if p.kind == KindRequest {
		return false
	}
	if p.statusCode/100 == 1 || p.statusCode == 204 || p.statusCode == 304 {
		return false
	}
	return true
}

func (p *Parser) stepIdentityBody(data []byte, i int) (int, Result, *Error) {
	remaining := p.contentLen - p.bodyRead
	avail := uint64(len(data) - i)
	n := remaining
	if avail < n {
		n = avail
	}
	chunk := data[i : i+int(n)]
	if p.OnBody != nil && len(chunk) > 0 {
		if p.OnBody(chunk) == CBError {
			return i, ResultOK, &Error{Kind: ErrInternal}
		}
	}
	p.bodyRead += n
	i += int(n)
	if p.bodyRead >= p.contentLen {
		return p.completeMessageAt(i)
	}
	return i, ResultOK, nil
}

func (p *Parser) stepIdentityEOFBody(data []byte, i int) (int, Result, *Error) {
	chunk := data[i:]
	if p.OnBody != nil && len(chunk) > 0 {
		if p.OnBody(chunk) == CBError {
			return i, ResultOK, &Error{Kind: ErrInternal}
		}
	}
	return len(data), ResultOK, nil
}

// Finish signals EOF: required to terminate an EOF-delimited response body.
func (p *Parser) Finish() *Error {
	if p.state == stateBodyIdentityEOF {
		if p.OnMessageComplete != nil {
			if p.OnMessageComplete() == CBError {
				return &Error{Kind: ErrCBMessageComplete}
			}
		}
		p.state = stateMessageDone
		return nil
	}
	if p.state != stateMessageDone && p.state != stateStartReq && p.state != stateStartRes {
		return &Error{Kind: ErrInvalidEOFState}
	}
	return nil
}

func (p *Parser) stepChunkSizeLine(data []byte, i int) (int, Result, *Error) {
	for ; i < len(data); i++ {
		b := data[i]
		if b == '\n' {
			line := p.line.Bytes()
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}
			p.line.Reset()
			sizeField := line
			if semi := bytes.IndexByte(line, ';'); semi >= 0 {
				sizeField = line[:semi]
			}
			size, ok := parseHexUint64(sizeField)
			if !ok {
				return i + 1, ResultOK, &Error{Kind: ErrInvalidChunkSize}
			}
			p.chunkSize = size
			p.bodyRead = 0
			if p.OnChunkHeader != nil {
				if p.OnChunkHeader(size) == CBError {
					return i + 1, ResultOK, &Error{Kind: ErrInvalidChunkSize}
				}
			}
			if size == 0 {
				p.state = stateTrailerLine
				return i + 1, ResultOK, nil
			}
			p.state = stateChunkData
			return i + 1, ResultOK, nil
		}
		p.line.WriteByte(b)
		if p.line.Len() > maxLineLength {
			return i, ResultOK, &Error{Kind: ErrInvalidChunkSize, Reason: "chunk size line too long"}
		}
	}
	return i, ResultOK, nil
}

func (p *Parser) stepChunkData(data []byte, i int) (int, Result, *Error) {
	remaining := p.chunkSize - p.bodyRead
	avail := uint64(len(data) - i)
	n := remaining
	if avail < n {
		n = avail
	}
	chunk := data[i : i+int(n)]
	if p.OnBody != nil && len(chunk) > 0 {
		if p.OnBody(chunk) == CBError {
			return i, ResultOK, &Error{Kind: ErrInternal}
		}
	}
	p.bodyRead += n
	i += int(n)
	if p.bodyRead >= p.chunkSize {
		p.state = stateChunkDataAlmostDone
	}
	return i, ResultOK, nil
}

func (p *Parser) stepChunkDataAlmostDone(data []byte, i int) (int, Result, *Error) {
	if data[i] != '\r' {
		return i, ResultOK, &Error{Kind: ErrInvalidChunkSize, Reason: "missing chunk CRLF"}
	}
	p.state = stateChunkDataDone
	return i + 1, ResultOK, nil
}

func (p *Parser) stepChunkDataDone(data []byte, i int) (int, Result, *Error) {
	if data[i] != '\n' {
		return i, ResultOK, &Error{Kind: ErrLFExpected}
	}
	if p.OnChunkComplete != nil {
		if p.OnChunkComplete() == CBError {
			return i, ResultOK, &Error{Kind: ErrCBChunkComplete}
		}
	}
	p.state = stateChunkSizeLine
	return i + 1, ResultOK, nil
}

func (p *Parser) completeMessage() (Result, *Error) {
	if p.OnMessageComplete != nil {
		if p.OnMessageComplete() == CBError {
			return ResultOK, &Error{Kind: ErrCBMessageComplete}
		}
	}
	p.state = stateMessageDone
	return ResultOK, nil
}

func (p *Parser) completeMessageAt(i int) (int, Result, *Error) {
	res, err := p.completeMessage()
	return i, res, err
}

func parseHTTPVersion(v []byte) (major, minor int, ok bool) {
	if len(v) != 8 || string(v[:5]) != "HTTP/" || v[6] != '.' {
		return 0, 0, false
	}
	if v[5] < '0' || v[5] > '9' || v[7] < '0' || v[7] > '9' {
		return 0, 0, false
	}
	return int(v[5] - '0'), int(v[7] - '0'), true
}

func parseStatusCode(v []byte) (int, bool) {
	if len(v) != 3 {
		return 0, false
	}
	n := 0
	for _, b := range v {
		if b < '0' || b > '9' {
			return 0, false
		}
		n = n*10 + int(b-'0')
	}
	return n, true
}

// parseContentLength parses a base-10 Content-Length with overflow
// detection against 2^64-1.
func parseContentLength(v string) (uint64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, errInvalidContentLength
	}
	var n uint64
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c < '0' || c > '9' {
			return 0, errInvalidContentLength
		}
		d := uint64(c - '0')
		if n > (maxContentLength-d)/10 {
			return 0, errInvalidContentLength
		}
		n = n*10 + d
	}
	return n, nil
}

func parseHexUint64(v []byte) (uint64, bool) {
	if len(v) == 0 {
		return 0, false
	}
	var n uint64
	for i, b := range v {
		var d uint64
		switch {
		case b >= '0' && b <= '9':
			d = uint64(b - '0')
		case b >= 'a' && b <= 'f':
			d = uint64(b-'a') + 10
		case b >= 'A' && b <= 'F':
			d = uint64(b-'A') + 10
		default:
			return 0, false
		}
		if i >= 16 {
			return 0, false
		}
		n = n<<4 | d
	}
	return n, true
}

func isTokenChar(b byte) bool {
	return int(b) < len(tokenTable) && tokenTable[b]
}

var tokenTable = [127]bool{
	'0': true, '1': true, '2': true, '3': true, '4': true, '5': true, '6': true, '7': true,
	'8': true, '9': true,
	'a': true, 'b': true, 'c': true, 'd': true, 'e': true, 'f': true, 'g': true, 'h': true,
	'i': true, 'j': true, 'k': true, 'l': true, 'm': true, 'n': true, 'o': true, 'p': true,
	'q': true, 'r': true, 's': true, 't': true, 'u': true, 'v': true, 'w': true, 'x': true,
	'y': true, 'z': true,
	'A': true, 'B': true, 'C': true, 'D': true, 'E': true, 'F': true, 'G': true, 'H': true,
	'I': true, 'J': true, 'K': true, 'L': true, 'M': true, 'N': true, 'O': true, 'P': true,
	'Q': true, 'R': true, 'S': true, 'T': true, 'U': true, 'V': true, 'W': true, 'X': true,
	'Y': true, 'Z': true,
	'!': true, '#': true, '$': true, '%': true, '&': true, '\'': true, '*': true, '+': true,
	'-': true, '.': true, '^': true, '_': true, '`': true, '|': true, '~': true,
}

// methodAlphabet is the fixed set of methods the parser recognizes, keyed
// by their wire form. A real implementation would walk this as a prefix
// trie; a map lookup gives the same externally observable behavior for a
// set this small.
var methodAlphabet = map[string]bool{
	"DELETE": true, "GET": true, "HEAD": true, "POST": true, "PUT": true,
	"CONNECT": true, "OPTIONS": true, "TRACE": true, "COPY": true, "LOCK": true,
	"MKCOL": true, "MOVE": true, "PROPFIND": true, "PROPPATCH": true, "SEARCH": true,
	"UNLOCK": true, "BIND": true, "REBIND": true, "UNBIND": true, "ACL": true,
	"REPORT": true, "MKACTIVITY": true, "CHECKOUT": true, "MERGE": true,
	"M-SEARCH": true, "NOTIFY": true, "SUBSCRIBE": true, "UNSUBSCRIBE": true,
	"PATCH": true, "PURGE": true, "MKCALENDAR": true, "LINK": true, "UNLINK": true,
	"SOURCE": true, "PRI": true, "DESCRIBE": true, "ANNOUNCE": true,
}

func validMethod(m string) bool { return methodAlphabet[m] }

var errInvalidContentLength = &Error{Kind: ErrInvalidContentLength, Reason: "malformed or overflowing digits"}

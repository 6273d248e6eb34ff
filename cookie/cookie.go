/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package cookie implements RFC 6265 cookie parsing and serialization.
package cookie

import (
	"strconv"
	"strings"
	"time"
)

// Options carries the optional attributes of a Set-Cookie value.
type Options struct {
	MaxAge   int // -1 means unset
	Expires  string
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
}

// Cookie is a single name/value pair plus its Set-Cookie attributes.
type Cookie struct {
	Name  string
	Value string
	Options
}

// New returns a Cookie with MaxAge unset.
func New(name, value string) Cookie {
	return Cookie{Name: name, Value: value, Options: Options{MaxAge: -1}}
}

// Valid reports whether both name and value are non-empty.
func (c Cookie) Valid() bool { return c.Name != "" && c.Value != "" }

// String renders the Set-Cookie header line for c.
func (c Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	if c.Path != "" {
		b.WriteString("; path=")
		b.WriteString(c.Path)
	}
	if c.Domain != "" {
		b.WriteString("; domain=")
		b.WriteString(c.Domain)
	}
	if c.MaxAge != -1 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
		if c.Expires == "" {
			b.WriteString("; expires=")
			b.WriteString(time.Now().Add(time.Duration(c.MaxAge) * time.Second).UTC().Format(gmtFormat))
		}
	}
	if c.Expires != "" {
		b.WriteString("; expires=")
		b.WriteString(c.Expires)
	}
	if c.Secure {
		b.WriteString("; secure")
	}
	if c.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	return b.String()
}

const gmtFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

var attributeNames = map[string]bool{"path": true, "domain": true, "max-age": true, "expires": true}

// Parse decodes a Cookie: header value into a single name/value pair plus
// whichever attribute-looking pairs also showed up in the same string (a
// client never actually sends attributes on a request, but Parse tolerates
// them so it can also be used to read a Set-Cookie value back). Only the
// first non-attribute pair is retained as the cookie's name/value; any
// further ones are ignored rather than overwriting it.
func Parse(s string) Cookie {
	c := Cookie{Options: Options{MaxAge: -1}}
	nameSet := false
	for _, part := range strings.Split(s, "; ") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			key := strings.ToLower(kv[0])
			if !attributeNames[key] {
				if !nameSet {
					c.Name = kv[0]
					c.Value = kv[1]
					nameSet = true
				}
				continue
			}
			switch key {
			case "path":
				c.Path = kv[1]
			case "domain":
				c.Domain = kv[1]
			case "expires":
				c.Expires = kv[1]
			case "max-age":
				if n, err := strconv.Atoi(kv[1]); err == nil {
					c.MaxAge = n
				}
			}
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "secure":
			c.Secure = true
		case "httponly":
			c.HTTPOnly = true
		}
	}
	return c
}

// ParseAll splits a Cookie: header value on "; " into one Cookie per
// name=value pair, ignoring any bare attribute tokens (a well-formed
// request Cookie header never carries attributes; ParseAll exists for
// the common case of reading several simple cookies in one header).
func ParseAll(s string) []Cookie {
	var out []Cookie
	for _, part := range strings.Split(s, "; ") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out = append(out, Cookie{Name: kv[0], Value: kv[1], Options: Options{MaxAge: -1}})
	}
	return out
}

// Jar is an ordered collection of cookies accumulated for one request or
// response, keyed by name for Get/Set but iterated in insertion order by
// All so repeated Set-Cookie headers come out in the order they were added.
// Cookies loaded from an inbound header via LoadHeader are readable through
// Get but never appear in All: only cookies explicitly queued via Set are
// emitted outbound, so a handler merely reading the request's cookies never
// causes them to be echoed back as Set-Cookie on the response.
type Jar struct {
	order  []string
	queued map[string]bool
	byName map[string]Cookie
}

// NewJar returns an empty Jar.
func NewJar() *Jar {
	return &Jar{byName: make(map[string]Cookie), queued: make(map[string]bool)}
}

// Get returns the named cookie's value, or "" if absent.
func (j *Jar) Get(name string) string {
	return j.byName[name].Value
}

// Set stores or replaces the named cookie and queues it for outbound
// Set-Cookie emission.
func (j *Jar) Set(c Cookie) {
	if !j.queued[c.Name] {
		j.order = append(j.order, c.Name)
		j.queued[c.Name] = true
	}
	j.byName[c.Name] = c
}

// All returns every cookie queued for outbound emission, in insertion order.
func (j *Jar) All() []Cookie {
	out := make([]Cookie, 0, len(j.order))
	for _, name := range j.order {
		out = append(out, j.byName[name])
	}
	return out
}

// LoadHeader populates the jar from a request's Cookie: header value, for
// Get lookups only — it does not queue these cookies for outbound emission.
func (j *Jar) LoadHeader(header string) {
	for _, c := range ParseAll(header) {
		j.byName[c.Name] = c
	}
}

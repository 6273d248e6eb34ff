/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package cookie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaultsMaxAgeUnset(t *testing.T) {
	c := New("session", "abc")
	require.Equal(t, -1, c.MaxAge)
	require.True(t, c.Valid())
}

func TestValidRejectsEmptyNameOrValue(t *testing.T) {
	require.False(t, Cookie{Name: "", Value: "x", Options: Options{MaxAge: -1}}.Valid())
	require.False(t, Cookie{Name: "x", Value: "", Options: Options{MaxAge: -1}}.Valid())
}

func TestStringRendersAttributesInOrder(t *testing.T) {
	c := New("session", "abc")
	c.Path = "/"
	c.Domain = "example.com"
	c.Secure = true
	c.HTTPOnly = true
	s := c.String()
	require.Equal(t, "session=abc; path=/; domain=example.com; secure; HttpOnly", s)
}

func TestStringWithMaxAgeAddsComputedExpires(t *testing.T) {
	c := New("session", "abc")
	c.MaxAge = 3600
	s := c.String()
	require.Contains(t, s, "Max-Age=3600")
	require.Contains(t, s, "expires=")
}

func TestStringWithExplicitExpiresSkipsComputedOne(t *testing.T) {
	c := New("session", "abc")
	c.MaxAge = 3600
	c.Expires = "Wed, 09 Jun 2027 10:18:14 GMT"
	s := c.String()
	require.Equal(t, "session=abc; Max-Age=3600; expires=Wed, 09 Jun 2027 10:18:14 GMT", s)
}

func TestParseSimplePair(t *testing.T) {
	c := Parse("session=abc")
	require.Equal(t, "session", c.Name)
	require.Equal(t, "abc", c.Value)
	require.Equal(t, -1, c.MaxAge)
}

func TestParseWithAttributes(t *testing.T) {
	c := Parse("session=abc; path=/; domain=example.com; Max-Age=60; secure; HttpOnly")
	require.Equal(t, "session", c.Name)
	require.Equal(t, "abc", c.Value)
	require.Equal(t, "/", c.Path)
	require.Equal(t, "example.com", c.Domain)
	require.Equal(t, 60, c.MaxAge)
	require.True(t, c.Secure)
	require.True(t, c.HTTPOnly)
}

func TestParseKeepsOnlyFirstNonAttributePair(t *testing.T) {
	c := Parse("a=1; b=2")
	require.Equal(t, "a", c.Name)
	require.Equal(t, "1", c.Value)
}

func TestParseAllSplitsMultiplePairs(t *testing.T) {
	cs := ParseAll("a=1; b=2; c=3")
	require.Len(t, cs, 3)
	require.Equal(t, "a", cs[0].Name)
	require.Equal(t, "1", cs[0].Value)
	require.Equal(t, "c", cs[2].Name)
}

func TestParseAllIgnoresBareTokens(t *testing.T) {
	cs := ParseAll("a=1; secure; b=2")
	require.Len(t, cs, 2)
}

func TestJarPreservesInsertionOrder(t *testing.T) {
	j := NewJar()
	j.Set(New("b", "2"))
	j.Set(New("a", "1"))
	j.Set(New("c", "3"))

	all := j.All()
	require.Len(t, all, 3)
	require.Equal(t, []string{"b", "a", "c"}, []string{all[0].Name, all[1].Name, all[2].Name})
}

func TestJarSetOverwritesWithoutReordering(t *testing.T) {
	j := NewJar()
	j.Set(New("a", "1"))
	j.Set(New("b", "2"))
	j.Set(New("a", "updated"))

	all := j.All()
	require.Equal(t, "a", all[0].Name)
	require.Equal(t, "updated", all[0].Value)
	require.Len(t, all, 2)
}

func TestJarGetReturnsEmptyForMissing(t *testing.T) {
	j := NewJar()
	require.Equal(t, "", j.Get("missing"))
}

func TestJarLoadHeaderPopulatesFromCookieHeader(t *testing.T) {
	j := NewJar()
	j.LoadHeader("session=abc; theme=dark")
	require.Equal(t, "abc", j.Get("session"))
	require.Equal(t, "dark", j.Get("theme"))
}

func TestJarLoadHeaderDoesNotQueueCookiesForOutboundEmission(t *testing.T) {
	j := NewJar()
	j.LoadHeader("session=abc; theme=dark")

	require.Empty(t, j.All(), "reading inbound cookies must not echo them back as Set-Cookie")
}

func TestJarSetAfterLoadHeaderQueuesOnlyTheExplicitlySetCookie(t *testing.T) {
	j := NewJar()
	j.LoadHeader("session=abc; theme=dark")
	j.Set(New("session", "replaced"))

	all := j.All()
	require.Len(t, all, 1)
	require.Equal(t, "session", all[0].Name)
	require.Equal(t, "replaced", all[0].Value)
}

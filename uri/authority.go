// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uri

import (
	"strconv"
	"strings"
)

// Authority is the RFC 3986 authority component:
// "[userinfo@]host[:port]". Bracketed IPv6 hosts are supported.
type Authority struct {
	userinfo string
	host     string
	port     uint16
	hasPort  bool
}

// ParseAuthority parses s as an authority component.
func ParseAuthority(s string) (Authority, error) {
	if s == "" {
		return Authority{}, parseErr(0, KindEmpty)
	}

	var a Authority
	rest := s
	offset := 0

	if at := strings.LastIndexByte(rest, '@'); at >= 0 {
		a.userinfo = rest[:at]
		for i := 0; i < len(a.userinfo); {
			b := a.userinfo[i]
			if b == '%' {
				next, err := checkEscape(a.userinfo, i)
				if err != nil {
					return Authority{}, parseErr(i, KindInvalidEscape)
				}
				i = next
				continue
			}
			if !isUserinfoChar(b) {
				return Authority{}, parseErr(i, KindInvalidChar)
			}
			i++
		}
		rest = rest[at+1:]
		offset = at + 1
	}

	// Host: either a bracketed IP literal or a reg-name / IPv4.
	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return Authority{}, parseErr(offset, KindInvalidHost)
		}
		a.host = rest[:end+1]
		rest = rest[end+1:]
		offset += end + 1
	} else {
		end := strings.IndexByte(rest, ':')
		if end < 0 {
			end = len(rest)
		}
		a.host = rest[:end]
		rest = rest[end:]
		offset += end
	}
	if a.host == "" {
		return Authority{}, parseErr(offset, KindInvalidHost)
	}
	for i := 0; i < len(a.host); i++ {
		if b := a.host[i]; !isHostChar(b) && b != ':' {
			return Authority{}, parseErr(offset-len(a.host)+i, KindInvalidHost)
		}
	}

	if rest != "" {
		if rest[0] != ':' {
			return Authority{}, parseErr(offset, KindInvalidChar)
		}
		portStr := rest[1:]
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil || portStr == "" {
			return Authority{}, parseErr(offset+1, KindInvalidPort)
		}
		a.port = uint16(port)
		a.hasPort = true
	}
	return a, nil
}

// Userinfo returns the userinfo component, or "" if absent.
func (a Authority) Userinfo() string { return a.userinfo }

// Host returns the host component, brackets included for IP literals.
func (a Authority) Host() string { return a.host }

// Port returns the port and whether one was present.
func (a Authority) Port() (uint16, bool) { return a.port, a.hasPort }

// String reconstructs the authority text.
func (a Authority) String() string {
	var b strings.Builder
	if a.userinfo != "" {
		b.WriteString(a.userinfo)
		b.WriteByte('@')
	}
	b.WriteString(a.host)
	if a.hasPort {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(a.port), 10))
	}
	return b.String()
}

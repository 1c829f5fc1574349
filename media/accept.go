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

package media

import (
	"sort"
	"strconv"
	"strings"
)

// Range is one media range from an Accept header, with its quality.
type Range struct {
	Type    Type
	Quality float64
}

// ParseAccept parses an Accept header into media ranges ordered by
// descending quality, then by descending specificity, preserving header
// position for full ties. Malformed ranges are skipped rather than
// failing the whole header, matching what HTTP clients actually send.
func ParseAccept(header string) []Range {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	var ranges []Range
	for _, piece := range strings.Split(header, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		t, err := Parse(piece)
		if err != nil {
			continue
		}

		quality := 1.0
		if raw, ok := t.Param("q"); ok {
			q, err := strconv.ParseFloat(raw, 64)
			if err != nil || q < 0 || q > 1 {
				continue
			}
			quality = q
		}
		ranges = append(ranges, Range{Type: t, Quality: quality})
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].Quality != ranges[j].Quality {
			return ranges[i].Quality > ranges[j].Quality
		}
		return ranges[i].Type.Specificity() > ranges[j].Type.Specificity()
	})
	return ranges
}

// Accepts reports whether any range in the Accept header is compatible
// with t. Ranges with q=0 are explicit refusals and never match. An
// empty header accepts everything.
func Accepts(header string, t Type) bool {
	if strings.TrimSpace(header) == "" {
		return true
	}
	for _, r := range ParseAccept(header) {
		if r.Quality > 0 && r.Type.Compatible(t) {
			return true
		}
	}
	return false
}

// Preferred returns the first offer compatible with the highest-quality
// acceptable range. An empty header yields the first offer; the zero
// Type is returned when there are no offers or nothing matches.
func Preferred(header string, offers ...Type) Type {
	if len(offers) == 0 {
		return Type{}
	}
	if strings.TrimSpace(header) == "" {
		return offers[0]
	}
	for _, r := range ParseAccept(header) {
		if r.Quality == 0 {
			continue
		}
		for _, offer := range offers {
			if r.Type.Compatible(offer) {
				return offer
			}
		}
	}
	return Type{}
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import "testing"

func TestParseStyleLastWriteWins(t *testing.T) {
	m := ParseStyle("fillColor=#fff;rounded=1;fillColor=#000")
	if m["fillColor"] != "#000" {
		t.Fatalf("duplicate key should resolve last-write-wins, got %q", m["fillColor"])
	}
	if m["rounded"] != "1" {
		t.Fatalf("rounded lost: %v", m)
	}
}

func TestFormatStyleDropsEmptyValues(t *testing.T) {
	s := FormatStyle(map[string]string{"rounded": "1", "dashed": "", "fillColor": "#dae8fc"})
	if s != "fillColor=#dae8fc;rounded=1;" {
		t.Fatalf("unexpected serialization: %q", s)
	}
}

func TestStyleWith(t *testing.T) {
	s := Style("rounded=0;")
	s = s.With("rounded", "1")
	s = s.With("strokeColor", "#6c8ebf")
	if v, ok := s.Get("rounded"); !ok || v != "1" {
		t.Fatalf("rounded not updated: %q", s)
	}
	if v, ok := s.Get("strokeColor"); !ok || v != "#6c8ebf" {
		t.Fatalf("strokeColor missing: %q", s)
	}
}

func TestStyleRoundTrip(t *testing.T) {
	orig := Style("edgeStyle=orthogonalEdgeStyle;endArrow=block;rounded=1;")
	again := FormatStyle(ParseStyle(orig))
	if ParseStyle(again)["edgeStyle"] != "orthogonalEdgeStyle" || len(ParseStyle(again)) != 3 {
		t.Fatalf("round trip lost keys: %q", again)
	}
}

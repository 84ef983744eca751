/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"sort"
	"strings"
)

// Style is the semicolon-delimited key=value micro-format used by the XML
// vocabulary, e.g. "rounded=1;fillColor=#dae8fc". Duplicate keys resolve
// last-write-wins; serialization order is not part of the contract (this
// implementation emits keys sorted so Encode is deterministic).
type Style string

// ParseStyle splits a style string into its key/value mapping.
// Entries without '=' are treated as flag keys with empty value.
func ParseStyle(s Style) map[string]string {
	m := make(map[string]string)
	for _, part := range strings.Split(string(s), ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i := strings.IndexByte(part, '='); i >= 0 {
			m[part[:i]] = part[i+1:]
		} else {
			m[part] = ""
		}
	}
	return m
}

// FormatStyle serializes a style mapping. Keys with empty values are dropped.
func FormatStyle(m map[string]string) Style {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if k == "" || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(m[k])
		b.WriteByte(';')
	}
	return Style(b.String())
}

// Canonical reserializes the style into the deterministic form the codec
// emits: keys sorted, duplicates collapsed, empty values dropped.
func (s Style) Canonical() Style { return FormatStyle(ParseStyle(s)) }

// With returns a copy of the style with key set to value.
func (s Style) With(key, value string) Style {
	m := ParseStyle(s)
	m[key] = value
	return FormatStyle(m)
}

// Get returns the value for key and whether it is present.
func (s Style) Get(key string) (string, bool) {
	v, ok := ParseStyle(s)[key]
	return v, ok
}

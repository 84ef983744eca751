/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene holds the in-memory diagram model: a document-ordered set of
// vertices and edges plus the pure edit operations that transform one scene
// into the next. Operations never mutate their input; every call returns a
// fresh deep copy so history snapshots stay independent of the live scene.
package scene

import "godiagram/internal/geom"

// Scene is the authoritative in-memory diagram: elements keyed by id,
// preserving document order for stable encoding.
type Scene struct {
	order []string
	byID  map[string]Element
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{byID: make(map[string]Element)}
}

// FromElements builds a scene from elements in the given order.
// Later duplicates of an id replace earlier ones without reordering.
func FromElements(els []Element) *Scene {
	s := New()
	for _, el := range els {
		s.put(el)
	}
	return s
}

func (s *Scene) put(el Element) {
	if _, ok := s.byID[el.ID()]; !ok {
		s.order = append(s.order, el.ID())
	}
	s.byID[el.ID()] = el
}

func (s *Scene) remove(id string) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of elements.
func (s *Scene) Len() int { return len(s.order) }

// Get returns the element with the given id, or nil.
func (s *Scene) Get(id string) Element { return s.byID[id] }

// Vertex returns the vertex with the given id, or nil if absent or an edge.
func (s *Scene) Vertex(id string) *Vertex {
	v, _ := s.byID[id].(*Vertex)
	return v
}

// Edge returns the edge with the given id, or nil if absent or a vertex.
func (s *Scene) Edge(id string) *Edge {
	e, _ := s.byID[id].(*Edge)
	return e
}

// Elements returns the elements in document order. The slice is fresh but the
// elements are the scene's own; callers that mutate must Clone first.
func (s *Scene) Elements() []Element {
	out := make([]Element, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// IDs returns the element ids in document order.
func (s *Scene) IDs() []string { return append([]string(nil), s.order...) }

// Clone returns a deep copy. Stored history snapshots rely on this: edits to
// the live scene must never reach a snapshot.
func (s *Scene) Clone() *Scene {
	c := New()
	for _, id := range s.order {
		c.put(s.byID[id].Clone())
	}
	return c
}

// Equal reports value equality within the given coordinate tolerance.
func (s *Scene) Equal(o *Scene, eps float64) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i, id := range s.order {
		if o.order[i] != id {
			return false
		}
		if !elementsEqual(s.byID[id], o.byID[id], eps) {
			return false
		}
	}
	return true
}

func elementsEqual(a, b Element, eps float64) bool {
	switch av := a.(type) {
	case *Vertex:
		bv, ok := b.(*Vertex)
		if !ok {
			return false
		}
		return av.Ident == bv.Ident && av.Text == bv.Text && av.Shape == bv.Shape &&
			geom.Near(av.X, bv.X, eps) && geom.Near(av.Y, bv.Y, eps) &&
			geom.Near(av.W, bv.W, eps) && geom.Near(av.H, bv.H, eps) &&
			geom.Near(av.Rotation, bv.Rotation, eps)
	case *Edge:
		be, ok := b.(*Edge)
		if !ok {
			return false
		}
		if av.Ident != be.Ident || av.Text != be.Text || av.Shape != be.Shape ||
			av.Source != be.Source || av.Target != be.Target || len(av.Points) != len(be.Points) {
			return false
		}
		for i := range av.Points {
			if !geom.Near(av.Points[i].X, be.Points[i].X, eps) || !geom.Near(av.Points[i].Y, be.Points[i].Y, eps) {
				return false
			}
		}
		return true
	}
	return false
}

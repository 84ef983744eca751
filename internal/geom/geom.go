/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

// Basic 2D geometry for the diagram scene. Values use float64 because the XML
// document carries free-form decimal coordinates.

import "math"

// Pt is a 2D point.
type Pt struct{ X, Y float64 }

// Add returns p translated by (dx, dy).
func (p Pt) Add(dx, dy float64) Pt { return Pt{p.X + dx, p.Y + dy} }

// Dist returns the Euclidean distance to q.
func (p Pt) Dist(q Pt) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt    { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt    { return Pt{r.X + r.W, r.Y + r.H} }
func (r Rect) Center() Pt { return Pt{r.X + r.W/2, r.Y + r.H/2} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// BoundsOf returns the axis-aligned bounding box of the given points.
// An empty slice yields the zero Rect.
func BoundsOf(pts []Pt) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// RotateAbout rotates p around pivot by deg degrees (clockwise in screen
// coordinates, where y grows downward).
func RotateAbout(p, pivot Pt, deg float64) Pt {
	rad := deg * math.Pi / 180
	s, c := math.Sin(rad), math.Cos(rad)
	dx := p.X - pivot.X
	dy := p.Y - pivot.Y
	return Pt{
		X: pivot.X + dx*c - dy*s,
		Y: pivot.Y + dx*s + dy*c,
	}
}

// ScaleAbout scales p relative to the center by (sx, sy).
func ScaleAbout(p, center Pt, sx, sy float64) Pt {
	return Pt{
		X: center.X + (p.X-center.X)*sx,
		Y: center.Y + (p.Y-center.Y)*sy,
	}
}

// NormalizeDeg maps an angle in degrees into [0, 360).
func NormalizeDeg(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// AngleDeg returns the angle of the vector pivot->p in degrees.
func AngleDeg(pivot, p Pt) float64 {
	return math.Atan2(p.Y-pivot.Y, p.X-pivot.X) * 180 / math.Pi
}

// DistToSegment returns the distance from p to the segment a-b.
func DistToSegment(p, a, b Pt) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	if dx == 0 && dy == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Pt{X: a.X + t*dx, Y: a.Y + t*dy})
}

// Mid returns the midpoint of a and b.
func Mid(a, b Pt) Pt { return Pt{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2} }

// Near reports whether a and b differ by no more than eps.
func Near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package mxgraph is the codec between the scene model and the mxGraph-style
// XML interchange document (the vocabulary draw.io and compatible tools
// exchange: mxCell nodes with mxGeometry records, mxPoint children
// discriminated by an "as" attribute, reserved cell ids "0" and "1").
//
// Decode turns a document into scene elements; Encode merges a scene back
// into an existing document, preserving everything the editor does not own:
// the root/layer scaffold, unknown attributes, and unknown sibling nodes.
package mxgraph

import "encoding/xml"

// Values of the "as" discriminator attribute on geometry children.
const (
	asGeometry    = "geometry"
	asSourcePoint = "sourcePoint"
	asTargetPoint = "targetPoint"
	asPoints      = "points"
)

// EmptyDocument is a minimal valid scaffold: the reserved root cell and the
// default layer, no diagram content. Used when creating a file from nothing.
const EmptyDocument = `<mxGraphModel dx="800" dy="600" grid="1" gridSize="10">
  <root>
    <mxCell id="0"></mxCell>
    <mxCell id="1" parent="0"></mxCell>
  </root>
</mxGraphModel>`

// Model is the parsed document. The root element name and its attributes are
// carried through untouched so re-encoding does not disturb viewer settings
// (dx/dy/grid and friends).
type Model struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Root    Root       `xml:"root"`
}

// Root is the cell container. Non-cell children are captured raw and written
// back verbatim; the editor never interprets them.
type Root struct {
	Attrs []xml.Attr `xml:",any,attr"`
	Cells []Cell     `xml:"mxCell"`
	Extra []RawNode  `xml:",any"`
}

// Cell is one mxCell node. Numeric and flag attributes stay strings here;
// the decoder applies the tolerant-parse defaults. Attributes outside the
// modeled set survive a decode/encode cycle in Extra.
type Cell struct {
	ID       string     `xml:"id,attr"`
	Value    string     `xml:"value,attr,omitempty"`
	Style    string     `xml:"style,attr,omitempty"`
	Vertex   string     `xml:"vertex,attr,omitempty"`
	Edge     string     `xml:"edge,attr,omitempty"`
	Parent   string     `xml:"parent,attr,omitempty"`
	Source   string     `xml:"source,attr,omitempty"`
	Target   string     `xml:"target,attr,omitempty"`
	Extra    []xml.Attr `xml:",any,attr"`
	Geometry *Geometry  `xml:"mxGeometry"`
}

// Geometry is the mxGeometry record of a cell. For vertices the box
// attributes are authoritative; for edges the nested points are.
type Geometry struct {
	X        string     `xml:"x,attr,omitempty"`
	Y        string     `xml:"y,attr,omitempty"`
	Width    string     `xml:"width,attr,omitempty"`
	Height   string     `xml:"height,attr,omitempty"`
	Relative string     `xml:"relative,attr,omitempty"`
	As       string     `xml:"as,attr,omitempty"`
	Extra    []xml.Attr `xml:",any,attr"`
	Points   []Point    `xml:"mxPoint"`
	Array    *PointList `xml:"Array"`
}

// Point is an mxPoint; As discriminates sourcePoint/targetPoint at the
// geometry level and is empty for waypoints inside the Array.
type Point struct {
	X     string     `xml:"x,attr,omitempty"`
	Y     string     `xml:"y,attr,omitempty"`
	As    string     `xml:"as,attr,omitempty"`
	Extra []xml.Attr `xml:",any,attr"`
}

// PointList is the ordered waypoint array of an edge geometry.
type PointList struct {
	As     string  `xml:"as,attr,omitempty"`
	Points []Point `xml:"mxPoint"`
}

// RawNode preserves an element the codec does not model. InnerXML is written
// back byte for byte.
type RawNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	InnerXML string     `xml:",innerxml"`
}

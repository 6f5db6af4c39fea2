package pattern

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Edge joins two vertices of a Wireframe by index.
type Edge [2]int

// Wireframe is a set of 3D vertices and the edges drawn between them.
type Wireframe struct {
	Vertices []r3.Vector
	Edges    []Edge
}

// CheckValid checks that every edge refers to an existing vertex.
func (w Wireframe) CheckValid() error {
	for i, e := range w.Edges {
		for _, v := range e {
			if v < 0 || v >= len(w.Vertices) {
				return errors.Errorf("edge %d refers to vertex %d of %d", i, v, len(w.Vertices))
			}
		}
	}
	return nil
}

// Axes returns the origin and the three axis endpoints, each length units
// along +x, +y and +z of the board frame. Edges are ordered x, y, z.
func Axes(length float64) Wireframe {
	return Wireframe{
		Vertices: []r3.Vector{
			{X: 0, Y: 0, Z: 0},
			{X: length, Y: 0, Z: 0},
			{X: 0, Y: length, Z: 0},
			{X: 0, Y: 0, Z: length},
		},
		Edges: []Edge{{0, 1}, {0, 2}, {0, 3}},
	}
}

// Cube returns a cube with side length side whose base lies on the board,
// starting at origin and extending along +x, -y (into the board area) and +z.
func Cube(origin r3.Vector, side float64) Wireframe {
	base := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: side, Y: 0, Z: 0},
		{X: side, Y: -side, Z: 0},
		{X: 0, Y: -side, Z: 0},
	}
	vertices := make([]r3.Vector, 0, 8)
	for _, v := range base {
		vertices = append(vertices, origin.Add(v))
	}
	for _, v := range base {
		vertices = append(vertices, origin.Add(v).Add(r3.Vector{Z: side}))
	}

	edges := make([]Edge, 0, 12)
	for i := 0; i < 4; i++ {
		next := (i + 1) % 4
		edges = append(edges, Edge{i, next})         // base
		edges = append(edges, Edge{i + 4, next + 4}) // top
		edges = append(edges, Edge{i, i + 4})        // pillar
	}
	return Wireframe{Vertices: vertices, Edges: edges}
}

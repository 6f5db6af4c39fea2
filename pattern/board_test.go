package pattern

import (
	"image"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPointSet(t *testing.T) {
	b := DefaultBoard()
	pts := b.PointSet()
	test.That(t, len(pts), test.ShouldEqual, 54)
	test.That(t, pts[0], test.ShouldResemble, r3.Vector{})
	test.That(t, pts[1], test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, pts[8], test.ShouldResemble, r3.Vector{X: 8})
	test.That(t, pts[9], test.ShouldResemble, r3.Vector{X: 0, Y: -1})
	test.That(t, pts[53], test.ShouldResemble, r3.Vector{X: 8, Y: -5})

	for i, p := range pts {
		test.That(t, p.X, test.ShouldEqual, float64(i%b.Cols))
		test.That(t, p.Y, test.ShouldEqual, -float64(i/b.Cols))
		test.That(t, p.Z, test.ShouldEqual, 0)
	}
}

func TestPointSetIsStable(t *testing.T) {
	b := Board{Cols: 4, Rows: 3, Square: 2.5}
	first := b.PointSet()
	second := b.PointSet()
	test.That(t, first, test.ShouldResemble, second)
	test.That(t, len(first), test.ShouldEqual, 12)
	test.That(t, first[5], test.ShouldResemble, r3.Vector{X: 2.5, Y: -2.5})
}

func TestBoardCheckValid(t *testing.T) {
	test.That(t, DefaultBoard().CheckValid(), test.ShouldBeNil)
	test.That(t, Board{Cols: 1, Rows: 6, Square: 1}.CheckValid(), test.ShouldNotBeNil)
	test.That(t, Board{Cols: 9, Rows: 6, Square: 0}.CheckValid(), test.ShouldNotBeNil)
	test.That(t, DefaultBoard().Size(), test.ShouldResemble, image.Point{X: 9, Y: 6})
	test.That(t, DefaultBoard().String(), test.ShouldEqual, "9x6@1")
}

func TestWireframes(t *testing.T) {
	axes := Axes(3)
	test.That(t, len(axes.Vertices), test.ShouldEqual, 4)
	test.That(t, axes.Vertices[3], test.ShouldResemble, r3.Vector{Z: 3})
	test.That(t, len(axes.Edges), test.ShouldEqual, 3)

	cube := Cube(r3.Vector{X: 1, Y: -1}, 2)
	test.That(t, len(cube.Vertices), test.ShouldEqual, 8)
	test.That(t, len(cube.Edges), test.ShouldEqual, 12)
	test.That(t, cube.Vertices[0], test.ShouldResemble, r3.Vector{X: 1, Y: -1})
	test.That(t, cube.Vertices[6], test.ShouldResemble, r3.Vector{X: 3, Y: -3, Z: 2})

	degree := make([]int, 8)
	for _, e := range cube.Edges {
		degree[e[0]]++
		degree[e[1]]++
	}
	for _, d := range degree {
		test.That(t, d, test.ShouldEqual, 3)
	}
}

func TestWireframeCheckValid(t *testing.T) {
	test.That(t, Axes(1).CheckValid(), test.ShouldBeNil)
	test.That(t, Cube(r3.Vector{}, 1).CheckValid(), test.ShouldBeNil)
	bad := Wireframe{Vertices: []r3.Vector{{}, {X: 1}}, Edges: []Edge{{0, 2}}}
	test.That(t, bad.CheckValid(), test.ShouldNotBeNil)
}

// Package pattern describes the printed chessboard reference pattern and the
// fixed 3D geometry drawn on top of it.
package pattern

import (
	"fmt"
	"image"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Default board geometry: 9x6 inner corners, one world unit per square.
const (
	DefaultCols   = 9
	DefaultRows   = 6
	DefaultSquare = 1.0
)

// Board is a chessboard counted by inner corners.
type Board struct {
	Cols   int     // inner corners per row
	Rows   int     // inner corners per column
	Square float64 // distance between neighbouring corners, world units
}

// DefaultBoard returns the 9x6 unit-square board.
func DefaultBoard() Board {
	return Board{Cols: DefaultCols, Rows: DefaultRows, Square: DefaultSquare}
}

// CheckValid checks the board dimensions.
func (b Board) CheckValid() error {
	if b.Cols < 2 || b.Rows < 2 {
		return errors.Errorf("board needs at least 2x2 inner corners, got %dx%d", b.Cols, b.Rows)
	}
	if b.Square <= 0 {
		return errors.Errorf("invalid square size %v", b.Square)
	}
	return nil
}

// Size returns the pattern size in the (cols, rows) form OpenCV expects.
func (b Board) Size() image.Point {
	return image.Point{X: b.Cols, Y: b.Rows}
}

// Len is the number of inner corners.
func (b Board) Len() int {
	return b.Cols * b.Rows
}

func (b Board) String() string {
	return fmt.Sprintf("%dx%d@%g", b.Cols, b.Rows, b.Square)
}

// PointSet generates the world positions of the inner corners in row-major
// order, matching the order the chessboard detector reports image corners.
// Corner (row i, col j) sits at (j*Square, -i*Square, 0), so the board's y
// axis points up the image and z points out of the board toward the camera.
func (b Board) PointSet() []r3.Vector {
	points := make([]r3.Vector, 0, b.Len())
	for i := 0; i < b.Rows; i++ {
		for j := 0; j < b.Cols; j++ {
			points = append(points, r3.Vector{
				X: float64(j) * b.Square,
				Y: float64(-i) * b.Square,
				Z: 0,
			})
		}
	}
	return points
}

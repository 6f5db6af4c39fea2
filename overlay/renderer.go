// Package overlay draws detections and projected board geometry onto frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gocv.io/x/gocv"

	"checkercam/detection"
	"checkercam/pattern"
	"checkercam/pose"
)

// debugMsgVerboseFunc is set by main package for verbose logging only
var debugMsgVerboseFunc func(component, message string)

// SetDebugVerboseFunction allows main package to provide the verbose debug logger
func SetDebugVerboseFunction(fn func(component, message string)) {
	debugMsgVerboseFunc = fn
}

func debugMsgVerbose(component, message string) {
	if debugMsgVerboseFunc != nil {
		debugMsgVerboseFunc(component, message)
	}
}

// Renderer draws detections and projected geometry onto frames.
type Renderer struct {
	board      pattern.Board
	axes       pattern.Wireframe
	cube       pattern.Wireframe
	axisColors [3]color.RGBA
	cubeColor  color.RGBA
	cornerMark color.RGBA
	statusText color.RGBA
	showBoard  bool
}

// NewRenderer creates a renderer for board. The axes are three squares long
// and the cube sits on the second square of the first row.
func NewRenderer(board pattern.Board) *Renderer {
	s := board.Square
	return &Renderer{
		board: board,
		axes:  pattern.Axes(3 * s),
		cube:  pattern.Cube(r3.Vector{X: s}, 2*s),
		axisColors: [3]color.RGBA{
			{255, 0, 0, 255}, // x
			{0, 255, 0, 255}, // y
			{0, 0, 255, 255}, // z
		},
		cubeColor:  color.RGBA{255, 255, 0, 255},
		cornerMark: color.RGBA{0, 0, 0, 255},
		statusText: color.RGBA{0, 255, 0, 255},
		showBoard:  true,
	}
}

// ToggleBoard flips drawing of the detected chessboard corners and returns the new state.
func (r *Renderer) ToggleBoard() bool {
	r.showBoard = !r.showBoard
	return r.showBoard
}

// DrawChessboard draws the detected corners the way OpenCV does.
func (r *Renderer) DrawChessboard(img *gocv.Mat, res *detection.Result) {
	if !r.showBoard || res == nil || !res.Found {
		return
	}
	corners, ok := res.CornerMat()
	if !ok {
		return
	}
	gocv.DrawChessboardCorners(img, r.board.Size(), corners, true)
}

// DrawAxes draws the board-frame axes, x red, y green, z blue.
func (r *Renderer) DrawAxes(img *gocv.Mat, p pose.Pose, segs []pose.Segment) {
	for i, s := range segs {
		if i >= len(r.axisColors) {
			break
		}
		r.line(img, s, r.axisColors[i], 3)
	}
	debugMsgVerbose("OVERLAY", fmt.Sprintf("axes at %s", p))
}

// DrawCube draws a projected wireframe cube.
func (r *Renderer) DrawCube(img *gocv.Mat, segs []pose.Segment) {
	for _, s := range segs {
		r.line(img, s, r.cubeColor, 2)
	}
}

// Axes is the axis wireframe drawn by DrawAxes.
func (r *Renderer) Axes() pattern.Wireframe {
	return r.axes
}

// Cube is the wireframe drawn by DrawCube.
func (r *Renderer) Cube() pattern.Wireframe {
	return r.cube
}

// DrawHarrisCorners circles each strong corner.
func (r *Renderer) DrawHarrisCorners(img *gocv.Mat, points []image.Point) {
	for _, p := range points {
		gocv.Circle(img, p, 5, r.cornerMark, 2)
	}
}

// DrawStatus writes lines of text in the upper-left corner.
func (r *Renderer) DrawStatus(img *gocv.Mat, lines ...string) {
	y := 20
	for _, line := range lines {
		// dark outline keeps the text readable on a white board
		gocv.PutText(img, line, image.Pt(10, y), gocv.FontHersheySimplex, 0.5, color.RGBA{0, 0, 0, 255}, 3)
		gocv.PutText(img, line, image.Pt(10, y), gocv.FontHersheySimplex, 0.5, r.statusText, 1)
		y += 20
	}
}

func (r *Renderer) line(img *gocv.Mat, s pose.Segment, c color.RGBA, thickness int) {
	from, ok1 := toPixel(s.From)
	to, ok2 := toPixel(s.To)
	if !ok1 || !ok2 {
		return
	}
	gocv.Line(img, from, to, c, thickness)
}

// toPixel rounds p, rejecting values OpenCV cannot draw.
func toPixel(p r2.Point) (image.Point, bool) {
	const limit = 1 << 20
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.Abs(p.X) > limit || math.Abs(p.Y) > limit {
		return image.Point{}, false
	}
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y))), true
}

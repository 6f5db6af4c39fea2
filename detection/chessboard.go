package detection

import (
	"fmt"
	"image"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"checkercam/pattern"
)

// ChessboardDetector finds the inner corners of a chessboard and refines
// them to sub-pixel accuracy.
type ChessboardDetector struct {
	board    pattern.Board
	gray     gocv.Mat
	criteria gocv.TermCriteria
}

// NewChessboardDetector creates a detector for board.
func NewChessboardDetector(board pattern.Board) (*ChessboardDetector, error) {
	if err := board.CheckValid(); err != nil {
		return nil, err
	}
	return &ChessboardDetector{
		board:    board,
		gray:     gocv.NewMat(),
		criteria: gocv.NewTermCriteria(gocv.Count|gocv.EPS, 30, 0.1),
	}, nil
}

// Detect never fails on a missing board; Found is false instead.
func (c *ChessboardDetector) Detect(frame gocv.Mat) (*Result, error) {
	if frame.Empty() {
		return nil, errors.New("empty frame")
	}
	start := time.Now()

	corners := gocv.NewMat()
	flags := gocv.CalibCBAdaptiveThresh | gocv.CalibCBNormalizeImage | gocv.CalibCBFastCheck
	found := gocv.FindChessboardCorners(frame, c.board.Size(), &corners, flags)
	if !found || corners.Rows()*corners.Cols() != c.board.Len() {
		corners.Close()
		return &Result{Elapsed: time.Since(start)}, nil
	}

	gocv.CvtColor(frame, &c.gray, gocv.ColorBGRToGray)
	gocv.CornerSubPix(c.gray, &corners, image.Pt(11, 11), image.Pt(-1, -1), c.criteria)

	res := &Result{
		Found:     true,
		Corners:   CornersFromMat(corners),
		Elapsed:   time.Since(start),
		cornerMat: corners,
		hasMat:    true,
	}
	debugMsg("DETECT", fmt.Sprintf("board %s found, %d corners in %v", c.board, len(res.Corners), res.Elapsed))
	return res, nil
}

// CornersFromMat reads a CV32FC2 corner list in order.
func CornersFromMat(m gocv.Mat) []r2.Point {
	n := m.Rows() * m.Cols()
	out := make([]r2.Point, 0, n)
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			v := m.GetVecfAt(i, j)
			out = append(out, r2.Point{X: float64(v[0]), Y: float64(v[1])})
		}
	}
	return out
}

func (c *ChessboardDetector) Close() error {
	return c.gray.Close()
}

func (c *ChessboardDetector) Info() Info {
	return Info{Type: "chessboard", Params: c.board.String()}
}

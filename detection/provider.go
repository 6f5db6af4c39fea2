// Package detection finds the chessboard and Harris corners in camera frames.
package detection

import (
	"fmt"
	"image"
	"time"

	"github.com/golang/geo/r2"
	"gocv.io/x/gocv"
)

// Result represents the output of one detector pass over a frame.
type Result struct {
	Found   bool
	Corners []r2.Point    // chessboard inner corners, row-major, sub-pixel
	Points  []image.Point // strong Harris corners
	Elapsed time.Duration

	// cornerMat is the native corner list for DrawChessboardCorners
	cornerMat gocv.Mat
	hasMat    bool
}

// CornerMat returns the native corner list and whether there is one.
func (r *Result) CornerMat() (gocv.Mat, bool) {
	return r.cornerMat, r.hasMat
}

// Close releases the native corner list.
func (r *Result) Close() error {
	if r.hasMat {
		r.hasMat = false
		return r.cornerMat.Close()
	}
	return nil
}

// Global debug function for detection package
var debugMsgFunc func(component, message string)

// SetDebugFunction allows main package to provide debug function
func SetDebugFunction(fn func(component, message string)) {
	debugMsgFunc = fn
}

// debugMsg is a wrapper that handles nil checks
func debugMsg(component, message string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message)
	}
}

// Detector finds features in a BGR frame.
type Detector interface {
	Detect(frame gocv.Mat) (*Result, error)
	Close() error
	Info() Info
}

// Info describes a detector for the startup banner.
type Info struct {
	Type   string // "chessboard" or "harris"
	Params string
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s)", i.Type, i.Params)
}

// testDetector runs one pass over a blank frame to make sure the native
// calls work before the loop starts.
func testDetector(d Detector) error {
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	start := time.Now()
	res, err := d.Detect(frame)
	if err != nil {
		return err
	}
	defer res.Close()
	debugMsg("DETECT", fmt.Sprintf("%s self-test ok (%v)", d.Info(), time.Since(start)))
	return nil
}

// Check runs the self-test of d.
func Check(d Detector) error {
	if err := testDetector(d); err != nil {
		return fmt.Errorf("detector %s failed self-test: %v", d.Info().Type, err)
	}
	return nil
}

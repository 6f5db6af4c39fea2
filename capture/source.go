// Package capture opens the frame sources the display loops read from.
package capture

import (
	"fmt"
	"image"
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// debugMsgFunc is set by the main package to route messages through the shared logger
var debugMsgFunc func(component, message string)

// SetDebugFunction allows main package to provide the debug logger
func SetDebugFunction(fn func(component, message string)) {
	debugMsgFunc = fn
}

func debugMsg(component, message string) {
	if debugMsgFunc != nil {
		debugMsgFunc(component, message)
	}
}

// Source yields frames. Read returns false at end of stream.
type Source interface {
	Read(frame *gocv.Mat) bool
	Size() image.Point
	Close() error
}

// videoSource wraps a camera device or a stream.
type videoSource struct {
	name string
	cap  *gocv.VideoCapture
	size image.Point
}

// OpenCamera opens a local camera by device index.
func OpenCamera(device int) (Source, error) {
	debugMsg("CAPTURE", fmt.Sprintf("Opening camera device %d", device))
	vc, err := gocv.VideoCaptureDevice(device)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening camera %d", device)
	}
	return newVideoSource(fmt.Sprintf("camera %d", device), vc)
}

// OpenStream opens a video file or network stream.
func OpenStream(url string) (Source, error) {
	debugMsg("CAPTURE", fmt.Sprintf("Opening stream: %s", url))
	vc, err := gocv.VideoCaptureFile(url)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening stream %s", url)
	}
	// keep latency low on live streams
	vc.Set(gocv.VideoCaptureBufferSize, 1)
	return newVideoSource(url, vc)
}

func newVideoSource(name string, vc *gocv.VideoCapture) (Source, error) {
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Errorf("%s did not open", name)
	}
	size := image.Point{
		X: int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Y: int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}
	debugMsg("CAPTURE", fmt.Sprintf("Opened %s (%dx%d)", name, size.X, size.Y))
	return &videoSource{name: name, cap: vc, size: size}, nil
}

func (v *videoSource) Read(frame *gocv.Mat) bool {
	if ok := v.cap.Read(frame); !ok {
		return false
	}
	if !IsValidFrame(*frame) {
		return false
	}
	// some backends report 0x0 until the first frame arrives
	if v.size.X == 0 || v.size.Y == 0 {
		v.size = image.Point{X: frame.Cols(), Y: frame.Rows()}
	}
	return true
}

func (v *videoSource) Size() image.Point {
	return v.size
}

func (v *videoSource) Close() error {
	return v.cap.Close()
}

// imageSource re-reads a still image on every frame so that edits to the
// file show up live.
type imageSource struct {
	path string
	size image.Point
}

// OpenImage opens a still image. The file must be readable now.
func OpenImage(path string) (Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "error opening image")
	}
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if !IsValidFrame(img) {
		return nil, errors.Errorf("could not decode image %s", path)
	}
	size := image.Point{X: img.Cols(), Y: img.Rows()}
	debugMsg("CAPTURE", fmt.Sprintf("Opened image %s (%dx%d)", path, size.X, size.Y))
	return &imageSource{path: path, size: size}, nil
}

func (s *imageSource) Read(frame *gocv.Mat) bool {
	img := gocv.IMRead(s.path, gocv.IMReadColor)
	defer img.Close()
	if !IsValidFrame(img) {
		return false
	}
	img.CopyTo(frame)
	return true
}

func (s *imageSource) Size() image.Point {
	return s.size
}

func (s *imageSource) Close() error {
	return nil
}

// IsValidFrame checks if a frame is valid without touching its pixel data.
func IsValidFrame(frame gocv.Mat) bool {
	if frame.Ptr() == nil {
		return false
	}
	return frame.Rows() > 0 && frame.Cols() > 0 && frame.Channels() > 0
}

// Save writes frame as PNG with compression level 5.
func Save(path string, frame gocv.Mat) error {
	if !IsValidFrame(frame) {
		return errors.Errorf("refusing to save empty frame to %s", path)
	}
	if !gocv.IMWriteWithParams(path, frame, []int{gocv.IMWritePngCompression, 5}) {
		return errors.Errorf("failed to write %s", path)
	}
	debugMsg("CAPTURE", fmt.Sprintf("Saved %s", path))
	return nil
}

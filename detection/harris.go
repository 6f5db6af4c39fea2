package detection

import (
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"checkercam/corners"
)

// HarrisDetector marks every pixel with a strong Harris response.
type HarrisDetector struct {
	params corners.Params
	gray   gocv.Mat
}

// NewHarrisDetector creates a detector with p.
func NewHarrisDetector(p corners.Params) (*HarrisDetector, error) {
	if err := p.CheckValid(); err != nil {
		return nil, err
	}
	return &HarrisDetector{params: p, gray: gocv.NewMat()}, nil
}

func (h *HarrisDetector) Detect(frame gocv.Mat) (*Result, error) {
	if frame.Empty() {
		return nil, errors.New("empty frame")
	}
	start := time.Now()

	gocv.CvtColor(frame, &h.gray, gocv.ColorBGRToGray)
	gray, err := toGray(h.gray)
	if err != nil {
		return nil, err
	}
	points, err := corners.Detect(gray, h.params)
	if err != nil {
		return nil, err
	}
	res := &Result{Found: len(points) > 0, Points: points, Elapsed: time.Since(start)}
	debugMsg("HARRIS", fmt.Sprintf("%d strong corners in %v", len(points), res.Elapsed))
	return res, nil
}

func toGray(m gocv.Mat) (*image.Gray, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert frame")
	}
	if g, ok := img.(*image.Gray); ok {
		return g, nil
	}
	g := image.NewGray(img.Bounds())
	draw.Draw(g, g.Bounds(), img, img.Bounds().Min, draw.Src)
	return g, nil
}

func (h *HarrisDetector) Close() error {
	return h.gray.Close()
}

func (h *HarrisDetector) Info() Info {
	return Info{
		Type: "harris",
		Params: fmt.Sprintf("block=%d aperture=%d k=%.2f threshold=%.0f",
			h.params.BlockSize, h.params.ApertureSize, h.params.K, h.params.Threshold),
	}
}

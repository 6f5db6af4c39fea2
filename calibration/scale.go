package calibration

import (
	"image"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// FieldOfView returns the horizontal and vertical angles of view in degrees
// for a frame of the given size, ignoring distortion.
func (in Intrinsics) FieldOfView(frameSize image.Point) (float64, float64, error) {
	if err := in.CheckValid(); err != nil {
		return 0, 0, err
	}
	if frameSize.X <= 0 || frameSize.Y <= 0 {
		return 0, 0, errors.Errorf("invalid frame size %dx%d", frameSize.X, frameSize.Y)
	}
	w, h := float64(frameSize.X), float64(frameSize.Y)
	cx, cy := in.Cx(), in.Cy()
	hfov := math.Atan2(cx, in.Fx()) + math.Atan2(w-cx, in.Fx())
	vfov := math.Atan2(cy, in.Fy()) + math.Atan2(h-cy, in.Fy())
	return hfov * 180 / math.Pi, vfov * 180 / math.Pi, nil
}

// PixelsPerUnit is the image scale, in pixels per world unit, of a
// fronto-parallel plane at the given distance along the optical axis.
func (in Intrinsics) PixelsPerUnit(distance float64) (float64, float64, error) {
	if err := in.CheckValid(); err != nil {
		return 0, 0, err
	}
	if distance <= 0 {
		return 0, 0, errors.Errorf("distance must be positive, got %g", distance)
	}
	return in.Fx() / distance, in.Fy() / distance, nil
}

// ScaleRow is one line of a pixel scale table.
type ScaleRow struct {
	Distance     float64 `json:"distance"`
	PixelsPerX   float64 `json:"pixels_per_unit_x"`
	PixelsPerY   float64 `json:"pixels_per_unit_y"`
	VisibleWidth float64 `json:"visible_width"`
}

// ScaleTable evaluates PixelsPerUnit at each distance, sorted ascending.
func (in Intrinsics) ScaleTable(frameSize image.Point, distances []float64) ([]ScaleRow, error) {
	sorted := append([]float64(nil), distances...)
	sort.Float64s(sorted)
	rows := make([]ScaleRow, 0, len(sorted))
	for _, d := range sorted {
		px, py, err := in.PixelsPerUnit(d)
		if err != nil {
			return nil, err
		}
		rows = append(rows, ScaleRow{
			Distance:     d,
			PixelsPerX:   px,
			PixelsPerY:   py,
			VisibleWidth: float64(frameSize.X) / px,
		})
	}
	return rows, nil
}

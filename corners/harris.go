// Package corners implements Harris corner responses over grayscale images.
package corners

import (
	"image"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Params configures the Harris detector.
type Params struct {
	BlockSize    int     // side of the window summing gradient products
	ApertureSize int     // Sobel kernel size, only 3 is supported
	K            float64 // Harris free parameter
	Threshold    float64 // cut-off on the response normalised to [0,255]
}

// DefaultParams are block 2, aperture 3, k 0.04 and threshold 200.
func DefaultParams() Params {
	return Params{BlockSize: 2, ApertureSize: 3, K: 0.04, Threshold: 200}
}

// CheckValid checks the parameters.
func (p Params) CheckValid() error {
	if p.BlockSize < 1 {
		return errors.Errorf("block size must be positive, got %d", p.BlockSize)
	}
	if p.ApertureSize != 3 {
		return errors.Errorf("unsupported aperture size %d", p.ApertureSize)
	}
	return nil
}

// reflect101 mirrors an out-of-range index back into [0, n) without repeating
// the edge sample.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func grayAt(img *image.Gray, x, y int) float64 {
	b := img.Bounds()
	x = reflect101(x, b.Dx())
	y = reflect101(y, b.Dy())
	return float64(img.Pix[y*img.Stride+x])
}

// gradients applies the 3x3 Sobel operator.
func gradients(img *image.Gray) (*mat.Dense, *mat.Dense) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	gx := mat.NewDense(h, w, nil)
	gy := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, tc, tr := grayAt(img, x-1, y-1), grayAt(img, x, y-1), grayAt(img, x+1, y-1)
			ml, mr := grayAt(img, x-1, y), grayAt(img, x+1, y)
			bl, bc, br := grayAt(img, x-1, y+1), grayAt(img, x, y+1), grayAt(img, x+1, y+1)
			gx.Set(y, x, (tr+2*mr+br)-(tl+2*ml+bl))
			gy.Set(y, x, (bl+2*bc+br)-(tl+2*tc+tr))
		}
	}
	return gx, gy
}

// Response computes R = det(M) - k*trace(M)^2 per pixel, where M sums the
// gradient products over a BlockSize window anchored at its centre. The
// returned matrix is indexed (row=y, col=x).
func Response(img *image.Gray, p Params) (*mat.Dense, error) {
	if err := p.CheckValid(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}
	// work on an origin-aligned view
	if img.Bounds().Min != (image.Point{}) {
		shifted := image.NewGray(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		for y := 0; y < shifted.Rect.Dy(); y++ {
			for x := 0; x < shifted.Rect.Dx(); x++ {
				shifted.SetGray(x, y, img.GrayAt(img.Bounds().Min.X+x, img.Bounds().Min.Y+y))
			}
		}
		img = shifted
	}

	gx, gy := gradients(img)
	h, w := gx.Dims()
	lo := -(p.BlockSize / 2)
	hi := p.BlockSize - 1 + lo

	resp := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sxx, syy, sxy float64
			for dy := lo; dy <= hi; dy++ {
				yy := reflect101(y+dy, h)
				for dx := lo; dx <= hi; dx++ {
					xx := reflect101(x+dx, w)
					ix, iy := gx.At(yy, xx), gy.At(yy, xx)
					sxx += ix * ix
					syy += iy * iy
					sxy += ix * iy
				}
			}
			det := sxx*syy - sxy*sxy
			trace := sxx + syy
			resp.Set(y, x, det-p.K*trace*trace)
		}
	}
	return resp, nil
}

// Normalize linearly maps the response range onto [lo, hi]. A constant
// response maps to lo everywhere.
func Normalize(resp *mat.Dense, lo, hi float64) *mat.Dense {
	r, c := resp.Dims()
	raw := resp.RawMatrix()
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		values = append(values, raw.Data[i*raw.Stride:i*raw.Stride+c]...)
	}
	// stats errors only on empty input; Dims are never zero for a built Dense
	minV, _ := stats.Min(values)
	maxV, _ := stats.Max(values)

	out := mat.NewDense(r, c, nil)
	if maxV == minV {
		out.Apply(func(_, _ int, _ float64) float64 { return lo }, resp)
		return out
	}
	scale := (hi - lo) / (maxV - minV)
	out.Apply(func(_, _ int, v float64) float64 { return lo + (v-minV)*scale }, resp)
	return out
}

// Detect returns every pixel whose normalised response exceeds the threshold,
// in row-major order.
func Detect(img *image.Gray, p Params) ([]image.Point, error) {
	resp, err := Response(img, p)
	if err != nil {
		return nil, err
	}
	norm := Normalize(resp, 0, 255)
	r, c := norm.Dims()
	var found []image.Point
	for y := 0; y < r; y++ {
		for x := 0; x < c; x++ {
			if int(norm.At(y, x)) > int(p.Threshold) {
				found = append(found, image.Point{X: x, Y: y})
			}
		}
	}
	return found, nil
}

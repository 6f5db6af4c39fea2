package calibration

import (
	"fmt"
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultDistortionLen is the number of coefficients in a fresh distortion
// vector (k1, k2, p1, p2, k3, k4, k5, k6).
const DefaultDistortionLen = 8

// Intrinsics holds the camera matrix
//
//	[[fx  0 cx],
//	 [ 0 fy cy],
//	 [ 0  0  1]]
//
// and the lens distortion coefficients in OpenCV order.
type Intrinsics struct {
	CameraMatrix *mat.Dense
	Distortion   []float64
}

// NewIntrinsics builds intrinsics from focal lengths and principal point.
func NewIntrinsics(fx, fy, cx, cy float64, distortion []float64) Intrinsics {
	k := mat.NewDense(3, 3, []float64{
		fx, 0, cx,
		0, fy, cy,
		0, 0, 1,
	})
	d := make([]float64, len(distortion))
	copy(d, distortion)
	return Intrinsics{CameraMatrix: k, Distortion: d}
}

// DefaultIntrinsics is the identity camera matrix with its principal point at
// the centre of a frame of the given size, and zero distortion.
func DefaultIntrinsics(frameSize image.Point) Intrinsics {
	return NewIntrinsics(1, 1, float64(frameSize.X/2), float64(frameSize.Y/2), make([]float64, DefaultDistortionLen))
}

// Fx is the horizontal focal length in pixels.
func (in Intrinsics) Fx() float64 { return in.CameraMatrix.At(0, 0) }

// Fy is the vertical focal length in pixels.
func (in Intrinsics) Fy() float64 { return in.CameraMatrix.At(1, 1) }

// Cx is the principal point x coordinate.
func (in Intrinsics) Cx() float64 { return in.CameraMatrix.At(0, 2) }

// Cy is the principal point y coordinate.
func (in Intrinsics) Cy() float64 { return in.CameraMatrix.At(1, 2) }

// CheckValid checks the camera matrix shape and focal lengths.
func (in Intrinsics) CheckValid() error {
	if in.CameraMatrix == nil {
		return errors.New("camera matrix is not set")
	}
	r, c := in.CameraMatrix.Dims()
	if r != 3 || c != 3 {
		return errors.Errorf("camera matrix must be 3x3, got %dx%d", r, c)
	}
	if in.Fx() <= 0 || in.Fy() <= 0 {
		return errors.Errorf("invalid focal lengths fx=%v fy=%v", in.Fx(), in.Fy())
	}
	return nil
}

// Clone deep-copies the intrinsics.
func (in Intrinsics) Clone() Intrinsics {
	out := Intrinsics{Distortion: make([]float64, len(in.Distortion))}
	copy(out.Distortion, in.Distortion)
	if in.CameraMatrix != nil {
		out.CameraMatrix = mat.DenseCopyOf(in.CameraMatrix)
	}
	return out
}

// Equal reports whether both matrices and coefficient vectors match exactly.
func (in Intrinsics) Equal(other Intrinsics) bool {
	if in.CameraMatrix == nil || other.CameraMatrix == nil {
		return in.CameraMatrix == other.CameraMatrix && floatsEqual(in.Distortion, other.Distortion)
	}
	return mat.Equal(in.CameraMatrix, other.CameraMatrix) && floatsEqual(in.Distortion, other.Distortion)
}

func (in Intrinsics) String() string {
	return fmt.Sprintf("fx=%.4f fy=%.4f cx=%.4f cy=%.4f dist=%v", in.Fx(), in.Fy(), in.Cx(), in.Cy(), in.Distortion)
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

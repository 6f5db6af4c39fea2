// Package pose holds the per-frame board pose and projects board-frame
// geometry into the image through the pinhole and distortion model.
package pose

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"checkercam/calibration"
	"checkercam/pattern"
)

// ErrNoPose is returned when the pose solver could not find a solution.
var ErrNoPose = errors.New("no pose solution")

// Pose places the board frame in the camera frame: X_cam = R(Rotation) X + Translation.
// Rotation is a Rodrigues axis-angle vector.
type Pose struct {
	Rotation    r3.Vector
	Translation r3.Vector
}

// Estimator computes a pose from matched board and image points.
type Estimator interface {
	Estimate(reference []r3.Vector, observed []r2.Point, in calibration.Intrinsics) (Pose, error)
}

// Distance is the distance from the camera centre to the board origin.
func (p Pose) Distance() float64 {
	return p.Translation.Norm()
}

func (p Pose) String() string {
	return fmt.Sprintf("rvec=(%.4f, %.4f, %.4f) tvec=(%.4f, %.4f, %.4f)",
		p.Rotation.X, p.Rotation.Y, p.Rotation.Z,
		p.Translation.X, p.Translation.Y, p.Translation.Z)
}

// Rodrigues converts an axis-angle vector to a 3x3 rotation matrix.
func Rodrigues(r r3.Vector) *mat.Dense {
	theta := r.Norm()
	if theta < 1e-12 {
		return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	}
	k := r.Mul(1 / theta)
	c, s := math.Cos(theta), math.Sin(theta)
	v := 1 - c
	return mat.NewDense(3, 3, []float64{
		c + k.X*k.X*v, k.X*k.Y*v - k.Z*s, k.X*k.Z*v + k.Y*s,
		k.Y*k.X*v + k.Z*s, c + k.Y*k.Y*v, k.Y*k.Z*v - k.X*s,
		k.Z*k.X*v - k.Y*s, k.Z*k.Y*v + k.X*s, c + k.Z*k.Z*v,
	})
}

// Transform moves board-frame points into the camera frame.
func (p Pose) Transform(points []r3.Vector) []r3.Vector {
	rot := Rodrigues(p.Rotation)
	out := make([]r3.Vector, len(points))
	for i, pt := range points {
		var cam mat.VecDense
		cam.MulVec(rot, mat.NewVecDense(3, []float64{pt.X, pt.Y, pt.Z}))
		out[i] = r3.Vector{X: cam.AtVec(0), Y: cam.AtVec(1), Z: cam.AtVec(2)}.Add(p.Translation)
	}
	return out
}

// Project maps board-frame points to pixel coordinates. Up to eight
// distortion coefficients are honoured (k1 k2 p1 p2 k3 k4 k5 k6); missing
// ones are zero and further ones are ignored.
func Project(points []r3.Vector, p Pose, in calibration.Intrinsics) ([]r2.Point, error) {
	if err := in.CheckValid(); err != nil {
		return nil, err
	}
	var d [8]float64
	copy(d[:], in.Distortion)
	k1, k2, p1, p2, k3, k4, k5, k6 := d[0], d[1], d[2], d[3], d[4], d[5], d[6], d[7]
	fx, fy, cx, cy := in.Fx(), in.Fy(), in.Cx(), in.Cy()
	skew := in.CameraMatrix.At(0, 1)

	cam := p.Transform(points)
	out := make([]r2.Point, len(cam))
	for i, pc := range cam {
		z := 1.0
		if pc.Z != 0 {
			z = 1 / pc.Z
		}
		x, y := pc.X*z, pc.Y*z

		r2s := x*x + y*y
		r4 := r2s * r2s
		r6 := r4 * r2s
		radial := (1 + k1*r2s + k2*r4 + k3*r6) / (1 + k4*r2s + k5*r4 + k6*r6)
		xd := x*radial + 2*p1*x*y + p2*(r2s+2*x*x)
		yd := y*radial + p1*(r2s+2*y*y) + 2*p2*x*y

		out[i] = r2.Point{X: fx*xd + skew*yd + cx, Y: fy*yd + cy}
	}
	return out, nil
}

// ReprojectionError is the RMS pixel distance between observed corners and
// the reference points projected through p.
func ReprojectionError(reference []r3.Vector, observed []r2.Point, p Pose, in calibration.Intrinsics) (float64, error) {
	if len(reference) != len(observed) || len(reference) == 0 {
		return 0, errors.Errorf("cannot compare %d reference points with %d observed", len(reference), len(observed))
	}
	projected, err := Project(reference, p, in)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range projected {
		d := projected[i].Sub(observed[i])
		sum += d.Dot(d)
	}
	return math.Sqrt(sum / float64(len(projected))), nil
}

// Segment is a projected wireframe edge in pixel coordinates.
type Segment struct {
	From, To r2.Point
}

// ProjectWireframe projects every edge of wf. Edges with a vertex behind the
// camera are dropped.
func ProjectWireframe(wf pattern.Wireframe, p Pose, in calibration.Intrinsics) ([]Segment, error) {
	if err := wf.CheckValid(); err != nil {
		return nil, err
	}
	pts, err := Project(wf.Vertices, p, in)
	if err != nil {
		return nil, err
	}
	cam := p.Transform(wf.Vertices)
	out := make([]Segment, 0, len(wf.Edges))
	for _, e := range wf.Edges {
		if cam[e[0]].Z <= 0 || cam[e[1]].Z <= 0 {
			continue
		}
		out = append(out, Segment{From: pts[e[0]], To: pts[e[1]]})
	}
	return out, nil
}

//go:build opencv

package vision

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gocv.io/x/gocv"

	"checkercam/calibration"
)

func TestNewSolverFixesAspectRatio(t *testing.T) {
	test.That(t, NewSolver().Flags, test.ShouldEqual, gocv.CalibFlag(2))
}

func TestIntrinsicsMatsRoundTrip(t *testing.T) {
	in := calibration.NewIntrinsics(812.5, 810.25, 319.75, 241.125, []float64{-0.21, 0.093, 0.0012, -0.0004, 0.0175})
	in.CameraMatrix.Set(0, 1, 0.5)

	k, d, err := intrinsicsToMats(in)
	test.That(t, err, test.ShouldBeNil)
	defer k.Close()
	defer d.Close()
	test.That(t, k.Rows(), test.ShouldEqual, 3)
	test.That(t, k.Cols(), test.ShouldEqual, 3)
	test.That(t, d.Rows(), test.ShouldEqual, 1)
	test.That(t, d.Cols(), test.ShouldEqual, 5)
	test.That(t, k.GetDoubleAt(1, 2), test.ShouldEqual, 241.125)

	out, err := intrinsicsFromMats(k, d)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Equal(in), test.ShouldBeTrue)
}

func TestIntrinsicsToMatsPadsEmptyDistortion(t *testing.T) {
	in := calibration.NewIntrinsics(700, 700, 320, 240, nil)
	k, d, err := intrinsicsToMats(in)
	test.That(t, err, test.ShouldBeNil)
	defer k.Close()
	defer d.Close()
	test.That(t, d.Cols(), test.ShouldEqual, calibration.DefaultDistortionLen)
	for i := 0; i < d.Cols(); i++ {
		test.That(t, d.GetDoubleAt(0, i), test.ShouldEqual, 0.0)
	}

	_, _, err = intrinsicsToMats(calibration.Intrinsics{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIntrinsicsFromMatsColumnDistortion(t *testing.T) {
	k := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer k.Close()
	for i, v := range []float64{650, 0, 320, 0, 650, 240, 0, 0, 1} {
		k.SetDoubleAt(i/3, i%3, v)
	}
	d := gocv.NewMatWithSize(5, 1, gocv.MatTypeCV64F)
	defer d.Close()
	for i, v := range []float64{0.1, -0.2, 0.003, -0.004, 0.05} {
		d.SetDoubleAt(i, 0, v)
	}

	out, err := intrinsicsFromMats(k, d)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Distortion, test.ShouldResemble, []float64{0.1, -0.2, 0.003, -0.004, 0.05})
	test.That(t, out.Fx(), test.ShouldEqual, 650.0)
	test.That(t, out.Cy(), test.ShouldEqual, 240.0)

	bad := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer bad.Close()
	_, err = intrinsicsFromMats(bad, d)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestVec3RowAndColumn(t *testing.T) {
	want := r3.Vector{X: 0.1, Y: -2, Z: 30}

	row := gocv.NewMatWithSize(1, 3, gocv.MatTypeCV64F)
	defer row.Close()
	col := gocv.NewMatWithSize(3, 1, gocv.MatTypeCV64F)
	defer col.Close()
	for i, v := range []float64{want.X, want.Y, want.Z} {
		row.SetDoubleAt(0, i, v)
		col.SetDoubleAt(i, 0, v)
	}
	test.That(t, vec3(row), test.ShouldResemble, want)
	test.That(t, vec3(col), test.ShouldResemble, want)
}

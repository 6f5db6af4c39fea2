package calibration

import (
	"image"
	"testing"

	"go.viam.com/test"
)

func TestFieldOfView(t *testing.T) {
	// fx equal to half the width gives 90 degrees across
	in := NewIntrinsics(320, 240, 320, 240, nil)
	h, v, err := in.FieldOfView(image.Point{640, 480})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h, test.ShouldAlmostEqual, 90)
	test.That(t, v, test.ShouldAlmostEqual, 90)

	_, _, err = in.FieldOfView(image.Point{})
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = Intrinsics{}.FieldOfView(image.Point{640, 480})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPixelsPerUnit(t *testing.T) {
	in := NewIntrinsics(800, 600, 320, 240, nil)
	px, py, err := in.PixelsPerUnit(20)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, px, test.ShouldEqual, 40.0)
	test.That(t, py, test.ShouldEqual, 30.0)

	_, _, err = in.PixelsPerUnit(0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestScaleTable(t *testing.T) {
	in := NewIntrinsics(800, 800, 320, 240, nil)
	distances := []float64{40, 10, 20}
	rows, err := in.ScaleTable(image.Point{640, 480}, distances)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(rows), test.ShouldEqual, 3)
	test.That(t, distances, test.ShouldResemble, []float64{40, 10, 20})
	test.That(t, rows[0].Distance, test.ShouldEqual, 10.0)
	test.That(t, rows[0].PixelsPerX, test.ShouldEqual, 80.0)
	test.That(t, rows[0].VisibleWidth, test.ShouldEqual, 8.0)
	test.That(t, rows[1].Distance, test.ShouldEqual, 20.0)
	test.That(t, rows[2].Distance, test.ShouldEqual, 40.0)

	_, err = in.ScaleTable(image.Point{640, 480}, []float64{10, -1})
	test.That(t, err, test.ShouldNotBeNil)
}

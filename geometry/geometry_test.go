package geometry

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestSegmentIntersect(t *testing.T) {
	Convey("When segments cross", t, func() {
		p1, p2 := r2.Vec{X: 0, Y: 0}, r2.Vec{X: 10, Y: 0}
		p3, p4 := r2.Vec{X: 4, Y: -5}, r2.Vec{X: 4, Y: 5}

		hit, tt := SegmentIntersect(p1, p2, p3, p4)
		So(hit, ShouldBeTrue)
		So(tt, ShouldAlmostEqual, 0.4)

		Convey("Reversing the first segment yields the same point with t complemented", func() {
			rhit, rt := SegmentIntersect(p2, p1, p3, p4)
			So(rhit, ShouldBeTrue)
			So(rt, ShouldAlmostEqual, 1-tt)

			fwd := Segment{A: p1, B: p2}.At(tt)
			rev := Segment{A: p2, B: p1}.At(rt)
			So(fwd.X, ShouldAlmostEqual, rev.X)
			So(fwd.Y, ShouldAlmostEqual, rev.Y)
		})
	})

	Convey("When segments are parallel and not collinear", t, func() {
		hit, _ := SegmentIntersect(
			r2.Vec{X: 0, Y: 0}, r2.Vec{X: 10, Y: 0},
			r2.Vec{X: 0, Y: 1}, r2.Vec{X: 10, Y: 1})
		So(hit, ShouldBeFalse)
	})

	Convey("When a segment is degenerate", t, func() {
		hit, _ := SegmentIntersect(
			r2.Vec{X: 3, Y: 3}, r2.Vec{X: 3, Y: 3},
			r2.Vec{X: 0, Y: 0}, r2.Vec{X: 10, Y: 10})
		So(hit, ShouldBeFalse)
	})

	Convey("When lines cross outside the segments", t, func() {
		hit, _ := SegmentIntersect(
			r2.Vec{X: 0, Y: 0}, r2.Vec{X: 1, Y: 0},
			r2.Vec{X: 5, Y: -1}, r2.Vec{X: 5, Y: 1})
		So(hit, ShouldBeFalse)
	})
}

func TestRayTrace(t *testing.T) {
	ray := Segment{A: r2.Vec{X: 0, Y: 0}, B: r2.Vec{X: 0, Y: 200}}

	Convey("When the boundary has no segments", t, func() {
		So(RayTrace(ray, 200), ShouldEqual, 200)
		So(RayTrace(ray, 200, []r2.Vec{}), ShouldEqual, 200)
		So(RayTrace(ray, 200, []r2.Vec{{X: 5, Y: 5}}), ShouldEqual, 200)
	})

	Convey("When several walls are hit, the nearest is returned", t, func() {
		near := []r2.Vec{{X: -10, Y: 30}, {X: 10, Y: 30}}
		far := []r2.Vec{{X: -10, Y: 80}, {X: 10, Y: 80}, {X: 20, Y: 80}}
		So(RayTrace(ray, 200, far, near), ShouldAlmostEqual, 30)
	})

	Convey("When the wall is beyond the ray", t, func() {
		wall := []r2.Vec{{X: -10, Y: 300}, {X: 10, Y: 300}}
		So(RayTrace(ray, 200, wall), ShouldEqual, 200)
	})
}

func TestVectorHelpers(t *testing.T) {
	Convey("Given vector helpers", t, func() {
		Convey("Limit caps the magnitude", func() {
			v := Limit(r2.Vec{X: 30, Y: 40}, 10)
			So(r2.Norm(v), ShouldAlmostEqual, 10)
			So(Limit(r2.Vec{X: 3, Y: 4}, 10), ShouldResemble, r2.Vec{X: 3, Y: 4})
		})

		Convey("SetMag keeps zero vectors at zero", func() {
			So(SetMag(r2.Vec{}, 5), ShouldResemble, r2.Vec{})
			So(r2.Norm(SetMag(r2.Vec{X: 1, Y: 1}, 5)), ShouldAlmostEqual, 5)
		})

		Convey("Clip shortens a ray to the hit distance", func() {
			ray := Segment{A: r2.Vec{}, B: r2.Vec{X: 200}}
			clipped := Clip(ray, 50)
			So(clipped.B.X, ShouldAlmostEqual, 50)
			So(Clip(ray, 500), ShouldResemble, ray)
		})

		Convey("Heading and FromAngle agree", func() {
			So(Heading(FromAngle(math.Pi/3)), ShouldAlmostEqual, math.Pi/3)
		})
	})
}

func TestCrosses(t *testing.T) {
	Convey("Given a corridor of two walls", t, func() {
		walls := [][]r2.Vec{
			{{X: 0, Y: -50}, {X: 100, Y: -50}, {X: 200, Y: -50}},
			{{X: 0, Y: 50}, {X: 200, Y: 50}},
		}

		Convey("A path inside it crosses nothing", func() {
			So(Crosses(Segment{A: r2.Vec{X: 10}, B: r2.Vec{X: 190, Y: 40}}, walls...), ShouldBeFalse)
		})

		Convey("A path through the second segment of a wall crosses it", func() {
			So(Crosses(Segment{A: r2.Vec{X: 150}, B: r2.Vec{X: 160, Y: -90}}, walls...), ShouldBeTrue)
		})

		Convey("A path leaving past the walls' ends crosses nothing", func() {
			So(Crosses(Segment{A: r2.Vec{X: 150}, B: r2.Vec{X: 400}}, walls...), ShouldBeFalse)
		})
	})
}

package geom

import (
	"math"
	"math/rand"
	"testing"
)

func box(cx, cy, w, h float64) AABB {
	return AABB{Center: Vec2{X: cx, Y: cy}, Size: Vec2{X: w, Y: h}}
}

func TestOverlapSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	for i := 0; i < 500; i++ {
		a := box(rng.Float64()*200-100, rng.Float64()*200-100, rng.Float64()*64, rng.Float64()*64)
		b := box(rng.Float64()*200-100, rng.Float64()*200-100, rng.Float64()*64, rng.Float64()*64)
		ab, okAB := Overlap(a, b)
		ba, okBA := Overlap(b, a)
		if okAB != okBA {
			t.Fatalf("overlap detection asymmetric for %v vs %v", a, b)
		}
		if ab != ba {
			t.Fatalf("overlap magnitudes asymmetric: %v vs %v", ab, ba)
		}
	}
}

func TestOverlapSeparatedAxes(t *testing.T) {
	base := box(0, 0, 10, 10)
	cases := []struct {
		name  string
		other AABB
	}{
		{"right", box(20, 0, 10, 10)},
		{"left", box(-20, 0, 10, 10)},
		{"above", box(0, 20, 10, 10)},
		{"below", box(0, -20, 10, 10)},
		{"diagonal", box(25, 25, 10, 10)},
	}
	for _, tc := range cases {
		if _, ok := Overlap(base, tc.other); ok {
			t.Fatalf("%s: expected no overlap for %v", tc.name, tc.other)
		}
	}
}

func TestOverlapTouchingReportsZeroAxis(t *testing.T) {
	a := box(0, 0, 10, 10)
	b := box(10, 0, 10, 10)
	amt, ok := Overlap(a, b)
	if !ok {
		t.Fatalf("expected touching boxes to report contact")
	}
	if amt.X != 0 {
		t.Fatalf("expected zero x overlap for touching boxes, got %v", amt.X)
	}
	if amt.Y != 10 {
		t.Fatalf("expected full y overlap, got %v", amt.Y)
	}
}

func TestOverlapMagnitudes(t *testing.T) {
	a := box(0, 0, 16, 16)
	b := box(12, 4, 16, 16)
	amt, ok := Overlap(a, b)
	if !ok {
		t.Fatalf("expected overlap")
	}
	if amt.X != 4 || amt.Y != 12 {
		t.Fatalf("expected (4,12), got %v", amt)
	}
}

func TestZeroSizeNeverOverlaps(t *testing.T) {
	point := box(5, 5, 0, 0)
	fat := box(5, 5, 100, 100)
	if _, ok := Overlap(point, fat); ok {
		t.Fatalf("zero-size box must not overlap anything")
	}
	if _, ok := Overlap(fat, point); ok {
		t.Fatalf("zero-size box must not overlap anything (reversed)")
	}
}

func TestNonFiniteIsDegenerate(t *testing.T) {
	bad := box(math.NaN(), 0, 10, 10)
	if !bad.IsDegenerate() {
		t.Fatalf("NaN center should be degenerate")
	}
	inf := box(0, 0, math.Inf(1), 10)
	if !inf.IsDegenerate() {
		t.Fatalf("infinite size should be degenerate")
	}
}

func TestRectConversionRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		orig := box(rng.Float64()*1000-500, rng.Float64()*1000-500, rng.Float64()*128, rng.Float64()*128)
		back := orig.Rect().AABB()
		if back.Size != orig.Size {
			t.Fatalf("size changed in round trip: %v -> %v", orig.Size, back.Size)
		}
		if math.Abs(back.Center.X-orig.Center.X) > 1e-9 || math.Abs(back.Center.Y-orig.Center.Y) > 1e-9 {
			t.Fatalf("center drifted in round trip: %v -> %v", orig.Center, back.Center)
		}
	}
	zero := box(3, -4, 0, 0)
	if zero.Rect().AABB() != zero {
		t.Fatalf("zero-size round trip must be exact")
	}
}

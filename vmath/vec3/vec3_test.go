package vec3

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func TestNormalizeIsUnitLength(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	for i := 0; i < 1000; i++ {
		v := RangeDistribution(rng, -100, 100)
		if v.NearZero() {
			continue
		}
		if got := Normalize(v).Norm(); math.Abs(got-1) > 1e-12 {
			t.Errorf("Normalize(%v) has length %v, want 1", v, got)
		}
	}

	tiny := T{1e-9, -3e-9, 2e-9}
	if got := Normalize(tiny).Norm(); math.Abs(got-1) > 1e-12 {
		t.Errorf("Normalize(%v) has length %v, want 1", tiny, got)
	}
}

func TestNearZero(t *testing.T) {
	testCases := []struct {
		v    T
		want bool
	}{
		{T{0, 0, 0}, true},
		{T{9e-9, -9e-9, 1e-12}, true},
		{T{1e-8, 0, 0}, false},
		{T{0, 0, -2e-8}, false},
		{T{1, 1, 1}, false},
	}
	for _, tc := range testCases {
		if got := tc.v.NearZero(); got != tc.want {
			t.Errorf("%v.NearZero() = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestArithmetic(t *testing.T) {
	a := T{1, 2, 3}
	b := T{4, -5, 6}

	testCases := []struct {
		name string
		got  T
		want T
	}{
		{"AddVV", AddVV(a, b), T{5, -3, 9}},
		{"SubVV", SubVV(a, b), T{-3, 7, -3}},
		{"MulVV", MulVV(a, b), T{4, -10, 18}},
		{"MulVS", MulVS(a, 2), T{2, 4, 6}},
		{"DivVS", DivVS(a, 2), T{0.5, 1, 1.5}},
		{"Neg", Neg(a), T{-1, -2, -3}},
		{"CProd", CProd(T{1, 0, 0}, T{0, 1, 0}), T{0, 0, 1}},
		{"Lerp", Lerp(0.25, T{0, 0, 0}, T{4, 8, 12}), T{1, 2, 3}},
	}
	for _, tc := range testCases {
		if diff := cmp.Diff(tc.got, tc.want, approx); diff != "" {
			t.Errorf("%s: bad result; diff (-got +want)\n%s", tc.name, diff)
		}
	}

	if got, want := IProd(a, b), 12.0; got != want {
		t.Errorf("IProd(%v, %v) = %v, want %v", a, b, got, want)
	}
	if got, want := a.NormSquared(), 14.0; got != want {
		t.Errorf("%v.NormSquared() = %v, want %v", a, got, want)
	}
}

func TestReflect(t *testing.T) {
	got := Reflect(T{1, -1, 0}, T{0, 1, 0})
	want := T{1, 1, 0}
	if diff := cmp.Diff(got, want, approx); diff != "" {
		t.Errorf("Bad reflection; diff (-got +want)\n%s", diff)
	}
}

func TestRefractNormalIncidence(t *testing.T) {
	got := Refract(T{0, -1, 0}, T{0, 1, 0}, 1/1.5)
	want := T{0, -1, 0}
	if diff := cmp.Diff(got, want, approx); diff != "" {
		t.Errorf("Bad refraction; diff (-got +want)\n%s", diff)
	}
}

func TestRefractSnell(t *testing.T) {
	ratio := 1 / 1.5
	in := Normalize(T{1, -1, 0})
	n := T{0, 1, 0}

	out := Refract(in, n, ratio)

	sinIn := math.Abs(in[0])
	sinOut := math.Abs(out[0]) / out.Norm()
	if math.Abs(sinOut-ratio*sinIn) > 1e-12 {
		t.Errorf("Snell's law violated: sin(out) = %v, want %v", sinOut, ratio*sinIn)
	}
	if math.Abs(out.Norm()-1) > 1e-12 {
		t.Errorf("Refracted unit vector has length %v, want 1", out.Norm())
	}
}

func TestUniformUnitDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var mean T
	const n = 20000
	for i := 0; i < n; i++ {
		v := UniformUnitDistribution(rng)
		if math.Abs(v.Norm()-1) > 1e-12 {
			t.Fatalf("Sample %v has length %v, want 1", v, v.Norm())
		}
		mean = AddVV(mean, v)
	}
	mean = DivVS(mean, n)
	if mean.Norm() > 0.05 {
		t.Errorf("Samples are biased; mean %v", mean)
	}
}

func TestUnitDiskDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		p := UnitDiskDistribution(rng)
		if p.NormSquared() >= 1 {
			t.Fatalf("Sample %v is outside the unit disk", p)
		}
	}
}

func TestRangeDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		v := RangeDistribution(rng, 0.5, 1)
		for j := 0; j < 3; j++ {
			if v[j] < 0.5 || v[j] >= 1 {
				t.Fatalf("Sample %v has a component outside [0.5, 1)", v)
			}
		}
	}
}

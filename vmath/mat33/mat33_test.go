package mat33

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"row-major/pathtracer/vmath/vec3"
)

func TestFromColumns(t *testing.T) {
	a := vec3.T{1, 2, 3}
	b := vec3.T{4, 5, 6}
	c := vec3.T{7, 8, 9}
	m := FromColumns(a, b, c)

	for i, want := range []vec3.T{a, b, c} {
		if got := m.Column(i); got != want {
			t.Errorf("Column(%d) = %v, want %v", i, got, want)
		}
	}

	got := MulMV(m, vec3.T{1, 0, 2})
	want := vec3.AddVV(a, vec3.MulVS(c, 2))
	if got != want {
		t.Errorf("MulMV = %v, want %v", got, want)
	}
}

func TestTransposeOfRotationIsInverse(t *testing.T) {
	// A rotation by 30 degrees about z.
	m := FromColumns(
		vec3.T{0.8660254037844387, 0.5, 0},
		vec3.T{-0.5, 0.8660254037844387, 0},
		vec3.T{0, 0, 1},
	)

	got := MulMM(Transpose(m), m)
	if diff := cmp.Diff(got, Identity(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Transpose(m) * m is not the identity; diff (-got +want)\n%s", diff)
	}
}

func TestIdentity(t *testing.T) {
	v := vec3.T{3, -1, 2}
	if got := MulMV(Identity(), v); got != v {
		t.Errorf("MulMV(Identity(), %v) = %v", v, got)
	}
}

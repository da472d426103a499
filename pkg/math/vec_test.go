package math

import (
	"testing"
)

func TestVec2Add(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	got := a.Add(b)
	want := Vec2{4, 6}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	got := v.Length()
	want := float32(5)
	if got != want {
		t.Errorf("Vec2.Length() = %v, want %v", got, want)
	}
}

func TestVec2Distance(t *testing.T) {
	a := Vec2{1, 1}
	b := Vec2{4, 5}
	if got := a.Distance(b); got != 5 {
		t.Errorf("Vec2.Distance() = %v, want 5", got)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	got := Vec3{}.Normalize()
	if got != (Vec3{}) {
		t.Errorf("Vec3{}.Normalize() = %v, want zero vector", got)
	}
}

func TestVec3Normalize(t *testing.T) {
	n := Vec3{3, 0, 4}.Normalize()
	l := n.Length()
	if l < 0.999 || l > 1.001 {
		t.Errorf("Vec3.Normalize().Length() = %v, want ~1", l)
	}
}

func TestQuatFromEulerIdentity(t *testing.T) {
	if got := QuatFromEuler(0, 0, 0).ToMat4(); got != Identity() {
		t.Errorf("QuatFromEuler(0,0,0).ToMat4() = %v, want identity", got)
	}
}

func TestQuatFromEulerOrder(t *testing.T) {
	got := QuatFromEuler(0.3, -1.1, 2.5).ToMat4()
	want := RotateX(0.3).Mul(RotateY(-1.1)).Mul(RotateZ(2.5))
	for i := 0; i < 16; i++ {
		if abs(got[i]-want[i]) > 0.0001 {
			t.Errorf("element %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestQuatFromEulerSingleAxis(t *testing.T) {
	tests := []struct {
		name string
		q    Quat
		m    Mat4
	}{
		{"x", QuatFromEuler(0.3, 0, 0), RotateX(0.3)},
		{"y", QuatFromEuler(0, -1.1, 0), RotateY(-1.1)},
		{"z", QuatFromEuler(0, 0, 2.5), RotateZ(2.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.q.ToMat4()
			for i := 0; i < 16; i++ {
				if abs(got[i]-tt.m[i]) > 0.0001 {
					t.Errorf("element %d: got %f, want %f", i, got[i], tt.m[i])
				}
			}
		})
	}
}

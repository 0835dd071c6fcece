package scene

import "testing"

func TestParseColorForms(t *testing.T) {
	red := Color{R: 1, G: 0, B: 0, A: 1}

	tests := []struct {
		input string
		want  Color
		ok    bool
	}{
		{"red", red, true},
		{"RED", red, true},
		{"#FF0000", red, true},
		{"#ff0000", red, true},
		{"#FF000080", Color{R: 1, G: 0, B: 0, A: float64(0x80) / 255}, true},
		{"(1,0,0,1)", red, true},
		{"(1, 0, 0)", red, true},
		{"white", White, true},
		{"not-a-color", Color{}, false},
		{"#GG0000", Color{}, false},
		{"", Color{}, false},
	}

	for _, tc := range tests {
		got, ok := ParseColor(tc.input)
		if ok != tc.ok {
			t.Errorf("ParseColor(%q) ok = %v, expected %v", tc.input, ok, tc.ok)
			continue
		}
		if ok && !colorsClose(got, tc.want) {
			t.Errorf("ParseColor(%q) = %+v, expected %+v", tc.input, got, tc.want)
		}
	}
}

// Named, hex and constructor spellings of red agree.
func TestParseColorEquivalence(t *testing.T) {
	named, _ := ParseColor("red")
	hex, _ := ParseColor("#FF0000")
	ctor, _ := ParseColor("(1,0,0,1)")

	if !colorsClose(named, hex) || !colorsClose(named, ctor) {
		t.Errorf("Expected equal reds, got named=%+v hex=%+v ctor=%+v", named, hex, ctor)
	}
}

func colorsClose(a, b Color) bool {
	const eps = 1e-9
	abs := func(f float64) float64 {
		if f < 0 {
			return -f
		}
		return f
	}
	return abs(a.R-b.R) < eps && abs(a.G-b.G) < eps && abs(a.B-b.B) < eps && abs(a.A-b.A) < eps
}

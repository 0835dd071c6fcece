package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// Vector2 is a 2-D engine value used by transform-like properties.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}

// Color is an RGBA engine value with components in the 0..1 range.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

func (c Color) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", c.R, c.G, c.B, c.A)
}

var White = Color{R: 1, G: 1, B: 1, A: 1}

var namedColors = map[string]Color{
	"red":    {R: 1, G: 0, B: 0, A: 1},
	"green":  {R: 0, G: 1, B: 0, A: 1},
	"blue":   {R: 0, G: 0, B: 1, A: 1},
	"yellow": {R: 1, G: 1, B: 0, A: 1},
	"white":  {R: 1, G: 1, B: 1, A: 1},
	"black":  {R: 0, G: 0, B: 0, A: 1},
	"gray":   {R: 0.5, G: 0.5, B: 0.5, A: 1},
	"orange": {R: 1, G: 0.5, B: 0, A: 1},
	"purple": {R: 0.5, G: 0, B: 0.5, A: 1},
	"cyan":   {R: 0, G: 1, B: 1, A: 1},
}

// ParseColor parses a named color, "#RRGGBB[AA]" hex, or a "(r,g,b[,a])"
// constructor literal. The bool result reports whether parsing succeeded;
// callers decide the fallback policy.
func ParseColor(raw string) (Color, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return White, false
	}

	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, true
	}

	if strings.HasPrefix(s, "#") {
		return parseHexColor(s)
	}

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return parseColorConstructor(s[1 : len(s)-1])
	}

	return White, false
}

func parseHexColor(s string) (Color, bool) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return White, false
	}

	parse := func(part string) (float64, bool) {
		v, err := strconv.ParseUint(part, 16, 16)
		if err != nil {
			return 0, false
		}
		return float64(v) / 255.0, true
	}

	r, okR := parse(hex[0:2])
	g, okG := parse(hex[2:4])
	b, okB := parse(hex[4:6])
	if !okR || !okG || !okB {
		return White, false
	}

	a := 1.0
	if len(hex) == 8 {
		parsed, ok := parse(hex[6:8])
		if !ok {
			return White, false
		}
		a = parsed
	}
	return Color{R: r, G: g, B: b, A: a}, true
}

func parseColorConstructor(inner string) (Color, bool) {
	parts := strings.Split(inner, ",")
	if len(parts) < 3 {
		return White, false
	}

	components := make([]float64, 0, 4)
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return White, false
		}
		components = append(components, v)
	}

	c := Color{R: components[0], G: components[1], B: components[2], A: 1}
	if len(components) >= 4 {
		c.A = components[3]
	}
	return c, true
}
